package cmd

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the chart search API",
	Long:  `Starts the HTTP search API (POST /search) with CORS enabled, the production entry point.`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func newSearchRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/search", handleSearch).Methods("POST")
	return router
}

func serve() {
	LoadServeFiles()

	router := newSearchRouter()
	handler := cors.Default().Handler(router)
	log.Fatal(http.ListenAndServe(":8080", handler))
}
