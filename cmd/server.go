package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Runs the search API without CORS",
	Long:  `A minimal fallback to serve: the same /search handler with no CORS headers, for same-origin integration tests.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func startServer() {
	LoadServeFiles()

	router := newSearchRouter()
	log.Fatal(http.ListenAndServe(":8081", router))
}
