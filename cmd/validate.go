package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/lanefall/mdfc/compiler"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <file.mdfs>",
	Short: "Compiles a .mdfs chart and reports only success or failure",
	Long:  `Compiles and discards the result; exits non-zero and prints the diagnostic on failure, exits zero silently on success. Meant for CI.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runValidate(args[0])
	},
}

func runValidate(path string) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		panic("cmd: could not read chart file: " + err.Error())
	}

	if _, d := compiler.Compile(src, compiler.Options{}); d != nil {
		fmt.Println(d.Error())
		os.Exit(1)
	}
}
