package cmd

import (
	"fmt"

	"github.com/lanefall/mdfc/chunk"
	"github.com/lanefall/mdfc/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chunk-file>",
	Short: "Dumps a chunk's gob-encoded index",
	Long:  `Dumps a chunk's gob-encoded bucket-label -> byte-range index.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inspect(args[0])
	},
}

func inspect(path string) {
	f := util.OpenFileOrPanic(path)
	defer f.Close()
	index, _ := chunk.ReadIndexOrPanic(f)
	keys := util.GetKeys(index)
	for _, key := range keys {
		fmt.Printf("key: %v\n", key)
		fmt.Printf("val: %v\n", index[key])
	}
}
