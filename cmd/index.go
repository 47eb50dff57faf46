package cmd

import (
	"strconv"

	"github.com/lanefall/mdfc/bucket"
	"github.com/lanefall/mdfc/chunk"
	"github.com/lanefall/mdfc/constants"
	"github.com/lanefall/mdfc/file"
	"github.com/lanefall/mdfc/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index <dir> [maxNum]",
	Short: "Compiles and indexes a directory of .mdfs charts",
	Long:  `Walks a directory of .mdfs charts, compiles each, and buckets/chunks compact binary summaries for the search service.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var maxNum int
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				panic(err)
			}
			maxNum = n
		}

		Index(args[0], maxNum)
	},
}

// Index walks dir for .mdfs charts (at most maxNum of them, 0 meaning no
// limit), compiles each, and writes the bucket/chunk files the search
// service reads. Exported for the e2e test harness to call directly, in
// the register of the teacher's own exported cmd.Index.
func Index(dir string, maxNum int) {
	util.RecreateOutputDir()
	paths := util.GatherAllChartPaths(dir, maxNum)
	fileNumMap := file.CreateFileNumMap(paths)
	bucket.ProcessAllChartFiles(fileNumMap)
	chunks := chunk.CreateAll()
	util.CreateBinary(constants.GetAllChunksPath(), chunks)
	util.CreateBinary(constants.GetFileNumToNamePath(), fileNumMap)
}
