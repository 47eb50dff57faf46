package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"

	"github.com/lanefall/mdfc/chunk"
	"github.com/lanefall/mdfc/constants"
	"github.com/lanefall/mdfc/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reports bucket/chunk stats for the current index",
	Long:  `Aggregates bucket and chunk byte/record counts for the current index directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		report()
	},
}

type bucketsReport struct {
	numRecords int64
	numFiles   int64
	numBytes   int64
}

type chunksReport struct {
	avgIndexPercent float32
	indexPercents   []float32
	recordsInIndex  []int64
	numFiles        int64
	numRecords      int64
	totalBytes      int64
	dataBytes       int64
}

var bucketFileRe = regexp.MustCompile(`^\d{4}\.dat$`)
var chunkFileRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-([0-9a-fA-F]{4}-){3}[0-9a-fA-F]{12}\.dat$`)

func analyzeBuckets() bucketsReport {
	var report bucketsReport

	files, err := ioutil.ReadDir(constants.GetIndexDir())
	if err != nil {
		panic("report: could not read index dir because: " + err.Error())
	}

	for _, f := range files {
		if !bucketFileRe.MatchString(f.Name()) {
			continue
		}
		report.numFiles++
		path := filepath.Join(constants.GetIndexDir(), f.Name())
		stats, err := os.Stat(path)
		if err != nil {
			panic("report: could not stat bucket file: " + err.Error())
		}
		report.numBytes += stats.Size()
		report.numRecords += stats.Size() / constants.RecordSize
	}

	return report
}

func analyzeChunks() chunksReport {
	var report chunksReport

	files, err := ioutil.ReadDir(constants.GetIndexDir())
	if err != nil {
		panic("report: could not read index dir because: " + err.Error())
	}

	for _, f := range files {
		if !chunkFileRe.MatchString(f.Name()) {
			continue
		}
		report.numFiles++

		file := util.OpenFileOrPanic(filepath.Join(constants.GetIndexDir(), f.Name()))
		index, indexLength := chunk.ReadIndexOrPanic(file)

		var recordsInIndex int64
		for _, v := range index {
			recordsInIndex += int64(v.End-v.Start) / constants.RecordSize
		}
		report.recordsInIndex = append(report.recordsInIndex, recordsInIndex)

		stats, err := file.Stat()
		if err != nil {
			panic("report: could not stat chunk file: " + err.Error())
		}
		indexPercent := float32(indexLength+4) / float32(stats.Size())
		report.totalBytes += stats.Size()
		report.indexPercents = append(report.indexPercents, indexPercent)

		dataBytes := stats.Size() - int64(indexLength+4)
		report.dataBytes += dataBytes
		report.numRecords += dataBytes / constants.RecordSize
		file.Close()
	}

	if report.totalBytes > 0 {
		report.avgIndexPercent = float32(report.totalBytes-report.dataBytes) / float32(report.totalBytes)
	}
	return report
}

func report() {
	bucketsReport := analyzeBuckets()
	chunksReport := analyzeChunks()
	fmt.Printf("bucketsReport.numFiles: %v\n", bucketsReport.numFiles)
	fmt.Printf("chunksReport.numFiles: %v\n", chunksReport.numFiles)
	if bucketsReport.numBytes > 0 {
		fmt.Printf("dataBytes is this many times more than bucketed size (should be 1): %v\n", float32(chunksReport.dataBytes)/float32(bucketsReport.numBytes))
	}
	fmt.Printf("chunksReport.avgIndexPercent: %v\n", chunksReport.avgIndexPercent)
	fmt.Printf("chunksReport.recordsInIndex: %v\n", chunksReport.recordsInIndex)

	fmt.Printf("bucketsReport.numRecords: %v\n", bucketsReport.numRecords)
	numCalcedRecords := util.Sum(chunksReport.recordsInIndex)
	fmt.Printf("numCalcedRecords from indexes: %v\n", numCalcedRecords)

	fmt.Printf("bucketsReport.numBytes: %v\n", bucketsReport.numBytes)
	fmt.Printf("chunksReport.totalBytes: %v\n", chunksReport.totalBytes)
}
