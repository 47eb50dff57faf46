package bucket

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"

	"github.com/lanefall/mdfc/compiler"
	"github.com/lanefall/mdfc/constants"
	"github.com/lanefall/mdfc/db"
	"github.com/lanefall/mdfc/file"
	"github.com/lanefall/mdfc/util"
)

// Record is the fixed-size summary written to a bucket file for every
// chart that compiles successfully.
type Record struct {
	BPMCentis  uint32
	NoteCount  uint32
	DurationMs uint32
	FileNum    uint32
}

func bucketLabel(bpm float64) string {
	lower := int(bpm/float64(constants.BucketWidthBPM)) * constants.BucketWidthBPM
	return fmt.Sprintf("%04d", lower)
}

func putRecordInBucket(r Record, bpm float64) {
	filename := filepath.Join(constants.GetIndexDir(), bucketLabel(bpm)+".dat")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0777)
	if err != nil {
		panic("Could not open bucket because: " + err.Error())
	}
	defer f.Close()

	buf := make([]byte, constants.RecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.BPMCentis)
	binary.LittleEndian.PutUint32(buf[4:8], r.NoteCount)
	binary.LittleEndian.PutUint32(buf[8:12], r.DurationMs)
	binary.LittleEndian.PutUint32(buf[12:16], r.FileNum)
	if _, err = f.Write(buf); err != nil {
		panic("Could not write record to bucket because: " + err.Error())
	}
}

// fileHasMetadata reports whether the chart-metadata table carries an entry
// for path. The metadata store is an optional enrichment source, not a
// dependency of bucketing itself, so an unreachable table is treated as "no
// metadata" rather than aborting the index run.
func fileHasMetadata(path string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	metadatas := db.GetChartMetadatas([]string{path})
	_, ok = metadatas[path]
	return ok
}

func processChartFile(fileNum uint32, path string) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		fmt.Printf("Skipping %v because: %v\n", path, err)
		return
	}

	c, diag := compiler.Compile(src, compiler.Options{})
	if diag != nil {
		fmt.Printf("Skipping %v because: %v\n", path, diag)
		return
	}

	// presence of metadata doesn't affect bucketing, only search enrichment
	_ = fileHasMetadata(path)

	r := Record{
		BPMCentis:  uint32(c.Meta.BPM*100 + 0.5),
		NoteCount:  uint32(len(c.Notes)),
		DurationMs: uint32(c.Meta.TotalDurationUs / 1000),
		FileNum:    fileNum,
	}
	putRecordInBucket(r, c.Meta.BPM)
}

func ProcessAllChartFiles(m file.FileNumToChartPath) {
	keys := util.GetKeys(m)
	for i, num := range keys {
		fmt.Printf("Processing %v of %v chart files\n", i+1, len(keys))
		processChartFile(num, m[num])
	}
}

func DeleteAll() {
	outDir := constants.GetIndexDir()
	files, err := ioutil.ReadDir(outDir)
	if err != nil {
		panic("Could not read dir because: " + err.Error())
	}

	r, _ := regexp.Compile(`^\d{4}\.dat$`)
	for _, f := range files {
		if r.MatchString(f.Name()) {
			os.Remove(filepath.Join(outDir, f.Name()))
		}
	}
}

// DecodeRecord decodes one fixed-size Record from the head of buf.
func DecodeRecord(buf []byte) Record {
	return Record{
		BPMCentis:  binary.LittleEndian.Uint32(buf[0:4]),
		NoteCount:  binary.LittleEndian.Uint32(buf[4:8]),
		DurationMs: binary.LittleEndian.Uint32(buf[8:12]),
		FileNum:    binary.LittleEndian.Uint32(buf[12:16]),
	}
}

func ReadRecords(path string) []Record {
	var res []Record
	bucketFile := util.OpenFileOrPanic(path)
	defer bucketFile.Close()
	bucketReader := bufio.NewReader(bucketFile)
	for {
		buf := make([]byte, constants.RecordSize)
		_, err := io.ReadFull(bucketReader, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			panic("Could not read record from file: " + err.Error())
		}

		res = append(res, DecodeRecord(buf))
	}
	return res
}

// BucketLabel returns the zero-padded bucket label a bpm falls into, the
// same width the on-disk bucket filenames use. Exported so other packages
// (chunk scanning, search) can map a bpm range onto bucket labels without
// duplicating the bucketing rule.
func BucketLabel(bpm float64) string {
	return bucketLabel(bpm)
}
