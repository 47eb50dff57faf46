package cmd

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lanefall/mdfc/bucket"
	"github.com/lanefall/mdfc/chunk"
	"github.com/lanefall/mdfc/constants"
	"github.com/lanefall/mdfc/db"
	"github.com/lanefall/mdfc/file"
	"github.com/lanefall/mdfc/util"
)

var allChunks []chunk.ChunkOverview
var fileNumToName file.FileNumToChartPath

// LoadServeFiles loads the gob-encoded chunk-overview and file-number maps
// written by `mdfc index`, for the serve/server commands (and the e2e
// test harness) to search against. Exported in the register of the
// teacher's own exported cmd.LoadServeFiles.
func LoadServeFiles() {
	allChunks = util.ReadBinaryOrPanic[[]chunk.ChunkOverview](constants.GetAllChunksPath())
	fileNumToName = util.ReadBinaryOrPanic[file.FileNumToChartPath](constants.GetFileNumToNamePath())
}

type searchRequestBody struct {
	MinBPM       float64 `json:"min_bpm"`
	MaxBPM       float64 `json:"max_bpm"`
	MinNoteCount int     `json:"min_note_count"`
}

type searchResult struct {
	FileID     uint32            `json:"file_id"`
	Path       string            `json:"path"`
	BPM        float64           `json:"bpm"`
	NoteCount  uint32            `json:"note_count"`
	DurationMs uint32            `json:"duration_ms"`
	Metadata   *db.ChartMetadata `json:"metadata,omitempty"`
}

func bucketLabelOverlapsRange(label string, minBPM, maxBPM float64) bool {
	lower, err := strconv.Atoi(label)
	if err != nil {
		return false
	}
	lowerBPM := float64(lower)
	upperBPM := lowerBPM + float64(constants.BucketWidthBPM)
	return lowerBPM < maxBPM && upperBPM > minBPM
}

func chunkOverlapsRange(overview chunk.ChunkOverview, minBPM, maxBPM float64) bool {
	start, err1 := strconv.Atoi(overview.Start)
	end, err2 := strconv.Atoi(overview.End)
	if err1 != nil || err2 != nil {
		return true // can't parse the overview bounds, don't risk skipping it
	}
	return float64(start) < maxBPM && float64(end)+float64(constants.BucketWidthBPM) > minBPM
}

func recordMatches(r bucket.Record, minBPM, maxBPM float64, minNoteCount int) bool {
	bpm := float64(r.BPMCentis) / 100
	if bpm < minBPM || bpm > maxBPM {
		return false
	}
	return int(r.NoteCount) >= minNoteCount
}

func findMatchesInChunk(overview chunk.ChunkOverview, minBPM, maxBPM float64, minNoteCount int) []bucket.Record {
	path := filepath.Join(constants.GetIndexDir(), overview.Filename)
	f, err := os.Open(path)
	if err != nil {
		panic("cmd: could not open chunk file " + path + ": " + err.Error())
	}
	defer f.Close()

	index, indexLength := chunk.ReadIndexOrPanic(f)
	dataStart := int64(4) + int64(indexLength)

	var matches []bucket.Record
	for label, pair := range index {
		if !bucketLabelOverlapsRange(label, minBPM, maxBPM) {
			continue
		}
		buf := make([]byte, pair.End-pair.Start)
		if _, err := f.ReadAt(buf, dataStart+int64(pair.Start)); err != nil {
			panic("cmd: could not read chunk data section: " + err.Error())
		}
		for i := 0; i+int(constants.RecordSize) <= len(buf); i += constants.RecordSize {
			r := bucket.DecodeRecord(buf[i : i+constants.RecordSize])
			if recordMatches(r, minBPM, maxBPM, minNoteCount) {
				matches = append(matches, r)
			}
		}
	}
	return matches
}

func search(minBPM, maxBPM float64, minNoteCount int) []searchResult {
	var matches []bucket.Record
	for _, overview := range allChunks {
		if !chunkOverlapsRange(overview, minBPM, maxBPM) {
			continue
		}
		matches = append(matches, findMatchesInChunk(overview, minBPM, maxBPM, minNoteCount)...)
	}

	results := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, searchResult{
			FileID:     m.FileNum,
			Path:       fileNumToName[m.FileNum],
			BPM:        float64(m.BPMCentis) / 100,
			NoteCount:  m.NoteCount,
			DurationMs: m.DurationMs,
		})
	}

	enrichWithMetadata(results)
	return results
}

// enrichWithMetadata joins db.ChartMetadata onto results in place, batching
// lookups in groups of 10 the way db.GetChartMetadatas requires. A batch
// is skipped, not fatal, if the metadata store is unreachable: search
// results stand on their own without the join.
func enrichWithMetadata(results []searchResult) {
	const batchSize = 10
	for start := 0; start < len(results); start += batchSize {
		end := start + batchSize
		if end > len(results) {
			end = len(results)
		}
		paths := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			paths = append(paths, results[i].Path)
		}
		metas := lookupMetadata(paths)
		for i := start; i < end; i++ {
			if m, ok := metas[results[i].Path]; ok {
				mCopy := m
				results[i].Metadata = &mCopy
			}
		}
	}
}

func lookupMetadata(paths []string) (metas map[string]db.ChartMetadata) {
	defer func() {
		if recover() != nil {
			metas = nil
		}
	}()
	return db.GetChartMetadatas(paths)
}

// HandleSearch is handleSearch exported for the e2e test harness, which
// drives the handler directly with httptest rather than a live listener.
func HandleSearch(w http.ResponseWriter, r *http.Request) {
	handleSearch(w, r)
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	reqBody, err := ioutil.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	var input searchRequestBody
	if err := json.Unmarshal(reqBody, &input); err != nil {
		http.Error(w, "could not unmarshal request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if input.MaxBPM <= 0 {
		input.MaxBPM = 1 << 30
	}

	results := search(input.MinBPM, input.MaxBPM, input.MinNoteCount)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		fmt.Println("cmd: could not encode search response: " + err.Error())
	}
}
