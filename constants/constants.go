package constants

import (
	"os"
	"path/filepath"
	"strconv"
)

func GetIndexDir() string {
	path := os.Getenv("MDFC_INDEX_DIR")
	if path != "" {
		return path
	}
	return "./out"
}

func GetChartDir() string {
	path := os.Getenv("MDFC_CHART_DIR")
	if path != "" {
		return path
	}
	panic("MDFC_CHART_DIR environment variable is not set!")
}

// GetAllChunksPath is where the gob-encoded []chunk.ChunkOverview slice is
// written by `mdfc index` and read back by `mdfc serve`.
func GetAllChunksPath() string {
	return filepath.Join(GetIndexDir(), "allChunks.dat")
}

// GetFileNumToNamePath is where the gob-encoded file.FileNumToChartPath map
// is written by `mdfc index`.
func GetFileNumToNamePath() string {
	return filepath.Join(GetIndexDir(), "fileNumToName.dat")
}

// RecordSize is bpm_centis (4) + note_count (4) + duration_ms (4) + file_num (4).
const RecordSize = 16

const BucketWidthBPM = 10

var PreferredChunkSize = 64 * 1024 * 1024

func init() {
	if v := os.Getenv("MDFC_PREFERRED_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			PreferredChunkSize = n
		}
	}
}
