// Package chunk merges per-BPM-bucket record files into size-bounded chunk
// files: a little-endian length prefix, a gob-encoded index mapping a BPM
// bucket label to its byte range, then the concatenated fixed-size
// bucket.Record payloads. Same on-disk shape as the teacher's
// chunk/chunk.go, re-keyed from chord keys to BPM bucket labels.
package chunk

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lanefall/mdfc/bucket"
	"github.com/lanefall/mdfc/constants"
)

// Pair is a byte-offset range within a chunk's data section.
type Pair struct {
	Start uint32
	End   uint32
}

// ChunkIndex maps a bucket label (e.g. "0150") to the byte range in the
// chunk's data section holding that bucket's records.
type ChunkIndex = map[string]Pair

// ChunkOverview is the summary record written to the all-chunks manifest:
// the bucket-label range a chunk file covers, and its filename.
type ChunkOverview struct {
	Start    string
	End      string
	Filename string
}

type bucketLabelToRecords = map[string][]bucket.Record

func getKeysSorted(m bucketLabelToRecords) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getEncodedMapSize(m ChunkIndex) uint32 {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(m); err != nil {
		panic("chunk: could not size-encode index: " + err.Error())
	}
	return uint32(len(buf.Bytes()))
}

func makeChunk(m bucketLabelToRecords, sortedKeys []string) ChunkOverview {
	c := ChunkOverview{
		Filename: uuid.New().String() + ".dat",
		Start:    sortedKeys[0],
		End:      sortedKeys[len(sortedKeys)-1],
	}

	index := make(ChunkIndex)
	dataBuf := new(bytes.Buffer)
	var offset uint32
	for _, key := range sortedKeys {
		start := offset
		for _, r := range m[key] {
			buf := make([]byte, constants.RecordSize)
			binary.LittleEndian.PutUint32(buf[0:4], r.BPMCentis)
			binary.LittleEndian.PutUint32(buf[4:8], r.NoteCount)
			binary.LittleEndian.PutUint32(buf[8:12], r.DurationMs)
			binary.LittleEndian.PutUint32(buf[12:16], r.FileNum)
			dataBuf.Write(buf)
			offset += uint32(constants.RecordSize)
		}
		index[key] = Pair{Start: start, End: offset}
	}

	indexBuf := new(bytes.Buffer)
	if err := gob.NewEncoder(indexBuf).Encode(index); err != nil {
		panic("chunk: could not encode index: " + err.Error())
	}

	sizeBuf := new(bytes.Buffer)
	binary.Write(sizeBuf, binary.LittleEndian, getEncodedMapSize(index))

	var final []byte
	final = append(final, sizeBuf.Bytes()...)
	final = append(final, indexBuf.Bytes()...)
	final = append(final, dataBuf.Bytes()...)

	filename := constants.GetIndexDir() + "/" + c.Filename
	if err := ioutil.WriteFile(filename, final, 0777); err != nil {
		panic("chunk: write failed for chunk file: " + err.Error())
	}
	return c
}

func maybeMakeChunks(m bucketLabelToRecords, force bool) []ChunkOverview {
	var size int
	var currKeys []string

	sortedKeys := getKeysSorted(m)
	var created []ChunkOverview

	for i, key := range sortedKeys {
		currKeys = append(currKeys, key)
		size += len(m[key]) * constants.RecordSize
		size += len(key) + 8 // approximate index-entry overhead

		isLast := i == len(sortedKeys)-1
		if size > constants.PreferredChunkSize || (isLast && force) {
			created = append(created, makeChunk(m, currKeys))
			for _, k := range currKeys {
				delete(m, k)
			}
			size = 0
			currKeys = currKeys[:0]
		}
	}

	return created
}

func getBucketPaths() []string {
	files, err := ioutil.ReadDir(constants.GetIndexDir())
	if err != nil {
		panic("chunk: could not list index dir: " + err.Error())
	}

	var res []string
	for _, f := range files {
		name := f.Name()
		if len(name) == 8 && strings.HasSuffix(name, ".dat") {
			res = append(res, constants.GetIndexDir()+"/"+name)
		}
	}
	return res
}

// CreateAll merges every bucket file in the index directory into one or
// more size-bounded chunk files and returns their overviews.
func CreateAll() []ChunkOverview {
	m := make(bucketLabelToRecords)
	var res []ChunkOverview

	bucketPaths := getBucketPaths()
	for i, path := range bucketPaths {
		fmt.Printf("Processing %v of %v buckets\n", i+1, len(bucketPaths))
		label := bucketLabelFromPath(path)
		m[label] = append(m[label], bucket.ReadRecords(path)...)

		isLastBucket := i == len(bucketPaths)-1
		res = append(res, maybeMakeChunks(m, isLastBucket)...)
	}

	return res
}

func bucketLabelFromPath(path string) string {
	base := path[strings.LastIndex(path, "/")+1:]
	return strings.TrimSuffix(base, ".dat")
}

// ReadIndexOrPanic reads the length-prefixed, gob-encoded ChunkIndex from
// the head of an open chunk file, returning the index and its encoded
// byte length (the latter needed by callers computing data-section size).
func ReadIndexOrPanic(f *os.File) (ChunkIndex, uint32) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(f, lenBuf); err != nil {
		panic("chunk: could not read index length: " + err.Error())
	}
	indexLength := binary.LittleEndian.Uint32(lenBuf)

	indexBuf := make([]byte, indexLength)
	if _, err := io.ReadFull(f, indexBuf); err != nil {
		panic("chunk: could not read index: " + err.Error())
	}

	var index ChunkIndex
	if err := gob.NewDecoder(bytes.NewReader(indexBuf)).Decode(&index); err != nil {
		panic("chunk: could not decode index: " + err.Error())
	}

	return index, indexLength
}
