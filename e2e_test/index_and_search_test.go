//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/lanefall/mdfc/cmd"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	cmd.Index("../testdata/charts", 0)
	cmd.LoadServeFiles()

	os.Exit(m.Run())
}

func createSearchReqBody(minBPM, maxBPM float64, minNoteCount int) io.Reader {
	data, err := json.Marshal(map[string]interface{}{
		"min_bpm":        minBPM,
		"max_bpm":        maxBPM,
		"min_note_count": minNoteCount,
	})
	if err != nil {
		panic(err.Error())
	}
	return bytes.NewReader(data)
}

func TestBasicChartSearchE2E(t *testing.T) {
	body := createSearchReqBody(100, 200, 1)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	w := httptest.NewRecorder()
	cmd.HandleSearch(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var results []map[string]interface{}
	if err := json.Unmarshal(respBody, &results); err != nil {
		panic(err.Error())
	}

	assert.Len(results, 1)
	assert.Equal(float64(150), results[0]["bpm"])
}

func TestOutOfRangeSearchE2E(t *testing.T) {
	body := createSearchReqBody(300, 400, 1)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	w := httptest.NewRecorder()
	cmd.HandleSearch(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var results []map[string]interface{}
	if err := json.Unmarshal(respBody, &results); err != nil {
		panic(err.Error())
	}
	assert.Len(results, 0)
}
