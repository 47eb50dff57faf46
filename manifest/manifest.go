// Package manifest resolves a sound manifest path to a sound-id -> asset-
// path mapping. The compiler core treats values opaquely beyond requiring
// non-empty strings; reading and parsing is delegated to a Loader the
// caller supplies. When the caller supplies none, compiler.Compile falls
// back to FileLoader, which reads the manifest from disk.
package manifest

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/lanefall/mdfc/diag"
	"github.com/pkg/errors"
)

// Loader resolves a manifest path (as written after @sound_manifest) to a
// sound-id -> asset-path mapping, or a diagnostic.
type Loader interface {
	Load(path string) (map[string]string, *diag.Diagnostic)
}

// FileLoader reads a JSON object of sound-id -> asset-path pairs from disk.
// It is the default Loader used by the CLI; tests and the core's own unit
// tests substitute a map-backed Loader instead.
type FileLoader struct{}

// Load implements Loader.
func (FileLoader) Load(path string) (map[string]string, *diag.Diagnostic) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Wrap(diag.E2001, diag.IO, "could not read sound manifest "+strconv.Quote(path), errors.WithStack(err))
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, diag.Wrap(diag.E2002, diag.IO, "could not parse sound manifest as JSON", errors.WithStack(err))
	}

	for id, assetPath := range raw {
		if assetPath == "" {
			return nil, diag.New(diag.E2003, diag.IO, "sound manifest entry "+strconv.Quote(id)+" has an empty path")
		}
	}

	return raw, nil
}

// StaticLoader serves a fixed, already-resolved mapping. Used by tests and
// by any caller that has already loaded the manifest out-of-band.
type StaticLoader map[string]string

// Load implements Loader.
func (s StaticLoader) Load(path string) (map[string]string, *diag.Diagnostic) {
	return map[string]string(s), nil
}
