// Package archive reads and writes the binary map archives: a type-matched
// snapshot of a submap collection (the ".cereal" archive produced by the
// offline mapping tools) and the older single-trajectory legacy format.
package archive

import (
	"encoding/gob"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/auvlib/mapstream/internal/fsutil"
	"github.com/auvlib/mapstream/internal/submap"
)

// FormatError reports an archive that could not be read in its expected
// binary layout. Fatal at startup; no recovery is attempted.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// CollectionPath derives the collection archive location from the
// configured slam file path: a file named "<stem>.cereal" beside it.
func CollectionPath(slamPath string) string {
	base := filepath.Base(slamPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(slamPath), stem+".cereal")
}

// ReadCollection deserializes a submap collection from the archive at path.
// The serialized shape matches the in-memory collection exactly, so a
// round trip reproduces every submap with identical point counts.
func ReadCollection(fsys fsutil.FileSystem, path string) (submap.Collection, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	defer f.Close()

	var maps submap.Collection
	if err := gob.NewDecoder(f).Decode(&maps); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if err := maps.Validate(); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	return maps, nil
}

// WriteCollection serializes the collection to the archive at path.
func WriteCollection(fsys fsutil.FileSystem, path string, maps submap.Collection) error {
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", path, err)
	}

	if err := gob.NewEncoder(w).Encode(maps); err != nil {
		w.Close()
		return fmt.Errorf("encode archive %s: %w", path, err)
	}
	return w.Close()
}
