package archive

import (
	"encoding/gob"
	"fmt"

	"github.com/auvlib/mapstream/internal/fsutil"
	"github.com/auvlib/mapstream/internal/submap"
)

// LegacyRecord is the single-trajectory raw-graph structure written by the
// original (pre-collection) mapping format: one pose transform plus one
// composed map cloud, stored in the trajectory frame.
type LegacyRecord struct {
	Transform submap.Pose
	Points    *submap.PointCloud
}

// ReadLegacy deserializes one legacy record from the archive at path.
func ReadLegacy(fsys fsutil.FileSystem, path string) (*LegacyRecord, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	defer f.Close()

	var rec LegacyRecord
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if rec.Points == nil {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("legacy record has no point cloud")}
	}
	return &rec, nil
}

// WriteLegacy serializes one legacy record to the archive at path.
func WriteLegacy(fsys fsutil.FileSystem, path string, rec *LegacyRecord) error {
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create legacy archive %s: %w", path, err)
	}

	if err := gob.NewEncoder(w).Encode(rec); err != nil {
		w.Close()
		return fmt.Errorf("encode legacy archive %s: %w", path, err)
	}
	return w.Close()
}

// ConvertLegacy derives exactly one submap from the record: the stored
// points are carried into the map frame through the record's transform,
// and the transform becomes the submap pose. The conversion is
// deterministic; the same record always yields the same submap.
func ConvertLegacy(rec *LegacyRecord, id int) submap.Submap {
	return submap.Submap{
		ID:    id,
		Pose:  rec.Transform,
		Cloud: rec.Transform.TransformCloud(rec.Points),
	}
}
