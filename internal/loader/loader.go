package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/auvlib/mapstream/internal/archive"
	"github.com/auvlib/mapstream/internal/fsutil"
	"github.com/auvlib/mapstream/internal/monitoring"
	"github.com/auvlib/mapstream/internal/pcd"
	"github.com/auvlib/mapstream/internal/submap"
)

// submapFileExt is the extension recognised by the directory loader.
const submapFileExt = ".pcd"

// Loader produces a submap collection from the source the config selects.
type Loader struct {
	FS fsutil.FileSystem
}

// New creates a Loader reading through the given filesystem.
func New(fsys fsutil.FileSystem) *Loader {
	return &Loader{FS: fsys}
}

// Load dispatches on the resolved mode. All failures are fatal to the
// caller: a missing path or an archive that does not parse in its expected
// layout ends the run with a diagnostic.
func (l *Loader) Load(cfg Config) (submap.Collection, error) {
	var (
		maps submap.Collection
		err  error
	)

	switch cfg.Mode {
	case ModeDirectory:
		maps, err = l.loadDirectory(cfg.FolderPath)
	case ModeLegacy:
		maps, err = l.loadLegacy(cfg.SlamPath)
	case ModeCereal:
		maps, err = l.loadCereal(cfg.SlamPath)
	default:
		return nil, fmt.Errorf("unknown input mode %v", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	if err := maps.Validate(); err != nil {
		return nil, err
	}
	monitoring.Logf("loaded %d submaps (%d points) via %s source", len(maps), maps.PointCount(), cfg.Mode)
	return maps, nil
}

// loadDirectory reads every recognized submap file in the folder, in
// directory-enumeration order, one submap per file. IDs follow enumeration
// order; no other reindexing is done.
func (l *Loader) loadDirectory(dir string) (submap.Collection, error) {
	entries, err := l.FS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read submap folder %s: %w", dir, err)
	}

	var maps submap.Collection
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), submapFileExt) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := l.FS.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open submap file %s: %w", path, err)
		}

		cloud, err := pcd.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode submap file %s: %w", path, err)
		}

		maps = append(maps, submap.Submap{
			ID:    len(maps),
			Pose:  cloud.Viewpoint,
			Cloud: cloud.Points,
		})
	}
	return maps, nil
}

// loadLegacy re-parses the original format: one record, converted into
// exactly one submap.
func (l *Loader) loadLegacy(path string) (submap.Collection, error) {
	rec, err := archive.ReadLegacy(l.FS, path)
	if err != nil {
		return nil, err
	}
	return submap.Collection{archive.ConvertLegacy(rec, 0)}, nil
}

// loadCereal reads the collection archive named "<stem>.cereal" beside the
// configured slam path.
func (l *Loader) loadCereal(path string) (submap.Collection, error) {
	return archive.ReadCollection(l.FS, archive.CollectionPath(path))
}
