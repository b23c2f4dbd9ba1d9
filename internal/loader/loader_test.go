package loader

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/auvlib/mapstream/internal/archive"
	"github.com/auvlib/mapstream/internal/fsutil"
	"github.com/auvlib/mapstream/internal/pcd"
	"github.com/auvlib/mapstream/internal/submap"
)

func TestResolveModes(t *testing.T) {
	cases := []struct {
		name         string
		simulation   string
		original     string
		folder, slam string
		wantMode     Mode
		wantErr      bool
	}{
		{name: "simulation", simulation: "yes", folder: "/maps", wantMode: ModeDirectory},
		{name: "original", original: "yes", slam: "/data/run.graph", wantMode: ModeLegacy},
		{name: "default cereal", simulation: "no", original: "no", slam: "/data/run.graph", wantMode: ModeCereal},
		{name: "unset flags fall through to cereal", slam: "/data/run.graph", wantMode: ModeCereal},
		{name: "ambiguous flags", simulation: "yes", original: "yes", folder: "/maps", slam: "/data/run.graph", wantErr: true},
		{name: "simulation without folder", simulation: "yes", wantErr: true},
		{name: "original without slam path", original: "yes", wantErr: true},
		{name: "cereal without slam path", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Resolve(tc.simulation, tc.original, tc.folder, tc.slam)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, cfg.Mode)
		})
	}
}

func writePCD(t *testing.T, fs *fsutil.MemoryFileSystem, path string, points [][3]float32) {
	t.Helper()

	pc := submap.NewPointCloud(len(points))
	for _, p := range points {
		pc.Append(p[0], p[1], p[2])
	}
	var buf bytes.Buffer
	err := pcd.Encode(&buf, &pcd.Cloud{Points: pc, Viewpoint: submap.IdentityPose()}, false)
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile(path, buf.Bytes(), 0644))
}

func TestLoadDirectoryEnumerationOrder(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	// Written out of order; enumeration (sorted) order must win.
	writePCD(t, fs, "/maps/submap_2.pcd", [][3]float32{{2, 0, 0}, {20, 0, 0}})
	writePCD(t, fs, "/maps/submap_0.pcd", [][3]float32{{0, 0, 0}})
	writePCD(t, fs, "/maps/submap_1.pcd", [][3]float32{{1, 0, 0}, {10, 0, 0}, {11, 0, 0}})
	// Unrecognized files are skipped.
	require.NoError(t, fs.WriteFile("/maps/README.txt", []byte("notes"), 0644))

	cfg, err := Resolve("yes", "", "/maps", "")
	require.NoError(t, err)

	maps, err := New(fs).Load(cfg)
	require.NoError(t, err)

	require.Len(t, maps, 3)
	wantCounts := []int{1, 3, 2}
	for i, want := range wantCounts {
		assert.Equal(t, i, maps[i].ID)
		assert.Equal(t, want, maps[i].Cloud.Len(), "submap %d point count", i)
	}
	assert.Equal(t, float32(0), maps[0].Cloud.X[0])
	assert.Equal(t, float32(1), maps[1].Cloud.X[0])
	assert.Equal(t, float32(2), maps[2].Cloud.X[0])
}

func TestLoadDirectoryMissingFolder(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	cfg, err := Resolve("yes", "", "/absent", "")
	require.NoError(t, err)

	_, err = New(fs).Load(cfg)
	assert.Error(t, err)
}

func TestLoadLegacyProducesOneSubmap(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	points := submap.NewPointCloud(4)
	for i := 0; i < 4; i++ {
		points.Append(float32(i), 0, 0)
	}
	rec := &archive.LegacyRecord{
		Transform: submap.NewPose(r3.Vec{X: 100}, 0),
		Points:    points,
	}
	require.NoError(t, archive.WriteLegacy(fs, "/data/run.graph", rec))

	cfg, err := Resolve("", "yes", "", "/data/run.graph")
	require.NoError(t, err)

	maps, err := New(fs).Load(cfg)
	require.NoError(t, err)

	require.Len(t, maps, 1)
	assert.Equal(t, 4, maps[0].Cloud.Len())
	// Points were carried into the map frame through the record transform.
	assert.InDelta(t, 100, float64(maps[0].Cloud.X[0]), 1e-4)
}

func TestLoadCerealRoundTripFidelity(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	const m = 5
	var want submap.Collection
	for i := 0; i < m; i++ {
		pc := submap.NewPointCloud(i + 1)
		for j := 0; j <= i; j++ {
			pc.Append(float32(i), float32(j), 0)
		}
		want = append(want, submap.Submap{ID: i, Pose: submap.IdentityPose(), Cloud: pc})
	}
	// The archive lives beside the slam path, named after its stem.
	require.NoError(t, archive.WriteCollection(fs, "/data/survey.cereal", want))

	cfg, err := Resolve("", "", "", "/data/survey.graph")
	require.NoError(t, err)

	maps, err := New(fs).Load(cfg)
	require.NoError(t, err)

	require.Len(t, maps, m)
	for i := 0; i < m; i++ {
		assert.Equal(t, want[i].Cloud.Len(), maps[i].Cloud.Len(), "submap %d point count", i)
	}
}

func TestLoadCerealMissingArchive(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	cfg, err := Resolve("", "", "", "/data/survey.graph")
	require.NoError(t, err)

	_, err = New(fs).Load(cfg)
	assert.Error(t, err)
}

func TestLoadDirectoryEmptyFolder(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.MkdirAll("/maps")

	cfg, err := Resolve("yes", "", "/maps", "")
	require.NoError(t, err)

	maps, err := New(fs).Load(cfg)
	require.NoError(t, err)
	assert.Empty(t, maps)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "cereal", ModeCereal.String())
	assert.Equal(t, "directory", ModeDirectory.String())
	assert.Equal(t, "legacy", ModeLegacy.String())
	assert.Equal(t, fmt.Sprintf("Mode(%d)", 9), Mode(9).String())
}
