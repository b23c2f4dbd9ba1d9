// Package submap defines the in-memory map model: point clouds stored as
// parallel coordinate arrays, rigid-body poses, and the ordered collection
// of submaps produced by the loaders.
package submap

import "fmt"

// PointCloud contains 3-D points as parallel arrays. Parallel arrays keep
// the hot filter loop cache-friendly and make the wire conversion a straight
// copy of three slices.
type PointCloud struct {
	X []float32
	Y []float32
	Z []float32
}

// NewPointCloud creates an empty cloud with the given capacity hint.
func NewPointCloud(capacity int) *PointCloud {
	return &PointCloud{
		X: make([]float32, 0, capacity),
		Y: make([]float32, 0, capacity),
		Z: make([]float32, 0, capacity),
	}
}

// Len returns the number of points in the cloud.
func (pc *PointCloud) Len() int {
	if pc == nil {
		return 0
	}
	return len(pc.X)
}

// Append adds a single point to the cloud.
func (pc *PointCloud) Append(x, y, z float32) {
	pc.X = append(pc.X, x)
	pc.Y = append(pc.Y, y)
	pc.Z = append(pc.Z, z)
}

// AppendCloud appends every point of other to the cloud.
func (pc *PointCloud) AppendCloud(other *PointCloud) {
	if other == nil {
		return
	}
	pc.X = append(pc.X, other.X...)
	pc.Y = append(pc.Y, other.Y...)
	pc.Z = append(pc.Z, other.Z...)
}

// Clone returns a deep copy of the cloud.
func (pc *PointCloud) Clone() *PointCloud {
	out := NewPointCloud(pc.Len())
	out.AppendCloud(pc)
	return out
}

// Submap is one spatially localized chunk of the map: a point cloud plus
// the rigid-body pose it was acquired at.
type Submap struct {
	ID    int
	Pose  Pose
	Cloud *PointCloud
}

// Collection is an ordered sequence of submaps. Insertion order is loading
// order; loaders never reindex beyond that.
type Collection []Submap

// PointCount returns the total number of points across all submaps.
func (c Collection) PointCount() int {
	total := 0
	for i := range c {
		total += c[i].Cloud.Len()
	}
	return total
}

// Validate checks the collection invariant: every submap carries a non-nil
// point cloud. An empty cloud is fine; an absent one is not.
func (c Collection) Validate() error {
	for i := range c {
		if c[i].Cloud == nil {
			return &InvariantError{SubmapID: c[i].ID}
		}
	}
	return nil
}

// InvariantError reports a submap without a point cloud.
type InvariantError struct {
	SubmapID int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("submap %d has no point cloud", e.SubmapID)
}
