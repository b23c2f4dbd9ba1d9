package submap

import (
	"fmt"
	"math"
)

// DefaultFilterRadius is the uniform sampling radius in map distance units.
// Tune for speed/map resolution.
const DefaultFilterRadius = 2.0

// UniformSampler reduces point cloud density with a fixed-radius spatial
// deduplication: space is partitioned into cubic cells of the given radius
// and each occupied cell retains the point closest to the cell centroid.
// Filtering an already-filtered cloud with the same radius changes nothing.
type UniformSampler struct {
	radius float64
}

// NewUniformSampler creates a sampler with the given cell radius.
// A radius of zero or less is degenerate and rejected outright.
func NewUniformSampler(radius float64) (*UniformSampler, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("uniform sampler radius must be positive, got %v", radius)
	}
	return &UniformSampler{radius: radius}, nil
}

// Radius returns the configured cell radius.
func (s *UniformSampler) Radius() float64 { return s.radius }

// Filter downsamples the cloud in place. An empty cloud is a no-op.
//
// Two passes over the points: the first accumulates per-cell centroids,
// the second selects the point nearest each centroid. Retained points keep
// their original relative order, which keeps the result deterministic for
// a given input.
func (s *UniformSampler) Filter(pc *PointCloud) {
	n := pc.Len()
	if n == 0 {
		return
	}

	invCell := 1.0 / s.radius

	type cellAccum struct {
		sumX, sumY, sumZ float64
		count            int
		bestIdx          int
		bestDist2        float64
	}

	cells := make(map[[3]int64]*cellAccum, n/4)

	for i := 0; i < n; i++ {
		x, y, z := float64(pc.X[i]), float64(pc.Y[i]), float64(pc.Z[i])
		key := [3]int64{
			int64(math.Floor(x * invCell)),
			int64(math.Floor(y * invCell)),
			int64(math.Floor(z * invCell)),
		}
		acc, ok := cells[key]
		if !ok {
			acc = &cellAccum{bestIdx: i, bestDist2: math.MaxFloat64}
			cells[key] = acc
		}
		acc.sumX += x
		acc.sumY += y
		acc.sumZ += z
		acc.count++
	}

	for i := 0; i < n; i++ {
		x, y, z := float64(pc.X[i]), float64(pc.Y[i]), float64(pc.Z[i])
		key := [3]int64{
			int64(math.Floor(x * invCell)),
			int64(math.Floor(y * invCell)),
			int64(math.Floor(z * invCell)),
		}
		acc := cells[key]
		cx := acc.sumX / float64(acc.count)
		cy := acc.sumY / float64(acc.count)
		cz := acc.sumZ / float64(acc.count)
		dx, dy, dz := x-cx, y-cy, z-cz
		d2 := dx*dx + dy*dy + dz*dz
		if d2 < acc.bestDist2 {
			acc.bestDist2 = d2
			acc.bestIdx = i
		}
	}

	keep := make(map[int]bool, len(cells))
	for _, acc := range cells {
		keep[acc.bestIdx] = true
	}

	kept := 0
	for i := 0; i < n; i++ {
		if keep[i] {
			pc.X[kept] = pc.X[i]
			pc.Y[kept] = pc.Y[i]
			pc.Z[kept] = pc.Z[i]
			kept++
		}
	}

	pc.X = pc.X[:kept]
	pc.Y = pc.Y[:kept]
	pc.Z = pc.Z[:kept]
}

// FilterCollection downsamples every submap's cloud in place, each submap
// independently. No cross-submap deduplication: overlapping points in
// different submaps are both retained.
func (s *UniformSampler) FilterCollection(maps Collection) {
	for i := range maps {
		s.Filter(maps[i].Cloud)
	}
}
