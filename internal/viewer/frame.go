// Package viewer assembles publishable point-cloud frames from the submap
// collection and streams them to live consumers.
package viewer

import (
	"time"

	"github.com/auvlib/mapstream/internal/submap"
)

// OutputFrame is the wire point-cloud message: one merged cloud tagged with
// the coordinate frame it is expressed in. Rebuilt in full by the
// assembler, never partially updated.
type OutputFrame struct {
	FrameID        uint64    `json:"frame_id"`
	FrameLabel     string    `json:"frame_label"`
	TimestampNanos int64     `json:"timestamp_ns"`
	SubmapCount    int       `json:"submap_count"`
	PointCount     int       `json:"point_count"`
	X              []float32 `json:"x"`
	Y              []float32 `json:"y"`
	Z              []float32 `json:"z"`
}

// Assembler produces one OutputFrame from the current submap collection:
// every submap is downsampled in place, then the filtered clouds are
// concatenated into a single buffer.
type Assembler struct {
	sampler    *submap.UniformSampler
	frameLabel string
	nextFrame  uint64
}

// NewAssembler creates an Assembler stamping frames with the given label.
func NewAssembler(sampler *submap.UniformSampler, frameLabel string) *Assembler {
	return &Assembler{sampler: sampler, frameLabel: frameLabel}
}

// Assemble filters all submaps and merges them into one frame. The merge
// covers the whole collection: the frame holds the union of the filtered
// submaps, in collection order. Conversion does not validate geometry;
// NaN or Inf coordinates pass through unchanged.
func (a *Assembler) Assemble(maps submap.Collection) *OutputFrame {
	a.sampler.FilterCollection(maps)

	merged := submap.NewPointCloud(maps.PointCount())
	for i := range maps {
		merged.AppendCloud(maps[i].Cloud)
	}

	a.nextFrame++
	return &OutputFrame{
		FrameID:        a.nextFrame,
		FrameLabel:     a.frameLabel,
		TimestampNanos: time.Now().UnixNano(),
		SubmapCount:    len(maps),
		PointCount:     merged.Len(),
		X:              merged.X,
		Y:              merged.Y,
		Z:              merged.Z,
	}
}
