package submap

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const poseTol = 1e-9

func vecNear(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestIdentityPoseApply(t *testing.T) {
	p := IdentityPose()
	v := r3.Vec{X: 1, Y: 2, Z: 3}

	if got := p.Apply(v); !vecNear(got, v, poseTol) {
		t.Errorf("identity pose moved point: %v", got)
	}
}

func TestPoseTranslation(t *testing.T) {
	p := NewPose(r3.Vec{X: 10, Y: -5, Z: 2}, 0)

	got := p.Apply(r3.Vec{X: 1, Y: 1, Z: 1})
	want := r3.Vec{X: 11, Y: -4, Z: 3}
	if !vecNear(got, want, poseTol) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPoseYawRotation(t *testing.T) {
	// 90 degrees around Z maps +X onto +Y.
	p := NewPose(r3.Vec{}, math.Pi/2)

	got := p.Apply(r3.Vec{X: 1})
	want := r3.Vec{Y: 1}
	if !vecNear(got, want, poseTol) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if yaw := p.Yaw(); math.Abs(yaw-math.Pi/2) > poseTol {
		t.Errorf("expected yaw pi/2, got %v", yaw)
	}
}

func TestTransformCloud(t *testing.T) {
	p := NewPose(r3.Vec{X: 1}, math.Pi)

	pc := NewPointCloud(2)
	pc.Append(1, 0, 0)
	pc.Append(0, 2, 5)

	out := p.TransformCloud(pc)

	if out.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", out.Len())
	}
	// (1,0,0) rotated pi around Z is (-1,0,0), translated -> (0,0,0).
	if math.Abs(float64(out.X[0])) > 1e-6 || math.Abs(float64(out.Y[0])) > 1e-6 {
		t.Errorf("unexpected first point (%v, %v, %v)", out.X[0], out.Y[0], out.Z[0])
	}
	// (0,2,5) rotated pi around Z is (0,-2,5), translated -> (1,-2,5).
	if math.Abs(float64(out.X[1])-1) > 1e-6 || math.Abs(float64(out.Y[1])+2) > 1e-6 || math.Abs(float64(out.Z[1])-5) > 1e-6 {
		t.Errorf("unexpected second point (%v, %v, %v)", out.X[1], out.Y[1], out.Z[1])
	}
}

func TestCollectionValidate(t *testing.T) {
	good := Collection{
		{ID: 0, Cloud: NewPointCloud(0)},
		{ID: 1, Cloud: NewPointCloud(0)},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error for valid collection: %v", err)
	}

	bad := Collection{{ID: 3, Cloud: nil}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for submap without cloud")
	}
}
