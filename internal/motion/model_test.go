package motion

import (
	"math"
	"testing"
	"time"

	"github.com/auvlib/mapstream/internal/submap"
)

func TestStepStraightLine(t *testing.T) {
	m := NewModel(submap.IdentityPose())
	m.SetCommand(Command{SurgeVelocity: 2})

	var odom Odometry
	var err error
	for i := 0; i < 10; i++ {
		odom, err = m.Step(100 * time.Millisecond)
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}

	// 2 m/s for 1 s along +X.
	if math.Abs(odom.X-2) > 1e-9 {
		t.Errorf("expected x=2, got %v", odom.X)
	}
	if math.Abs(odom.Y) > 1e-9 || math.Abs(odom.Z) > 1e-9 {
		t.Errorf("expected motion only along x, got y=%v z=%v", odom.Y, odom.Z)
	}
	if odom.FrameID != "map" || odom.ChildFrameID != "base_link" {
		t.Errorf("unexpected frame labels: %s/%s", odom.FrameID, odom.ChildFrameID)
	}
}

func TestStepHeave(t *testing.T) {
	m := NewModel(submap.IdentityPose())
	m.SetCommand(Command{HeaveVelocity: -0.5})

	odom, err := m.Step(2 * time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(odom.Z+1) > 1e-9 {
		t.Errorf("expected z=-1 after diving, got %v", odom.Z)
	}
}

func TestStepYawTurnsHeading(t *testing.T) {
	m := NewModel(submap.IdentityPose())
	// Quarter turn in one step, then drive forward.
	m.SetCommand(Command{YawRate: math.Pi / 2})
	if _, err := m.Step(time.Second); err != nil {
		t.Fatal(err)
	}

	m.SetCommand(Command{SurgeVelocity: 1})
	odom, err := m.Step(time.Second)
	if err != nil {
		t.Fatal(err)
	}

	// After a 90 degree yaw, surge moves the vehicle along +Y.
	if math.Abs(odom.X) > 1e-6 || math.Abs(odom.Y-1) > 1e-6 {
		t.Errorf("expected motion along +Y, got x=%v y=%v", odom.X, odom.Y)
	}
	if yaw := m.Pose().Yaw(); math.Abs(yaw-math.Pi/2) > 1e-9 {
		t.Errorf("expected yaw pi/2, got %v", yaw)
	}
}

func TestStepRejectsNonPositiveDt(t *testing.T) {
	m := NewModel(submap.IdentityPose())

	if _, err := m.Step(0); err == nil {
		t.Error("expected error for zero dt")
	}
	if _, err := m.Step(-time.Second); err == nil {
		t.Error("expected error for negative dt")
	}
}
