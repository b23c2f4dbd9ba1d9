// Package motion implements the time-stepped vehicle motion model: a
// kinematic AUV driven by body-frame velocity commands, stepped once per
// simulation period.
package motion

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/auvlib/mapstream/internal/submap"
)

// Command is the body-frame velocity setpoint: forward and vertical speed
// plus a yaw rate.
type Command struct {
	SurgeVelocity float64 `json:"surge_velocity"` // m/s along the body X axis
	HeaveVelocity float64 `json:"heave_velocity"` // m/s along the body Z axis
	YawRate       float64 `json:"yaw_rate"`       // rad/s around the body Z axis
}

// Odometry is the published vehicle state after one step.
type Odometry struct {
	FrameID        string  `json:"frame_id"`
	ChildFrameID   string  `json:"child_frame_id"`
	TimestampNanos int64   `json:"timestamp_ns"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z"`
	QW             float64 `json:"qw"`
	QX             float64 `json:"qx"`
	QY             float64 `json:"qy"`
	QZ             float64 `json:"qz"`
	Cmd            Command `json:"cmd"`
}

// Model integrates the vehicle pose under the current command. Not safe
// for concurrent use; the node steps it from a single timer loop.
type Model struct {
	pose submap.Pose
	cmd  Command
}

// NewModel creates a model starting at the given pose.
func NewModel(start submap.Pose) *Model {
	return &Model{pose: start}
}

// SetCommand installs the velocity setpoint used by subsequent steps.
func (m *Model) SetCommand(cmd Command) {
	m.cmd = cmd
}

// Pose returns the current vehicle pose.
func (m *Model) Pose() submap.Pose {
	return m.pose
}

// Step advances the model by dt: the heading integrates the yaw rate and
// the body-frame velocity is rotated into the map frame and integrated
// into the position. Returns the resulting odometry stamped at now.
func (m *Model) Step(dt time.Duration) (Odometry, error) {
	secs := dt.Seconds()
	if secs <= 0 {
		return Odometry{}, fmt.Errorf("motion step wants a positive dt, got %v", dt)
	}

	// Yaw first so the translation uses the updated heading, matching a
	// forward Euler step on the composed state.
	m.pose.Rotation = quat.Mul(m.pose.Rotation, submap.RotationZ(m.cmd.YawRate*secs))

	bodyVel := r3.Vec{X: m.cmd.SurgeVelocity, Z: m.cmd.HeaveVelocity}
	worldVel := m.pose.Rotate(bodyVel)
	m.pose.Translation = r3.Add(m.pose.Translation, r3.Scale(secs, worldVel))

	q := m.pose.Rotation
	return Odometry{
		FrameID:        "map",
		ChildFrameID:   "base_link",
		TimestampNanos: time.Now().UnixNano(),
		X:              m.pose.Translation.X,
		Y:              m.pose.Translation.Y,
		Z:              m.pose.Translation.Z,
		QW:             q.Real,
		QX:             q.Imag,
		QY:             q.Jmag,
		QZ:             q.Kmag,
		Cmd:            m.cmd,
	}, nil
}
