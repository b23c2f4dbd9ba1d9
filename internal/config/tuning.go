// Package config loads the optional JSON tuning file for the pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tuning defaults. The filter radius and publish rate are deliberately not
// CLI flags; they are build/config-time parameters.
const (
	DefaultFilterRadius  = 2.0
	DefaultPublishRateHz = 0.1
	DefaultQueueDepth    = 4
	DefaultFrameID       = "map"
	DefaultListenAddr    = ":8080"
	DefaultMQTTTopic     = "point_cloud_topic"
	DefaultSimFreqHz     = 1.0
)

// Tuning represents the pipeline tuning parameters. Fields are pointers so
// a partial JSON file only overrides what it names; the Get* methods supply
// fallback defaults for everything else.
type Tuning struct {
	// Filter params
	FilterRadius *float64 `json:"filter_radius,omitempty"`

	// Publisher params
	PublishRateHz *float64 `json:"publish_rate_hz,omitempty"`
	QueueDepth    *int     `json:"queue_depth,omitempty"`
	FrameID       *string  `json:"frame_id,omitempty"`

	// Transport params
	ListenAddr *string `json:"listen_addr,omitempty"`
	MQTTBroker *string `json:"mqtt_broker,omitempty"`
	MQTTTopic  *string `json:"mqtt_topic,omitempty"`

	// Motion model params
	SimFreqHz *float64 `json:"sim_freq_hz,omitempty"`
}

// EmptyTuning returns a Tuning with all fields unset.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. Fields omitted from the file
// retain their defaults, so partial configs are safe.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	return cfg, nil
}

// Validate rejects degenerate tuning values. A zero or negative filter
// radius would make the uniform sampler undefined, so it is refused here,
// at startup, before any data is read.
func (t *Tuning) Validate() error {
	if t.FilterRadius != nil && *t.FilterRadius <= 0 {
		return fmt.Errorf("filter_radius must be positive, got %v", *t.FilterRadius)
	}
	if t.PublishRateHz != nil && *t.PublishRateHz <= 0 {
		return fmt.Errorf("publish_rate_hz must be positive, got %v", *t.PublishRateHz)
	}
	if t.QueueDepth != nil && *t.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", *t.QueueDepth)
	}
	if t.SimFreqHz != nil && *t.SimFreqHz <= 0 {
		return fmt.Errorf("sim_freq_hz must be positive, got %v", *t.SimFreqHz)
	}
	return nil
}

// GetFilterRadius returns the uniform sampling radius.
func (t *Tuning) GetFilterRadius() float64 {
	if t.FilterRadius != nil {
		return *t.FilterRadius
	}
	return DefaultFilterRadius
}

// GetPublishPeriod returns the republish period derived from the configured
// rate (0.1 Hz by default, a 10 second period).
func (t *Tuning) GetPublishPeriod() time.Duration {
	rate := DefaultPublishRateHz
	if t.PublishRateHz != nil {
		rate = *t.PublishRateHz
	}
	return time.Duration(float64(time.Second) / rate)
}

// GetQueueDepth returns the publisher queue depth.
func (t *Tuning) GetQueueDepth() int {
	if t.QueueDepth != nil {
		return *t.QueueDepth
	}
	return DefaultQueueDepth
}

// GetFrameID returns the coordinate frame label stamped on output frames.
func (t *Tuning) GetFrameID() string {
	if t.FrameID != nil {
		return *t.FrameID
	}
	return DefaultFrameID
}

// GetListenAddr returns the HTTP/websocket listen address.
func (t *Tuning) GetListenAddr() string {
	if t.ListenAddr != nil {
		return *t.ListenAddr
	}
	return DefaultListenAddr
}

// GetMQTTBroker returns the MQTT broker URL, empty when disabled.
func (t *Tuning) GetMQTTBroker() string {
	if t.MQTTBroker != nil {
		return *t.MQTTBroker
	}
	return ""
}

// GetMQTTTopic returns the MQTT topic frames are published to.
func (t *Tuning) GetMQTTTopic() string {
	if t.MQTTTopic != nil {
		return *t.MQTTTopic
	}
	return DefaultMQTTTopic
}

// GetSimPeriod returns the motion model update period.
func (t *Tuning) GetSimPeriod() time.Duration {
	rate := DefaultSimFreqHz
	if t.SimFreqHz != nil {
		rate = *t.SimFreqHz
	}
	return time.Duration(float64(time.Second) / rate)
}
