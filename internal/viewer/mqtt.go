package viewer

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/auvlib/mapstream/internal/monitoring"
)

// MQTTSink forwards broadcast frames to an MQTT topic at QoS 0. Publish
// failures are counted and dropped, never propagated: the broker link is
// best-effort, like every other consumer.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink connects to the broker and returns a sink publishing to topic.
func NewMQTTSink(broker, topic string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("mapstream-" + uuid.NewString()[:8]).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}

	monitoring.Logf("connected to MQTT broker %s, publishing to %s", broker, topic)
	return &MQTTSink{client: client, topic: topic}, nil
}

// Run consumes frames from the subscription channel until ctx is cancelled.
func (s *MQTTSink) Run(ctx context.Context, frames <-chan *OutputFrame) error {
	defer s.client.Disconnect(250)

	dropped := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				monitoring.Logf("mqtt frame marshal error: %v", err)
				continue
			}
			token := s.client.Publish(s.topic, 0, false, payload)
			if token.Wait() && token.Error() != nil {
				dropped++
				// Log every 100th failure to avoid spamming the log.
				if dropped%100 == 1 {
					monitoring.Logf("mqtt publish dropped %d frames (latest: %v)", dropped, token.Error())
				}
			}
		}
	}
}
