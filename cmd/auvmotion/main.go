// Command auvmotion runs a simple kinematic AUV simulator: a timer loop
// steps the motion model under a fixed body-frame velocity command and
// publishes the resulting odometry as JSON, over MQTT when a broker is
// configured or to the log otherwise.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/auvlib/mapstream/internal/config"
	"github.com/auvlib/mapstream/internal/motion"
	"github.com/auvlib/mapstream/internal/submap"
)

var (
	tuningPath = flag.String("tuning", "", "Optional JSON tuning file")
	simFreq    = flag.Float64("sim-freq", 0, "Simulation step frequency in Hz (0 uses the tuning sim_freq_hz, default 1)")
	surge      = flag.Float64("surge", 1.0, "Forward velocity command in m/s")
	heave      = flag.Float64("heave", 0.0, "Vertical velocity command in m/s")
	yawRate    = flag.Float64("yaw-rate", 0.0, "Yaw rate command in rad/s")
	startX     = flag.Float64("start-x", 0, "Initial x position in the map frame")
	startY     = flag.Float64("start-y", 0, "Initial y position in the map frame")
	startZ     = flag.Float64("start-z", 0, "Initial z position in the map frame")
	startYaw   = flag.Float64("start-yaw", 0, "Initial heading in radians")
	mqttBroker = flag.String("mqtt-broker", "", "MQTT broker URL (empty logs odometry instead)")
	mqttTopic  = flag.String("mqtt-topic", "auv/odom", "MQTT topic for odometry messages")
)

func main() {
	flag.Parse()

	tuning := config.EmptyTuning()
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
	}

	period := tuning.GetSimPeriod()
	if *simFreq < 0 {
		log.Fatalf("Simulation frequency must be positive, got %v", *simFreq)
	}
	if *simFreq > 0 {
		period = time.Duration(float64(time.Second) / *simFreq)
	}

	start := submap.NewPose(r3.Vec{X: *startX, Y: *startY, Z: *startZ}, *startYaw)
	model := motion.NewModel(start)
	model.SetCommand(motion.Command{
		SurgeVelocity: *surge,
		HeaveVelocity: *heave,
		YawRate:       *yawRate,
	})

	publish := logOdometry
	if *mqttBroker != "" {
		client, err := connectBroker(*mqttBroker)
		if err != nil {
			log.Fatalf("Failed to connect MQTT broker: %v", err)
		}
		defer client.Disconnect(250)
		publish = mqttOdometry(client, *mqttTopic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Stepping motion model every %v (surge=%v heave=%v yaw-rate=%v)",
		period, *surge, *heave, *yawRate)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Print("Simulator stopped")
			return
		case <-ticker.C:
			odom, err := model.Step(period)
			if err != nil {
				log.Fatalf("Motion step failed: %v", err)
			}
			publish(odom)
		}
	}
}

func connectBroker(broker string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("auvmotion-" + uuid.NewString()[:8]).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

func logOdometry(odom motion.Odometry) {
	log.Printf("odom x=%.3f y=%.3f z=%.3f yaw_qz=%.3f", odom.X, odom.Y, odom.Z, odom.QZ)
}

func mqttOdometry(client mqtt.Client, topic string) func(motion.Odometry) {
	return func(odom motion.Odometry) {
		payload, err := json.Marshal(odom)
		if err != nil {
			log.Printf("odometry marshal error: %v", err)
			return
		}
		// Fire and forget at QoS 0; a stale odometry sample has no value.
		client.Publish(topic, 0, false, payload)
	}
}
