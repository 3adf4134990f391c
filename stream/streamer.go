package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
)

// Streamer that streams RGB data frames to an ledrx device.
type Streamer struct {
	client    mqtt.Client
	topic     string
	animation Animation
	interval  time.Duration
	logger    *slog.Logger
}

// NewStreamer creates an instance of a Streamer publishing at the configured frame rate.
func NewStreamer(config Config, client mqtt.Client, animation Animation, logger *slog.Logger) *Streamer {
	s := new(Streamer)
	s.client = client
	s.topic = config.Mqtt.Topics.Stream
	s.animation = animation
	s.interval = time.Duration(float64(time.Second) / config.Animation.FrameRate)
	s.logger = logger.With("component", "streamer")
	return s
}

// SendFrame sends the frame for runtimeMs as binary over MQTT to an ledrx device.
func (s *Streamer) SendFrame(runtimeMs int64) error {
	f := s.animation.CalculateFrame(runtimeMs)
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	token := s.client.Publish(s.topic, 0, false, b)
	token.Wait()
	return token.Error()
}

// Run causes the Streamer to send Frames until ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) error {
	publishTimer := time.NewTicker(s.interval)
	defer publishTimer.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-publishTimer.C:
			if err := s.SendFrame(now.Sub(start).Milliseconds()); err != nil {
				s.logger.Warn("failed to publish frame", "topic", s.topic, "error", err)
			}
		}
	}
}
