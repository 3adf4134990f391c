package stream

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the application's YAML configuration.
type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		ClientID string `yaml:"clientId"`
		Topics   struct {
			Stream string `yaml:"stream"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Animation struct {
		Document  string  `yaml:"document"`
		Database  string  `yaml:"database"`
		FrameRate float64 `yaml:"frameRate"`
		LoopStart float64 `yaml:"loopStart"`
		LoopEnd   float64 `yaml:"loopEnd"`
	} `yaml:"animation"`
	LogLevel string `yaml:"logLevel"`
}

// ReadConfig reads the YAML file at path and fills in defaults.
func ReadConfig(path string) (Config, error) {
	var c Config

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	c.applyDefaults()

	if c.Animation.LoopEnd < c.Animation.LoopStart {
		return c, fmt.Errorf("config: loopEnd %v is before loopStart %v", c.Animation.LoopEnd, c.Animation.LoopStart)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Mqtt.ClientID == "" {
		c.Mqtt.ClientID = "ledanim"
	}
	if c.Mqtt.Topics.Stream == "" {
		c.Mqtt.Topics.Stream = "home/xmastree/stream"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if c.Animation.Document == "" {
		c.Animation.Document = "scene.yaml"
	}
	if c.Animation.FrameRate <= 0 {
		c.Animation.FrameRate = 30
	}
	if c.Animation.LoopStart == 0 && c.Animation.LoopEnd == 0 {
		c.Animation.LoopStart = 1
		c.Animation.LoopEnd = 250
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
