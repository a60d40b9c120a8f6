// Package config loads the daemon configuration from an optional YAML file.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Capture source kinds.
const (
	SourceGPIO   = "gpio"
	SourceSerial = "serial"
	SourceReplay = "replay"
)

// Payload encodings for published readings.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Config is the complete daemon configuration.
type Config struct {
	Source    string        `yaml:"source"`
	GPIO      GPIO          `yaml:"gpio"`
	Serial    Serial        `yaml:"serial"`
	Replay    Replay        `yaml:"replay"`
	Decode    Decode        `yaml:"decode"`
	MQTT      MQTT          `yaml:"mqtt"`
	HTTPAddr  string        `yaml:"http_addr"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	Debug     bool          `yaml:"debug"`
}

// GPIO configures edge capture from a receiver's data pin.
type GPIO struct {
	Chip      string        `yaml:"chip"`
	Pin       int           `yaml:"pin"`
	SyncGap   time.Duration `yaml:"sync_gap"`
	MinPulses int           `yaml:"min_pulses"`
	MaxPulses int           `yaml:"max_pulses"`
	// RepeatWindow drops a capture identical to one decoded this recently.
	RepeatWindow time.Duration `yaml:"repeat_window"`
}

// Serial configures an RFLink-compatible receiver on a serial port.
type Serial struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Replay reads RFLink debug lines from a file.
type Replay struct {
	File string `yaml:"file"`
}

// Decode configures the protocol decoders.
type Decode struct {
	SuppressWindow time.Duration `yaml:"suppress_window"`
	// Protocols limits decoding to the named protocols; empty means all.
	Protocols []string `yaml:"protocols"`
}

// MQTT configures the broker connection.
type MQTT struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	Encoding   string `yaml:"encoding"`
	BufferSize int    `yaml:"buffer_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceGPIO,
		GPIO: GPIO{
			Chip:         "gpiochip0",
			Pin:          27,
			SyncGap:      5 * time.Millisecond,
			MinPulses:    60,
			MaxPulses:    200,
			RepeatWindow: time.Second,
		},
		Serial: Serial{
			Device: "/dev/ttyUSB0",
			Baud:   57600,
		},
		Decode: Decode{
			SuppressWindow: 500 * time.Millisecond,
		},
		MQTT: MQTT{
			Broker:     "tcp://localhost:1883",
			Encoding:   EncodingJSON,
			BufferSize: 1000,
		},
		HTTPAddr:  ":8080",
		Heartbeat: 15 * time.Minute,
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg and validates it. Keys absent from data keep
// their current values; unknown keys are an error.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source {
	case SourceGPIO:
		if c.GPIO.Pin < 0 {
			errs = append(errs, fmt.Errorf("gpio.pin must not be negative: %d", c.GPIO.Pin))
		}
		if c.GPIO.SyncGap <= 0 {
			errs = append(errs, errors.New("gpio.sync_gap must be positive"))
		}
		if c.GPIO.MinPulses < 2 || c.GPIO.MaxPulses < c.GPIO.MinPulses {
			errs = append(errs, fmt.Errorf("gpio pulse range invalid: %d..%d", c.GPIO.MinPulses, c.GPIO.MaxPulses))
		}
	case SourceSerial:
		if c.Serial.Device == "" {
			errs = append(errs, errors.New("serial.device is required"))
		}
		if c.Serial.Baud <= 0 {
			errs = append(errs, fmt.Errorf("serial.baud must be positive: %d", c.Serial.Baud))
		}
	case SourceReplay:
		if c.Replay.File == "" {
			errs = append(errs, errors.New("replay.file is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}

	if c.Decode.SuppressWindow < 0 {
		errs = append(errs, errors.New("decode.suppress_window must not be negative"))
	}
	if c.MQTT.Encoding != EncodingJSON && c.MQTT.Encoding != EncodingMsgpack {
		errs = append(errs, fmt.Errorf("unknown mqtt.encoding %q", c.MQTT.Encoding))
	}
	if c.MQTT.BufferSize < 0 {
		errs = append(errs, errors.New("mqtt.buffer_size must not be negative"))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, errors.New("heartbeat must not be negative"))
	}

	return errors.Join(errs...)
}
