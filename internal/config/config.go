package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig      `yaml:"server"`
	Timing  TimingConfig      `yaml:"timing"`
	GPIO    GPIOConfig        `yaml:"gpio"`
	Sensor  SensorConfig      `yaml:"sensor"`
	Speech  SpeechConfig      `yaml:"speech"`
	Devices map[string]string `yaml:"devices"` // device id -> role
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	HTTPPort int    `yaml:"http_port"`
	UDPPort  int    `yaml:"udp_port"`
	WebDir   string `yaml:"web_dir"`
}

type TimingConfig struct {
	StartSplit   string `yaml:"start_split"`
	IdleTimeoutS int    `yaml:"idle_timeout_s"`
	HistorySize  int    `yaml:"history_size"`
	StaleAfterS  int    `yaml:"stale_after_s"`
	QueueSize    int    `yaml:"queue_size"`
}

func (t TimingConfig) IdleTimeout() time.Duration {
	return time.Duration(t.IdleTimeoutS) * time.Second
}

func (t TimingConfig) StaleAfter() time.Duration {
	return time.Duration(t.StaleAfterS) * time.Second
}

// GPIOConfig describes the break-beam line wired to this node. A zero
// SensorPin means the node has no local sensor (network triggers only).
type GPIOConfig struct {
	Chip       string `yaml:"chip"`
	SensorPin  int    `yaml:"sensor_pin"`
	ArmPin     int    `yaml:"arm_pin"`
	DebounceMS int    `yaml:"debounce_ms"`
	DeviceID   string `yaml:"device_id"`
}

func (g GPIOConfig) Debounce() time.Duration {
	return time.Duration(g.DebounceMS) * time.Millisecond
}

// SensorConfig is used by the remote sensor daemon: its identity and where
// to send triggers.
type SensorConfig struct {
	DeviceID   string `yaml:"device_id"`
	ServerHost string `yaml:"server_host"`
	ServerPort int    `yaml:"server_port"`
}

type SpeechConfig struct {
	Enabled bool   `yaml:"enabled"`
	Command string `yaml:"command"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// yaml merges maps into the target, so the default device table can't
	// live in Default(): a configured devices section must replace it, not
	// pick up phantom entries from it.
	if len(cfg.Devices) == 0 {
		cfg.Devices = DefaultDevices()
	}

	if _, ok := roleForID(cfg.Devices, cfg.Timing.StartSplit); !ok {
		return nil, fmt.Errorf("start_split %q is not a configured device role", cfg.Timing.StartSplit)
	}

	return cfg, nil
}

// roleForID reports whether any configured device feeds the given role.
func roleForID(devices map[string]string, role string) (string, bool) {
	for id, r := range devices {
		if r == role {
			return id, true
		}
	}
	return "", false
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8080,
			UDPPort:  5000,
		},
		Timing: TimingConfig{
			StartSplit:   "tee",
			IdleTimeoutS: 120,
			HistorySize:  100,
			StaleAfterS:  300,
			QueueSize:    64,
		},
		GPIO: GPIOConfig{
			Chip:       "gpiochip0",
			DebounceMS: 50,
			DeviceID:   "hog_close",
		},
		Sensor: SensorConfig{
			DeviceID:   "tee",
			ServerHost: "192.168.50.1",
			ServerPort: 5000,
		},
		Speech: SpeechConfig{
			Command: "/opt/piper/speak.sh",
		},
	}
}

// DefaultDevices is the stock four-sensor sheet layout, used when the config
// file has no devices section of its own.
func DefaultDevices() map[string]string {
	return map[string]string{
		"tee":       "tee",
		"hog_close": "hog_close",
		"hog_far":   "hog_far",
		"arm":       "arm",
	}
}
