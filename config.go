package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"coopdoor/command"
	"coopdoor/indicator"
	"coopdoor/logging"
	"coopdoor/motor"
	"coopdoor/mqtt"
	"coopdoor/schedule"
	"coopdoor/sensor"
	"coopdoor/telemetry"
)

// Config is the main configuration structure for coopdoor.
type Config struct {
	// ClientID names this door in MQTT topics and telemetry tags.
	ClientID string `yaml:"client_id"`

	Logging  logging.Config  `yaml:"logging"`
	Location LocationConfig  `yaml:"location"`
	Schedule schedule.Config `yaml:"schedule"`
	Door     DoorConfig      `yaml:"door"`

	Motor     motor.Config     `yaml:"motor"`
	Indicator indicator.Config `yaml:"indicator"`
	Sensor    sensor.Config    `yaml:"sensor"`

	Command  CommandConfig    `yaml:"command"`
	MQTT     mqtt.Config      `yaml:"mqtt"`
	InfluxDB telemetry.Config `yaml:"influxdb"`
}

// LocationConfig places the coop for sunrise and sunset.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`
}

// DoorConfig holds motion timing.
type DoorConfig struct {
	SettleDelay  time.Duration `yaml:"settle_delay"`  // extra run after the bottom switch
	PollInterval time.Duration `yaml:"poll_interval"` // limit switch and watchdog poll
	MaxRun       time.Duration `yaml:"max_run"`       // longest plausible travel
	ManualMax    time.Duration `yaml:"manual_max"`    // manual mode reverts to auto after this
}

// CommandConfig selects the remote command sources. An empty Listen disables
// the TCP server.
type CommandConfig struct {
	Listen   string               `yaml:"listen"`
	MaxConns int                  `yaml:"max_conns"`
	Pipe     string               `yaml:"pipe"`
	Serial   command.SerialConfig `yaml:"serial"`
}

func pin(n int) *int {
	return &n
}

func defaultConfig() *Config {
	return &Config{
		ClientID: "coopdoor",
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Location: LocationConfig{
			Latitude:  42.3601,
			Longitude: -71.0589,
			Timezone:  "America/New_York",
		},
		Schedule: schedule.Config{
			SunriseDelay:      0,
			SunsetDelay:       30 * time.Minute,
			SecondChanceDelay: 10 * time.Minute,
			Interval:          time.Second,
		},
		Door: DoorConfig{
			SettleDelay:  time.Second,
			PollInterval: 10 * time.Millisecond,
			MaxRun:       60 * time.Second,
			ManualMax:    30 * time.Minute,
		},
		Motor: motor.Config{
			Type:      "gpiocdev",
			EnablePin: pin(18),
			UpPin:     pin(12),
			DownPin:   pin(16),
		},
		Sensor: sensor.Config{
			Type:           "gpiocdev",
			TopPin:         pin(20),
			BottomPin:      pin(21),
			UpButtonPin:    pin(13),
			DownButtonPin:  pin(19),
			ButtonDebounce: 200 * time.Millisecond,
		},
		Command: CommandConfig{
			Listen:   "localhost:55567",
			MaxConns: 2,
		},
	}
}

// LoadConfig reads path over the defaults, applies COOPDOOR_* environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"COOPDOOR_CLIENT_ID", &cfg.ClientID},
		{"COOPDOOR_LOG_LEVEL", &cfg.Logging.Level},
		{"COOPDOOR_COMMAND_LISTEN", &cfg.Command.Listen},
		{"COOPDOOR_MQTT_HOST", &cfg.MQTT.Host},
		{"COOPDOOR_MQTT_USERNAME", &cfg.MQTT.Username},
		{"COOPDOOR_MQTT_PASSWORD", &cfg.MQTT.Password},
		{"COOPDOOR_INFLUXDB_URL", &cfg.InfluxDB.URL},
		{"COOPDOOR_INFLUXDB_TOKEN", &cfg.InfluxDB.Token},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks the configuration for values the door cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.ClientID == "" {
		errs = append(errs, errors.New("client_id is required"))
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		errs = append(errs, fmt.Errorf("location.latitude %v out of range", c.Location.Latitude))
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		errs = append(errs, fmt.Errorf("location.longitude %v out of range", c.Location.Longitude))
	}
	if _, err := time.LoadLocation(c.Location.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("location.timezone: %w", err))
	}

	positive := []struct {
		name string
		d    time.Duration
	}{
		{"schedule.interval", c.Schedule.Interval},
		{"door.poll_interval", c.Door.PollInterval},
		{"door.max_run", c.Door.MaxRun},
		{"door.manual_max", c.Door.ManualMax},
	}
	for _, p := range positive {
		if p.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", p.name))
		}
	}
	if c.Door.SettleDelay < 0 || c.Schedule.SecondChanceDelay < 0 {
		errs = append(errs, errors.New("door.settle_delay and schedule.second_chance_delay must not be negative"))
	}
	if c.Door.SettleDelay >= c.Door.MaxRun {
		errs = append(errs, errors.New("door.settle_delay must be shorter than door.max_run"))
	}

	if c.Command.Listen != "" && c.Command.MaxConns < 1 {
		errs = append(errs, errors.New("command.max_conns must be at least 1"))
	}

	return errors.Join(errs...)
}

// TimeLocation returns the configured timezone. Call after Validate.
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
