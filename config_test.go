package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coopdoor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "client_id: coop1\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ClientID != "coop1" {
		t.Errorf("ClientID = %q, want coop1", cfg.ClientID)
	}
	if cfg.Command.Listen != "localhost:55567" || cfg.Command.MaxConns != 2 {
		t.Errorf("Command = %+v, want localhost:55567 with 2 conns", cfg.Command)
	}
	if cfg.Door.PollInterval != 10*time.Millisecond || cfg.Door.SettleDelay != time.Second {
		t.Errorf("Door = %+v, want 10ms poll and 1s settle", cfg.Door)
	}
	if *cfg.Motor.EnablePin != 18 || *cfg.Motor.UpPin != 12 || *cfg.Motor.DownPin != 16 {
		t.Error("motor pins should default to 18/12/16")
	}
	if *cfg.Sensor.TopPin != 20 || *cfg.Sensor.BottomPin != 21 {
		t.Error("limit pins should default to 20/21")
	}
	if cfg.Sensor.ButtonDebounce != 200*time.Millisecond {
		t.Errorf("ButtonDebounce = %v, want 200ms", cfg.Sensor.ButtonDebounce)
	}
}

func TestLoadConfig_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
client_id: henhouse
location:
  latitude: 51.5
  longitude: -0.12
  timezone: Europe/London
schedule:
  sunset_delay: 45m
  second_chance_delay: 5m
door:
  max_run: 90s
motor:
  type: bcm
  up_pin: 5
command:
  listen: ":6000"
  pipe: /run/coopdoor.cmd
  serial:
    device: /dev/ttyUSB0
    baud: 19200
mqtt:
  host: broker.local
influxdb:
  url: http://influx:8086
  flush_interval: 30s
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Schedule.SunsetDelay != 45*time.Minute || cfg.Schedule.SecondChanceDelay != 5*time.Minute {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Schedule.Interval != time.Second {
		t.Errorf("Schedule.Interval = %v, want default 1s", cfg.Schedule.Interval)
	}
	if cfg.Door.MaxRun != 90*time.Second {
		t.Errorf("MaxRun = %v, want 90s", cfg.Door.MaxRun)
	}
	if cfg.Motor.Type != "bcm" || *cfg.Motor.UpPin != 5 || *cfg.Motor.EnablePin != 18 {
		t.Errorf("Motor = type %q up %d enable %d", cfg.Motor.Type, *cfg.Motor.UpPin, *cfg.Motor.EnablePin)
	}
	if cfg.Command.Serial.Device != "/dev/ttyUSB0" || cfg.Command.Serial.Baud != 19200 {
		t.Errorf("Serial = %+v", cfg.Command.Serial)
	}
	if cfg.InfluxDB.FlushInterval != 30*time.Second {
		t.Errorf("FlushInterval = %v, want 30s", cfg.InfluxDB.FlushInterval)
	}
	if got := cfg.TimeLocation().String(); got != "Europe/London" {
		t.Errorf("TimeLocation() = %v, want Europe/London", got)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COOPDOOR_CLIENT_ID", "from-env")
	t.Setenv("COOPDOOR_MQTT_HOST", "mqtt.env")
	t.Setenv("COOPDOOR_INFLUXDB_TOKEN", "secret")

	cfg, err := LoadConfig(writeConfig(t, "client_id: from-file\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ClientID != "from-env" {
		t.Errorf("ClientID = %q, want from-env", cfg.ClientID)
	}
	if cfg.MQTT.Host != "mqtt.env" {
		t.Errorf("MQTT.Host = %q, want mqtt.env", cfg.MQTT.Host)
	}
	if cfg.InfluxDB.Token != "secret" {
		t.Errorf("InfluxDB.Token = %q, want secret", cfg.InfluxDB.Token)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "client_id: [unclosed\n")); err == nil {
		t.Error("LoadConfig() expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing client id", func(c *Config) { c.ClientID = "" }, "client_id"},
		{"latitude", func(c *Config) { c.Location.Latitude = 91 }, "latitude"},
		{"longitude", func(c *Config) { c.Location.Longitude = -181 }, "longitude"},
		{"timezone", func(c *Config) { c.Location.Timezone = "Mars/Olympus" }, "timezone"},
		{"zero poll", func(c *Config) { c.Door.PollInterval = 0 }, "door.poll_interval"},
		{"zero max run", func(c *Config) { c.Door.MaxRun = 0 }, "door.max_run"},
		{"zero manual max", func(c *Config) { c.Door.ManualMax = 0 }, "door.manual_max"},
		{"negative manual max", func(c *Config) { c.Door.ManualMax = -time.Minute }, "door.manual_max"},
		{"negative settle", func(c *Config) { c.Door.SettleDelay = -time.Second }, "must not be negative"},
		{"settle beyond max run", func(c *Config) { c.Door.SettleDelay = 2 * time.Minute }, "shorter than"},
		{"no conns", func(c *Config) { c.Command.MaxConns = 0 }, "max_conns"},
		{"no conns without server", func(c *Config) { c.Command.MaxConns = 0; c.Command.Listen = "" }, ""},
		{"negative sunrise delay allowed", func(c *Config) { c.Schedule.SunriseDelay = -20 * time.Minute }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
