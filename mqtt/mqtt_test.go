package mqtt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNew_DisabledWithoutHost(t *testing.T) {
	c, err := New(Config{}, "coop1", Handlers{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.IsEnabled() {
		t.Error("IsEnabled() = true without host")
	}
	if err := c.Connect(); err != nil {
		t.Errorf("Connect() error = %v", err)
	}
	if err := c.Publish("coopdoor/coop1/state", []byte("{}"), 1, true); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	c.Disconnect()
}

func TestNew_EnabledNotConnected(t *testing.T) {
	c, err := New(Config{Host: "127.0.0.1", Port: 1}, "coop1", Handlers{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !c.IsEnabled() {
		t.Fatal("IsEnabled() = false with host")
	}

	if err := c.Publish("t", nil, 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() qos 3 error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("t", nil, 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestBuildTLSConfig(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"no files", Config{}, false},
		{"missing CA", Config{CACert: filepath.Join(dir, "missing.pem")}, true},
		{"CA without certificates", Config{CACert: garbage}, true},
		{"missing client key pair", Config{ClientCert: garbage, ClientKey: garbage}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := buildTLSConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildTLSConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.MinVersion == 0 {
				t.Error("MinVersion not set")
			}
		})
	}
}

func TestNew_BadTLS(t *testing.T) {
	_, err := New(Config{Host: "broker", CACert: "/nonexistent/ca.pem"}, "coop1", Handlers{}, zaptest.NewLogger(t))
	if err == nil {
		t.Error("New() expected error for unreadable CA cert")
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{CommandTopic("coop1"), "coopdoor/coop1/command"},
		{AvailabilityTopic("coop1"), "coopdoor/coop1/availability"},
		{Topic("coop1", "state"), "coopdoor/coop1/state"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

type fakeMessage struct {
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "coopdoor/coop1/command" }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestHandleMessage_ForwardsCommand(t *testing.T) {
	var got []string
	c, _ := New(Config{}, "coop1", Handlers{OnCommand: func(line string) { got = append(got, line) }}, zaptest.NewLogger(t))

	c.handleMessage(nil, fakeMessage{payload: []byte("halt")})

	if len(got) != 1 || got[0] != "halt" {
		t.Errorf("commands = %v, want [halt]", got)
	}
}
