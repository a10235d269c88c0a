package main

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestRun_BenchWithoutHardware(t *testing.T) {
	path := writeConfig(t, `
client_id: bench
logging:
  level: error
motor:
  type: none
sensor:
  type: none
command:
  listen: "127.0.0.1:0"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := run(ctx, path); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestRun_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	path := writeConfig(t, `
client_id: bench
logging:
  level: error
motor:
  type: none
sensor:
  type: none
command:
  listen: "`+ln.Addr().String()+`"
`)

	if err := run(context.Background(), path); err == nil {
		t.Error("run() expected error when the command port is taken")
	}
}

func TestRun_BadConfig(t *testing.T) {
	if err := run(context.Background(), writeConfig(t, "client_id: \"\"\n")); err == nil {
		t.Error("run() expected error for invalid config")
	}
}
