package door

import (
	"testing"
	"time"
)

func TestStatusFromLimits(t *testing.T) {
	tests := []struct {
		name        string
		top, bottom bool
		want        Status
	}{
		{"top only", true, false, Open},
		{"bottom only", false, true, Closed},
		{"both", true, true, Unknown},
		{"neither", false, false, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromLimits(tt.top, tt.bottom); got != tt.want {
				t.Errorf("StatusFromLimits(%v, %v) = %v, want %v", tt.top, tt.bottom, got, tt.want)
			}
		})
	}
}

func TestState_MotorRunTime(t *testing.T) {
	start := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

	var s State
	if got := s.MotorRunTime(start); got != 0 {
		t.Errorf("idle MotorRunTime() = %v, want 0", got)
	}

	s = State{Direction: MovingDown, MotorStartedAt: start}
	if got := s.MotorRunTime(start.Add(7 * time.Second)); got != 7*time.Second {
		t.Errorf("MotorRunTime() = %v, want 7s", got)
	}
	if !s.Moving() {
		t.Error("Moving() = false while MovingDown")
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Idle.String(), "idle"},
		{MovingUp.String(), "moving_up"},
		{MovingDown.String(), "moving_down"},
		{Open.String(), "open"},
		{Closed.String(), "closed"},
		{Unknown.String(), "unknown"},
		{Auto.String(), "auto"},
		{Manual.String(), "manual"},
		{Halt.String(), "halt"},
		{CmdStop.String(), "stop"},
		{CmdHalt.String(), "halt"},
		{Command(0).String(), "invalid"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
