package door

import "time"

// Direction is the current motor drive direction.
type Direction int

const (
	Idle Direction = iota
	MovingUp
	MovingDown
)

func (d Direction) String() string {
	switch d {
	case Idle:
		return "idle"
	case MovingUp:
		return "moving_up"
	case MovingDown:
		return "moving_down"
	default:
		return "invalid"
	}
}

// Status is the door position as last derived from the limit switches.
type Status int

const (
	Unknown Status = iota
	Open
	Closed
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Mode selects who is allowed to move the door.
type Mode int

const (
	// Auto follows the sun schedule.
	Auto Mode = iota
	// Manual follows button presses and remote commands only.
	Manual
	// Halt refuses all motion until an explicit remote command.
	Halt
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Manual:
		return "manual"
	case Halt:
		return "halt"
	default:
		return "invalid"
	}
}

// State is the door state. The actor owns the only mutable copy; everyone
// else sees value snapshots.
type State struct {
	Direction Direction
	Status    Status
	Mode      Mode

	// MotorStartedAt is zero exactly when Direction is Idle.
	MotorStartedAt time.Time
	// ManualStartedAt is set on entering Manual.
	ManualStartedAt time.Time

	SecondChancePending bool
	LEDOn               bool
}

// Moving reports whether the motor is energized.
func (s State) Moving() bool {
	return s.Direction != Idle
}

// MotorRunTime returns how long the motor has been running at now, or 0 when idle.
func (s State) MotorRunTime(now time.Time) time.Duration {
	if s.MotorStartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.MotorStartedAt)
}

// StatusFromLimits derives the door status from the two limit switches.
// Both or neither triggered is ambiguous.
func StatusFromLimits(top, bottom bool) Status {
	switch {
	case top && !bottom:
		return Open
	case bottom && !top:
		return Closed
	default:
		return Unknown
	}
}
