package telemetry

import "errors"

var (
	// ErrDisabled is returned by Connect when no URL is configured.
	ErrDisabled = errors.New("telemetry: disabled")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("telemetry: connection failed")
)
