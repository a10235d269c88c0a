package notify

import "time"

// Reporter records a single metric sample.
type Reporter interface {
	Report(metric string, value float64, ts time.Time)
}

// TelemetrySink forwards event metrics to a Reporter.
type TelemetrySink struct {
	reporter Reporter
}

// NewTelemetrySink creates a TelemetrySink.
func NewTelemetrySink(r Reporter) *TelemetrySink {
	return &TelemetrySink{reporter: r}
}

// Name implements Sink.Name.
func (s *TelemetrySink) Name() string {
	return "telemetry"
}

// Send implements Sink.Send.
func (s *TelemetrySink) Send(e Event) error {
	for metric, value := range e.Metrics {
		s.reporter.Report(metric, value, e.Time)
	}
	return nil
}
