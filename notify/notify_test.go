package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Send(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type fakePublisher struct {
	msgs []published
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.msgs = append(p.msgs, published{topic: topic, payload: payload, retained: retained})
	return nil
}

type sample struct {
	metric string
	value  float64
}

type fakeReporter struct {
	samples []sample
}

func (r *fakeReporter) Report(metric string, value float64, ts time.Time) {
	r.samples = append(r.samples, sample{metric, value})
}

// =============================================================================
// Notifier Tests
// =============================================================================

func TestPublish_AssignsIDAndTime(t *testing.T) {
	sink := &memorySink{}
	n := New(zaptest.NewLogger(t), sink)

	n.Publish(Event{Kind: KindAlert, Subject: "motor ran too long"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sink.count() != 1 {
		t.Fatalf("delivered %d events, want 1", sink.count())
	}
	e := sink.events[0]
	if e.ID == "" {
		t.Error("event ID not assigned")
	}
	if e.Time.IsZero() {
		t.Error("event time not assigned")
	}
}

func TestPublish_DropsWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := New(zap.New(core))

	for i := 0; i < queueSize+3; i++ {
		n.Publish(Event{Kind: KindMotor})
	}

	if got := logs.FilterMessage("notification queue full, dropping event").Len(); got != 3 {
		t.Errorf("dropped %d events, want 3", got)
	}
}

func TestRun_SinkErrorDoesNotStopDelivery(t *testing.T) {
	failing := &memorySink{err: errors.New("broker down")}
	ok := &memorySink{}
	core, logs := observer.New(zap.WarnLevel)
	n := New(zap.New(core), failing, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	n.Publish(Event{Kind: KindStatus})
	n.Publish(Event{Kind: KindMode})

	deadline := time.Now().Add(time.Second)
	for ok.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if ok.count() != 2 {
		t.Errorf("healthy sink got %d events, want 2", ok.count())
	}
	if logs.FilterMessage("notification failed").Len() != 2 {
		t.Errorf("expected 2 logged sink failures, got %d", logs.FilterMessage("notification failed").Len())
	}
}

// =============================================================================
// Sink Tests
// =============================================================================

func TestMQTTSink_Topics(t *testing.T) {
	tests := []struct {
		kind         Kind
		wantTopic    string
		wantRetained bool
	}{
		{KindStatus, "coopdoor/coop1/state", true},
		{KindMode, "coopdoor/coop1/state", true},
		{KindAlert, "coopdoor/coop1/alert", false},
		{KindMotor, "coopdoor/coop1/event", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			pub := &fakePublisher{}
			sink := NewMQTTSink(pub, "coop1")

			if err := sink.Send(Event{Kind: tt.kind, Status: "closed"}); err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if len(pub.msgs) != 1 {
				t.Fatalf("published %d messages, want 1", len(pub.msgs))
			}
			msg := pub.msgs[0]
			if msg.topic != tt.wantTopic {
				t.Errorf("topic = %q, want %q", msg.topic, tt.wantTopic)
			}
			if msg.retained != tt.wantRetained {
				t.Errorf("retained = %v, want %v", msg.retained, tt.wantRetained)
			}

			var decoded map[string]any
			if err := json.Unmarshal(msg.payload, &decoded); err != nil {
				t.Fatalf("payload is not JSON: %v", err)
			}
			if decoded["status"] != "closed" {
				t.Errorf("payload status = %v, want closed", decoded["status"])
			}
		})
	}
}

func TestTelemetrySink_ReportsMetrics(t *testing.T) {
	r := &fakeReporter{}
	sink := NewTelemetrySink(r)

	err := sink.Send(Event{Kind: KindMotor, Metrics: map[string]float64{"motor_run_seconds": 12.5}})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(r.samples) != 1 || r.samples[0].metric != "motor_run_seconds" || r.samples[0].value != 12.5 {
		t.Errorf("samples = %+v, want one motor_run_seconds=12.5", r.samples)
	}
}
