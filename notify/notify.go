// Package notify delivers door events to external collaborators.
//
// Delivery is fire-and-forget: Publish never blocks the caller, events are
// handed to sinks from a single background goroutine, and sink failures
// are logged and dropped without retry.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies an event.
type Kind string

const (
	KindStatus Kind = "status" // door status changed after a stop
	KindMode   Kind = "mode"   // mode changed
	KindMotor  Kind = "motor"  // motor run finished
	KindAlert  Kind = "alert"  // fault requiring attention
)

// queueSize bounds the number of undelivered events.
const queueSize = 64

// Event is an outbound notification.
type Event struct {
	ID        string             `json:"id"`
	Kind      Kind               `json:"kind"`
	Time      time.Time          `json:"time"`
	Subject   string             `json:"subject"`
	Body      string             `json:"body,omitempty"`
	Status    string             `json:"status"`
	Mode      string             `json:"mode"`
	Direction string             `json:"direction"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Sink receives events. Send may block; it runs on the notifier goroutine.
type Sink interface {
	Name() string
	Send(e Event) error
}

// Notifier queues events and fans them out to sinks.
type Notifier struct {
	queue  chan Event
	sinks  []Sink
	logger *zap.Logger
}

// New creates a Notifier delivering to sinks.
func New(logger *zap.Logger, sinks ...Sink) *Notifier {
	return &Notifier{
		queue:  make(chan Event, queueSize),
		sinks:  sinks,
		logger: logger,
	}
}

// Publish queues e for delivery. If the queue is full the event is dropped.
func (n *Notifier) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	select {
	case n.queue <- e:
	default:
		n.logger.Warn("notification queue full, dropping event",
			zap.String("kind", string(e.Kind)),
			zap.String("subject", e.Subject))
	}
}

// Run delivers queued events until ctx is done, then flushes what is
// already queued.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n.drain()
			return nil
		case e := <-n.queue:
			n.deliver(e)
		}
	}
}

func (n *Notifier) drain() {
	for {
		select {
		case e := <-n.queue:
			n.deliver(e)
		default:
			return
		}
	}
}

func (n *Notifier) deliver(e Event) {
	for _, s := range n.sinks {
		if err := s.Send(e); err != nil {
			n.logger.Warn("notification failed",
				zap.String("sink", s.Name()),
				zap.String("kind", string(e.Kind)),
				zap.String("id", e.ID),
				zap.Error(err))
		}
	}
}
