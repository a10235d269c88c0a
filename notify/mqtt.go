package notify

import (
	"encoding/json"
	"fmt"
)

// Publisher publishes MQTT messages.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes events as JSON under coopdoor/<client_id>/.
//
// Status and mode changes go to the retained state topic so a new
// subscriber sees the current door state; alerts and motor runs are
// plain event messages.
type MQTTSink struct {
	pub      Publisher
	clientID string
}

// NewMQTTSink creates an MQTTSink.
func NewMQTTSink(pub Publisher, clientID string) *MQTTSink {
	return &MQTTSink{pub: pub, clientID: clientID}
}

// Name implements Sink.Name.
func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Send implements Sink.Send.
func (s *MQTTSink) Send(e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	switch e.Kind {
	case KindStatus, KindMode:
		return s.pub.Publish(s.topic("state"), payload, 1, true)
	case KindAlert:
		return s.pub.Publish(s.topic("alert"), payload, 1, false)
	default:
		return s.pub.Publish(s.topic("event"), payload, 0, false)
	}
}

func (s *MQTTSink) topic(leaf string) string {
	return fmt.Sprintf("coopdoor/%s/%s", s.clientID, leaf)
}
