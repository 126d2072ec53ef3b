package trigger

import (
	"encoding/json"
	"fmt"
)

// TypeTrigger is the only message type sensors emit today. Anything else on
// the wire is dropped by the receiver.
const TypeTrigger = "trigger"

// Event is one break-beam crossing reported by a sensor node. Timestamps are
// nanoseconds from the synchronized wall clock, stamped as close to the
// electrical edge as the platform allows.
type Event struct {
	Type        string `json:"type"`
	DeviceID    string `json:"device_id"`
	TimestampNS int64  `json:"timestamp_ns"`
}

func New(deviceID string, timestampNS int64) Event {
	return Event{
		Type:        TypeTrigger,
		DeviceID:    deviceID,
		TimestampNS: timestampNS,
	}
}

func (e Event) Encode() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// Decode parses a datagram into an Event. Malformed JSON, unknown message
// types, and missing fields all return an error; the caller drops the
// datagram and logs.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("invalid trigger message: %w", err)
	}
	if err := e.validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

func (e Event) validate() error {
	if e.Type != TypeTrigger {
		return fmt.Errorf("unknown message type %q", e.Type)
	}
	if e.DeviceID == "" {
		return fmt.Errorf("trigger message missing device_id")
	}
	if e.TimestampNS <= 0 {
		return fmt.Errorf("trigger message missing timestamp_ns")
	}
	return nil
}
