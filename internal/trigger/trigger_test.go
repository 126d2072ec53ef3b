package trigger

import (
	"testing"
)

func TestDecodeValid(t *testing.T) {
	data := []byte(`{"type": "trigger", "device_id": "tee", "timestamp_ns": 1703265432123456789}`)

	ev, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if ev.DeviceID != "tee" {
		t.Errorf("device_id = %q, want tee", ev.DeviceID)
	}
	if ev.TimestampNS != 1703265432123456789 {
		t.Errorf("timestamp_ns = %d", ev.TimestampNS)
	}
}

func TestDecodeRejectsBadMessages(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `not json at all`},
		{"truncated", `{"type": "trigger", "device_id"`},
		{"unknown type", `{"type": "heartbeat", "device_id": "tee", "timestamp_ns": 1}`},
		{"missing type", `{"device_id": "tee", "timestamp_ns": 1}`},
		{"missing device", `{"type": "trigger", "timestamp_ns": 1}`},
		{"missing timestamp", `{"type": "trigger", "device_id": "tee"}`},
		{"negative timestamp", `{"type": "trigger", "device_id": "tee", "timestamp_ns": -5}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tt.data)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := New("hog_far", 42)
	data, err := orig.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got != orig {
		t.Errorf("round trip = %+v, want %+v", got, orig)
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	if _, err := (Event{Type: TypeTrigger, DeviceID: "tee"}).Encode(); err == nil {
		t.Error("encoded event without timestamp")
	}
}
