package ws

import (
	"github.com/jbevemyr/rocktimer/internal/timing"
)

type MessageType string

const (
	// Server -> client.
	MsgStateUpdate MessageType = "state_update"

	// Client -> server.
	MsgArm    MessageType = "arm"
	MsgDisarm MessageType = "disarm"
)

// StateMessage is pushed to every observer after each coordinator
// transition, and once immediately on connect.
type StateMessage struct {
	Type MessageType           `json:"type"`
	Data timing.StatusSnapshot `json:"data"`
}

// Command is the inbound control message. Observers share one control
// surface; the coordinator does not care which connection sent it.
type Command struct {
	Type MessageType `json:"type"`
}
