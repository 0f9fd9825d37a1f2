package ws

import (
	"encoding/json"

	"scooterswap/internal/api"
	"scooterswap/internal/metrics"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

// CommandPayload drives the lifecycle verbs: start, pause, resume, stop,
// reset, step.
type CommandPayload struct {
	Command string `json:"command"`
}

type SetSpeedPayload struct {
	Speed float64 `json:"speed"`
}

// Server -> Client messages

// StatePayload is the shared shape of initial_state and state_update: a
// full world snapshot plus the lightweight real-time metrics.
type StatePayload struct {
	api.SnapshotDTO
	Metrics metrics.CurrentSnapshot `json:"metrics"`
}

type CommandAckPayload struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type SpeedAckPayload struct {
	Speed float64 `json:"speed"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Message type constants
const (
	// Client -> Server
	TypeCommand  = "command"
	TypeSetSpeed = "set_speed"
	TypePing     = "ping"

	// Server -> Client
	TypeInitialState = "initial_state"
	TypeStateUpdate  = "state_update"
	TypeCommandAck   = "command_ack"
	TypeSpeedAck     = "speed_ack"
	TypePong         = "pong"
	TypeError        = "error"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
