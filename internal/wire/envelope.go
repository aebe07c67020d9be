// Package wire defines the message envelope and per-type payloads
// exchanged over the websocket transport, plus a hand-rolled schema
// validator, per SPEC_FULL.md §6. There is no schema library anywhere
// in the pack's relevant repos (the teacher and fastview marshal plain
// structs with encoding/json directly) so this package follows that
// texture rather than reaching for one.
package wire

import (
	"encoding/json"
	"time"
)

// Type enumerates the recognized inbound/outbound message types, per
// spec.md §6's wire protocol table.
type Type string

const (
	TypeObservationData                  Type = "observation_data"
	TypeObservationResponse               Type = "observation_response"
	TypeSpawnResult                       Type = "spawn_result"
	TypeQueenDeath                        Type = "queen_death"
	TypeQueenSuccess                      Type = "queen_success"
	TypeGameOutcome                       Type = "game_outcome"
	TypePing                              Type = "ping"
	TypePong                              Type = "pong"
	TypeHealthCheck                       Type = "health_check"
	TypeHealthResponse                    Type = "health_response"
	TypeResetNN                           Type = "reset_nn"
	TypeResetNNResponse                   Type = "reset_nn_response"
	TypeGateStatsRequest                  Type = "gate_stats_request"
	TypeGateStatsResponse                 Type = "gate_stats_response"
	TypeTrainingStatusRequest             Type = "training_status_request"
	TypeTrainingStatusResponse            Type = "training_status_response"
	TypeBackgroundTrainingStatsRequest    Type = "background_training_stats_request"
	TypeBackgroundTrainingStatsResponse   Type = "background_training_stats_response"
	TypeError                             Type = "error"
)

// knownTypes is the recognized-type set ValidateEnvelope checks
// against; anything else fails schema validation rather than being
// silently dispatched.
var knownTypes = map[Type]bool{
	TypeObservationData:                true,
	TypeObservationResponse:             true,
	TypeSpawnResult:                     true,
	TypeQueenDeath:                      true,
	TypeQueenSuccess:                    true,
	TypeGameOutcome:                     true,
	TypePing:                            true,
	TypePong:                            true,
	TypeHealthCheck:                     true,
	TypeHealthResponse:                  true,
	TypeResetNN:                         true,
	TypeResetNNResponse:                 true,
	TypeGateStatsRequest:                true,
	TypeGateStatsResponse:               true,
	TypeTrainingStatusRequest:           true,
	TypeTrainingStatusResponse:          true,
	TypeBackgroundTrainingStatsRequest:  true,
	TypeBackgroundTrainingStatsResponse: true,
	TypeError:                           true,
}

// Envelope is the frame every wire message shares: a type tag, an
// optional correlation id, an optional sender timestamp, and an
// opaque, type-specific payload decoded lazily from Data.
type Envelope struct {
	Type      Type            `json:"type"`
	MessageID *string         `json:"messageId,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Decode parses raw bytes into an Envelope.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Encode serializes env back to wire bytes.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// NewEnvelope builds an outbound envelope carrying payload, marshaled
// into Data. MessageID is echoed from the request it answers, when
// one exists (the caller decides; nil is fine for unsolicited frames).
func NewEnvelope(t Type, messageID *string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	now := time.Now()
	return Envelope{Type: t, MessageID: messageID, Timestamp: &now, Data: raw}, nil
}
