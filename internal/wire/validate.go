package wire

import (
	"encoding/json"
	"fmt"
)

// ValidationError reports a single schema or business-rule failure,
// per spec.md §6's "typed VALIDATION_ERROR response with a retryable
// flag" requirement. Modeled as a small struct rather than a sentinel
// error since the field/reason are per-call data, matching the
// teacher's own small-error-struct idiom (fastview's ErrSockCongestion
// is a sentinel because it carries no per-call data; this does, so it
// is a struct instead).
type ValidationError struct {
	Field     string
	Reason    string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %q: %s", e.Field, e.Reason)
}

// ValidateEnvelope checks the envelope's own schema: a recognized,
// non-empty type, and payload data present for types that require one.
func ValidateEnvelope(env Envelope) *ValidationError {
	if env.Type == "" {
		return &ValidationError{Field: "type", Reason: "required", Retryable: false}
	}
	if !knownTypes[env.Type] {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unrecognized type %q", env.Type), Retryable: false}
	}
	if requiresData(env.Type) && len(env.Data) == 0 {
		return &ValidationError{Field: "data", Reason: "required for type " + string(env.Type), Retryable: false}
	}
	return nil
}

func requiresData(t Type) bool {
	switch t {
	case TypePing, TypeHealthCheck, TypeGateStatsRequest, TypeTrainingStatusRequest, TypeBackgroundTrainingStatsRequest:
		return false
	default:
		return true
	}
}

// DecodeObservationPayload unmarshals and schema-validates an
// observation_data message's data.
func DecodeObservationPayload(data json.RawMessage) (ObservationPayload, *ValidationError) {
	var p ObservationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ObservationPayload{}, &ValidationError{Field: "data", Reason: err.Error(), Retryable: false}
	}
	if verr := ValidateObservationPayload(p); verr != nil {
		return ObservationPayload{}, verr
	}
	return p, nil
}

// ValidateObservationPayload checks required fields and value ranges
// spec.md §3/§6 impose on an observation, after JSON decoding has
// already enforced types.
func ValidateObservationPayload(p ObservationPayload) *ValidationError {
	if p.TerritoryID == "" {
		return &ValidationError{Field: "territoryId", Reason: "required", Retryable: false}
	}
	if p.QueenEnergy.Current < 0 {
		return &ValidationError{Field: "queenEnergy.current", Reason: "must be non-negative", Retryable: false}
	}
	if p.PlayerEnergy.Start < 0 || p.PlayerEnergy.End < 0 {
		return &ValidationError{Field: "playerEnergy", Reason: "must be non-negative", Retryable: false}
	}
	if p.PlayerMinerals.Start < 0 || p.PlayerMinerals.End < 0 {
		return &ValidationError{Field: "playerMinerals", Reason: "must be non-negative", Retryable: false}
	}
	if p.QueenChunk < 0 {
		return &ValidationError{Field: "queenChunk", Reason: "must be non-negative", Retryable: false}
	}
	return nil
}

// DecodeSpawnResultPayload unmarshals and schema-validates a
// spawn_result message's data.
func DecodeSpawnResultPayload(data json.RawMessage) (SpawnResultPayload, *ValidationError) {
	var p SpawnResultPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return SpawnResultPayload{}, &ValidationError{Field: "data", Reason: err.Error(), Retryable: false}
	}
	if p.TerritoryID == "" {
		return SpawnResultPayload{}, &ValidationError{Field: "territoryId", Reason: "required", Retryable: false}
	}
	return p, nil
}

// DecodeForwardedPayload unmarshals a queen_death/queen_success/
// game_outcome message's data; these are otherwise opaque to this
// repo (spec.md §6: forwarded to higher-level subsystems).
func DecodeForwardedPayload(data json.RawMessage) (ForwardedPayload, *ValidationError) {
	var p ForwardedPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return ForwardedPayload{}, &ValidationError{Field: "data", Reason: err.Error(), Retryable: false}
		}
	}
	if p.TerritoryID == "" {
		return ForwardedPayload{}, &ValidationError{Field: "territoryId", Reason: "required", Retryable: false}
	}
	return p, nil
}

// DecodeResetNNPayload unmarshals and schema-validates a reset_nn
// message's data, requiring an explicit confirm per spec.md §6.
func DecodeResetNNPayload(data json.RawMessage) (ResetNNPayload, *ValidationError) {
	var p ResetNNPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ResetNNPayload{}, &ValidationError{Field: "data", Reason: err.Error(), Retryable: false}
	}
	if !p.Confirm {
		return ResetNNPayload{}, &ValidationError{Field: "confirm", Reason: "reset_nn requires confirm=true", Retryable: true}
	}
	return p, nil
}
