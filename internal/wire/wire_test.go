package wire

import (
	"encoding/json"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := SpawnResultPayload{TerritoryID: "t1", Success: true, Chunk: 5}
	env, err := NewEnvelope(TypeSpawnResult, nil, payload)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	raw, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != TypeSpawnResult {
		t.Errorf("Type = %q, want %q", decoded.Type, TypeSpawnResult)
	}

	var got SpawnResultPayload
	if err := json.Unmarshal(decoded.Data, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != payload {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}
}

func TestValidateEnvelopeRejectsEmptyType(t *testing.T) {
	if verr := ValidateEnvelope(Envelope{}); verr == nil {
		t.Fatal("expected a validation error for empty type")
	}
}

func TestValidateEnvelopeRejectsUnrecognizedType(t *testing.T) {
	env := Envelope{Type: "not_a_real_type", Data: json.RawMessage(`{}`)}
	if verr := ValidateEnvelope(env); verr == nil {
		t.Fatal("expected a validation error for unrecognized type")
	}
}

func TestValidateEnvelopeAllowsDataFreePing(t *testing.T) {
	if verr := ValidateEnvelope(Envelope{Type: TypePing}); verr != nil {
		t.Errorf("ping should not require data, got %v", verr)
	}
}

func TestValidateEnvelopeRequiresDataForObservation(t *testing.T) {
	if verr := ValidateEnvelope(Envelope{Type: TypeObservationData}); verr == nil {
		t.Fatal("expected a validation error for missing observation data")
	}
}

func TestDecodeObservationPayloadRejectsMissingTerritory(t *testing.T) {
	raw := json.RawMessage(`{"queenChunk": 0}`)
	if _, verr := DecodeObservationPayload(raw); verr == nil {
		t.Fatal("expected a validation error for missing territoryId")
	}
}

func TestDecodeObservationPayloadAcceptsWellFormed(t *testing.T) {
	raw := json.RawMessage(`{
		"territoryId": "t1",
		"queenChunk": 3,
		"queenEnergy": {"current": 50},
		"playerEnergy": {"start": 10, "end": 12},
		"playerMinerals": {"start": 5, "end": 5},
		"workersPresent": [{"chunk": 2, "state": "mining"}]
	}`)
	p, verr := DecodeObservationPayload(raw)
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	obs := p.ToObservation()
	if obs.Territory != "t1" {
		t.Errorf("Territory = %q, want t1", obs.Territory)
	}
	if len(obs.WorkersPresent) != 1 {
		t.Fatalf("WorkersPresent = %d, want 1", len(obs.WorkersPresent))
	}
}

func TestDecodeResetNNPayloadRequiresConfirm(t *testing.T) {
	raw := json.RawMessage(`{"confirm": false}`)
	if _, verr := DecodeResetNNPayload(raw); verr == nil {
		t.Fatal("expected a validation error when confirm is false")
	} else if !verr.Retryable {
		t.Error("missing confirmation should be retryable (the client can resend with confirm=true)")
	}
}

func TestDecodeForwardedPayloadRequiresTerritory(t *testing.T) {
	raw := json.RawMessage(`{}`)
	if _, verr := DecodeForwardedPayload(raw); verr == nil {
		t.Fatal("expected a validation error for missing territoryId")
	}
}
