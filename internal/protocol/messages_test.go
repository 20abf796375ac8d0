package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequestEnvelopeRoundTrip(t *testing.T) {
	payload := &HandshakeRequest{ProfileID: "aaa", Name: "Alice"}

	raw, err := EncodeRequestEnvelope(7, HandshakeRequestType, payload)
	if err != nil {
		t.Fatalf("EncodeRequestEnvelope() returned an unexpected error: %v", err)
	}

	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope() returned an unexpected error: %v", err)
	}
	if env.Type != EnvelopeRequest {
		t.Fatalf("envelope type = %q, want %q", env.Type, EnvelopeRequest)
	}

	req, err := env.DecodeRequest()
	if err != nil {
		t.Fatalf("DecodeRequest() returned an unexpected error: %v", err)
	}
	if req.Seq != 7 || req.Type != HandshakeRequestType {
		t.Fatalf("request header = (%d, %q), want (7, %q)", req.Seq, req.Type, HandshakeRequestType)
	}

	var decoded HandshakeRequest
	if err := UnmarshalPayload(req.Data, &decoded); err != nil {
		t.Fatalf("UnmarshalPayload() returned an unexpected error: %v", err)
	}
	if diff := cmp.Diff(payload, &decoded); diff != "" {
		t.Errorf("payload mismatch; diff:\n%s", diff)
	}
}

func TestResponseEnvelopeRoundTrip(t *testing.T) {
	data, err := MarshalPayload(&HandshakeResponse{Success: true})
	if err != nil {
		t.Fatalf("MarshalPayload() returned an unexpected error: %v", err)
	}

	raw, err := EncodeResponseEnvelope(3, data)
	if err != nil {
		t.Fatalf("EncodeResponseEnvelope() returned an unexpected error: %v", err)
	}

	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope() returned an unexpected error: %v", err)
	}
	resp, err := env.DecodeResponse()
	if err != nil {
		t.Fatalf("DecodeResponse() returned an unexpected error: %v", err)
	}
	if resp.Seq != 3 {
		t.Errorf("response seq = %d, want 3", resp.Seq)
	}

	var decoded HandshakeResponse
	if err := UnmarshalPayload(resp.Data, &decoded); err != nil {
		t.Fatalf("UnmarshalPayload() returned an unexpected error: %v", err)
	}
	if !decoded.Success {
		t.Error("expected success = true after round trip")
	}
}

func TestDecodeEnvelope_RejectsUnknownType(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"type":"Telegram","data":""}`)); err == nil {
		t.Error("DecodeEnvelope() accepted an unknown envelope type")
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Error("DecodeEnvelope() accepted malformed JSON")
	}
}

func TestGameStateInfoCopy_IsDeep(t *testing.T) {
	state := &GameStateInfo{
		PlayerID:     1,
		Dealer:       0,
		Aggressor:    0,
		ActivePlayer: 1,
		PlayerInfos: []PlayerInfo{
			{Name: "Alice", MainHand: []string{"AS", "KD"}, AvailableActions: []string{"Fold"}},
			{Name: "Bob", MainHand: []string{"2C"}},
		},
	}

	clone := state.Copy()
	clone.PlayerInfos[0].MainHand[0] = "2D"
	clone.PlayerInfos[0].AvailableActions[0] = "RaiseBet"
	clone.PlayerInfos[1].Name = "Eve"

	if state.PlayerInfos[0].MainHand[0] != "AS" {
		t.Error("Copy() shares MainHand storage with the original")
	}
	if state.PlayerInfos[0].AvailableActions[0] != "Fold" {
		t.Error("Copy() shares AvailableActions storage with the original")
	}
	if state.PlayerInfos[1].Name != "Bob" {
		t.Error("Copy() shares PlayerInfos storage with the original")
	}
}
