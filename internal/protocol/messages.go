package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope discriminator values. Requests flow in both directions: the server
// pushes state updates to clients as Requests so that it can await an
// acknowledgement, and clients push actions to the server as Requests.
const (
	EnvelopeRequest  = "Request"
	EnvelopeResponse = "Response"
)

// Message type names carried in the inner Request envelope.
const (
	HandshakeRequestType       = "HandshakeRequest"
	HandshakeResponseType      = "HandshakeResponse"
	UpdateGameStateRequestType = "UpdateGameStateRequest"
	UpdateGameStateRespType    = "UpdateGameStateResponse"
	DoActionRequestType        = "DoActionRequest"
	DoActionResponseType       = "DoActionResponse"
	DoGeneralActionReqType     = "DoGeneralActionRequest"
	DoGeneralActionRespType    = "DoGeneralActionResponse"
)

// Envelope is the outer wrapper around every frame payload. Data is itself a
// string-encoded JSON document (the wire format double-encodes each layer).
type Envelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Request is the inner envelope for messages expecting a Response. Seq values
// increase per connection and per direction.
type Request struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Response is the inner envelope answering a Request with a matching Seq from
// the other direction.
type Response struct {
	Seq  int    `json:"seq"`
	Data string `json:"data"`
}

type HandshakeRequest struct {
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
}

type HandshakeResponse struct {
	Success bool `json:"success"`
}

type UpdateGameStateRequest struct {
	ServerTimestampMs  int64    `json:"serverTimestampMs"`
	GameStateInfoDelta string   `json:"gameStateInfoDelta"`
	AvailableActions   []string `json:"availableActions"`
}

type UpdateGameStateResponse struct {
	Success bool `json:"success"`
}

type DoActionRequest struct {
	Action string `json:"action"`
	Data   string `json:"data"`
}

type DoActionResponse struct {
	Success bool `json:"success"`
}

type DoGeneralActionRequest struct {
	Action string `json:"action"`
	Data   string `json:"data"`
}

type DoGeneralActionResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

// General actions a seat may submit through DoGeneralActionRequest.
const (
	ActionFollowBet = "FollowBet"
	ActionRaiseBet  = "RaiseBet"
	ActionFold      = "Fold"
	ActionShowdown  = "Showdown"
)

// RaiseBetData is the action payload accompanying a RaiseBet.
type RaiseBetData struct {
	Bet int `json:"bet"`
}

// MarshalPayload string-encodes a message payload for embedding in an
// envelope's Data field.
func MarshalPayload(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling %T: %w", v, err)
	}
	return string(b), nil
}

// UnmarshalPayload decodes a string-encoded payload into v.
func UnmarshalPayload(data string, v interface{}) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshaling %T: %w", v, err)
	}
	return nil
}

// EncodeRequestEnvelope builds the full outer envelope for a Request carrying
// the given payload.
func EncodeRequestEnvelope(seq int, msgType string, payload interface{}) ([]byte, error) {
	data, err := MarshalPayload(payload)
	if err != nil {
		return nil, err
	}
	inner, err := MarshalPayload(&Request{Seq: seq, Type: msgType, Data: data})
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{Type: EnvelopeRequest, Data: inner})
}

// EncodeResponseEnvelope builds the full outer envelope for a Response. The
// data argument is already string-encoded by the handler that produced it.
func EncodeResponseEnvelope(seq int, data string) ([]byte, error) {
	inner, err := MarshalPayload(&Response{Seq: seq, Data: data})
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{Type: EnvelopeResponse, Data: inner})
}

// DecodeEnvelope parses the outer envelope from a frame payload.
func DecodeEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}
	if env.Type != EnvelopeRequest && env.Type != EnvelopeResponse {
		return nil, fmt.Errorf("unknown envelope type %q", env.Type)
	}
	return &env, nil
}

// DecodeRequest parses the inner Request from an envelope's Data field.
func (e *Envelope) DecodeRequest() (*Request, error) {
	var req Request
	if err := UnmarshalPayload(e.Data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeResponse parses the inner Response from an envelope's Data field.
func (e *Envelope) DecodeResponse() (*Response, error) {
	var resp Response
	if err := UnmarshalPayload(e.Data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
