package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustEncodeFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	frame, err := EncodeFrame(payload)
	if err != nil {
		t.Fatalf("EncodeFrame() returned an unexpected error: %v", err)
	}
	return frame
}

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "single byte", payload: []byte{0x42}},
		{name: "json message", payload: []byte(`{"type":"Request","data":"{}"}`)},
		{name: "max payload", payload: bytes.Repeat([]byte{0xab}, MaxFramePayloadSize)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := mustEncodeFrame(t, tt.payload)

			payload, rest, err := DecodeFrame(frame)
			if err != nil {
				t.Fatalf("DecodeFrame() returned an unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.payload, payload); diff != "" {
				t.Errorf("decoded payload mismatch; diff:\n%s", diff)
			}
			if len(rest) != 0 {
				t.Errorf("expected an empty remainder, got %d bytes", len(rest))
			}
		})
	}
}

func TestDecodeFrame_TwoFramesInOneBuffer(t *testing.T) {
	p1 := []byte("first message")
	p2 := []byte("second message")
	buf := append(mustEncodeFrame(t, p1), mustEncodeFrame(t, p2)...)

	payload, rest, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame() returned an unexpected error: %v", err)
	}
	if !bytes.Equal(payload, p1) {
		t.Errorf("first decode returned %q, want %q", payload, p1)
	}

	payload, rest, err = DecodeFrame(rest)
	if err != nil {
		t.Fatalf("DecodeFrame() returned an unexpected error: %v", err)
	}
	if !bytes.Equal(payload, p2) {
		t.Errorf("second decode returned %q, want %q", payload, p2)
	}
	if len(rest) != 0 {
		t.Errorf("expected an empty remainder, got %d bytes", len(rest))
	}
}

func TestDecodeFrame_PartialFrame(t *testing.T) {
	full := mustEncodeFrame(t, []byte("partial delivery"))

	// Feed the frame one byte at a time; no payload should surface until the
	// final byte arrives.
	var buf []byte
	for i, b := range full {
		buf = append(buf, b)

		payload, rest, err := DecodeFrame(buf)
		if err != nil {
			t.Fatalf("DecodeFrame() returned an unexpected error at byte %d: %v", i, err)
		}

		if i < len(full)-1 {
			if payload != nil {
				t.Fatalf("DecodeFrame() returned a payload before the frame completed (byte %d)", i)
			}
			if !bytes.Equal(rest, buf) {
				t.Fatalf("DecodeFrame() modified the buffer on an incomplete frame (byte %d)", i)
			}
		} else if payload == nil {
			t.Fatal("DecodeFrame() returned no payload for a complete frame")
		}
	}
}

func TestDecodeFrame_ProtocolViolations(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		wantErr error
	}{
		{name: "zero length prefix", buf: []byte{0x00, 0x00, 0xff}, wantErr: ErrEmptyFrame},
		{name: "oversized length prefix", buf: []byte{0xff, 0xff}, wantErr: ErrFrameTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeFrame(tt.buf)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeFrame_RejectsInvalidPayloads(t *testing.T) {
	if _, err := EncodeFrame(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("EncodeFrame(nil) error = %v, want %v", err, ErrEmptyFrame)
	}

	oversized := bytes.Repeat([]byte{0x01}, MaxFramePayloadSize+1)
	if _, err := EncodeFrame(oversized); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("EncodeFrame(oversized) error = %v, want %v", err, ErrFrameTooLarge)
	}
}
