// Package protocol implements the wire format spoken between the game server
// and its clients: length-prefixed frames carrying JSON envelopes that wrap
// Request and Response messages.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FrameHeaderSize is the number of bytes in the big-endian length prefix.
const FrameHeaderSize = 2

// MaxFramePayloadSize caps how large a single frame's payload may be. Anything
// larger is a protocol violation and the connection must be closed, preventing
// a misbehaving client from forcing unbounded buffering.
const MaxFramePayloadSize = 8192

var (
	ErrEmptyFrame    = errors.New("frame declares an empty payload")
	ErrFrameTooLarge = fmt.Errorf("frame payload exceeds %d bytes", MaxFramePayloadSize)
)

// EncodeFrame prepends the 2-byte big-endian length prefix to payload.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyFrame
	}
	if len(payload) > MaxFramePayloadSize {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint16(frame, uint16(len(payload)))
	copy(frame[FrameHeaderSize:], payload)
	return frame, nil
}

// DecodeFrame attempts to consume one complete frame from an accumulating
// receive buffer. If the buffer doesn't yet hold a complete frame, it returns
// a nil payload and the buffer untouched. Callers should invoke DecodeFrame
// repeatedly until it reports no complete frame, since a single read may
// deliver multiple frames.
func DecodeFrame(buf []byte) (payload []byte, rest []byte, err error) {
	if len(buf) < FrameHeaderSize {
		return nil, buf, nil
	}

	length := int(binary.BigEndian.Uint16(buf))
	if length == 0 {
		return nil, buf, ErrEmptyFrame
	}
	if length > MaxFramePayloadSize {
		return nil, buf, ErrFrameTooLarge
	}

	if len(buf) < FrameHeaderSize+length {
		return nil, buf, nil
	}

	return buf[FrameHeaderSize : FrameHeaderSize+length], buf[FrameHeaderSize+length:], nil
}
