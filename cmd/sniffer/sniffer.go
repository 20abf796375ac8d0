package main

import (
	"encoding/binary"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"

	"github.com/nxyexiong/CardGameDemo/internal/protocol"
)

// sniffer reassembles the frame stream per direction. TCP segments don't line
// up with frame boundaries, so each flow keeps its own accumulating buffer.
type sniffer struct {
	serverPort uint16
	buffers    map[string][]byte
}

func newSniffer(serverPort uint16) *sniffer {
	return &sniffer{
		serverPort: serverPort,
		buffers:    make(map[string][]byte),
	}
}

func (s *sniffer) handlePacket(packet gopacket.Packet) {
	flow := packet.TransportLayer().TransportFlow()
	srcPort := binary.BigEndian.Uint16(flow.Src().Raw())
	data := packet.ApplicationLayer().Payload()
	if len(data) == 0 {
		return
	}

	direction := "client -> server"
	if srcPort == s.serverPort {
		direction = "server -> client"
	}

	key := flow.String()
	s.buffers[key] = append(s.buffers[key], data...)

	for {
		payload, rest, err := protocol.DecodeFrame(s.buffers[key])
		if err != nil {
			fmt.Printf("[%s] framing violation: %v (dropping stream)\n", direction, err)
			delete(s.buffers, key)
			return
		}
		if payload == nil {
			return
		}
		s.buffers[key] = append([]byte(nil), rest...)

		s.printFrame(direction, payload)
	}
}

func (s *sniffer) printFrame(direction string, payload []byte) {
	fmt.Printf("[%s] %d bytes\n", direction, len(payload))

	env, err := protocol.DecodeEnvelope(payload)
	if err != nil {
		fmt.Printf("  undecodable: %v\n  raw: %s\n", err, payload)
		return
	}

	switch env.Type {
	case protocol.EnvelopeRequest:
		req, err := env.DecodeRequest()
		if err != nil {
			fmt.Printf("  bad request envelope: %v\n", err)
			return
		}
		fmt.Printf("  Request seq=%d type=%s\n", req.Seq, req.Type)
		spew.Printf("  payload: %s\n", req.Data)

	case protocol.EnvelopeResponse:
		resp, err := env.DecodeResponse()
		if err != nil {
			fmt.Printf("  bad response envelope: %v\n", err)
			return
		}
		fmt.Printf("  Response seq=%d\n", resp.Seq)
		spew.Printf("  payload: %s\n", resp.Data)
	}
}
