package game

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/nxyexiong/CardGameDemo/internal/core/data"
	"github.com/nxyexiong/CardGameDemo/internal/protocol"
	"github.com/nxyexiong/CardGameDemo/internal/server"
)

const sessionTimeout = 5 * time.Second

// testPlayer is a minimal protocol client: it frames requests, correlates
// responses, acknowledges server pushes, and folds each received delta into
// its local view the way a real client would.
type testPlayer struct {
	t    *testing.T
	conn net.Conn
	recv []byte
	seq  int

	view    *protocol.GameStateInfo
	updates []*protocol.UpdateGameStateRequest
}

func dialPlayer(t *testing.T, addr string) *testPlayer {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dialing game server: %v", err)
	}
	p := &testPlayer{t: t, conn: conn}
	t.Cleanup(func() { _ = conn.Close() })
	return p
}

func (p *testPlayer) send(payload []byte) {
	p.t.Helper()

	frame, err := protocol.EncodeFrame(payload)
	if err != nil {
		p.t.Fatalf("encoding frame: %v", err)
	}
	if _, err := p.conn.Write(frame); err != nil {
		p.t.Fatalf("writing frame: %v", err)
	}
}

// readEnvelope blocks until one complete frame arrives and decodes it.
func (p *testPlayer) readEnvelope() *protocol.Envelope {
	p.t.Helper()

	_ = p.conn.SetReadDeadline(time.Now().Add(sessionTimeout))
	buffer := make([]byte, 2048)

	for {
		payload, rest, err := protocol.DecodeFrame(p.recv)
		if err != nil {
			p.t.Fatalf("decoding frame: %v", err)
		}
		if payload != nil {
			env, err := protocol.DecodeEnvelope(payload)
			if err != nil {
				p.t.Fatalf("decoding envelope: %v", err)
			}
			p.recv = append([]byte(nil), rest...)
			return env
		}

		n, err := p.conn.Read(buffer)
		if err != nil {
			p.t.Fatalf("reading from server: %v", err)
		}
		p.recv = append(p.recv, buffer[:n]...)
	}
}

// handleServerRequest acknowledges one server push and folds its delta into
// the player's view.
func (p *testPlayer) handleServerRequest(env *protocol.Envelope) {
	p.t.Helper()

	req, err := env.DecodeRequest()
	if err != nil {
		p.t.Fatalf("decoding server request: %v", err)
	}
	if req.Type != protocol.UpdateGameStateRequestType {
		p.t.Fatalf("unexpected server request type %q", req.Type)
	}

	var update protocol.UpdateGameStateRequest
	if err := protocol.UnmarshalPayload(req.Data, &update); err != nil {
		p.t.Fatalf("decoding state update: %v", err)
	}
	var delta protocol.GameStateInfo
	if err := protocol.UnmarshalPayload(update.GameStateInfoDelta, &delta); err != nil {
		p.t.Fatalf("decoding state delta: %v", err)
	}
	p.view = Apply(p.view, &delta)
	p.updates = append(p.updates, &update)

	ack, _ := protocol.MarshalPayload(&protocol.UpdateGameStateResponse{Success: true})
	raw, err := protocol.EncodeResponseEnvelope(req.Seq, ack)
	if err != nil {
		p.t.Fatalf("encoding ack: %v", err)
	}
	p.send(raw)
}

// request sends one request and blocks until its response arrives, servicing
// any state pushes that interleave.
func (p *testPlayer) request(msgType string, payload interface{}) string {
	p.t.Helper()

	seq := p.seq
	p.seq++

	raw, err := protocol.EncodeRequestEnvelope(seq, msgType, payload)
	if err != nil {
		p.t.Fatalf("encoding request: %v", err)
	}
	p.send(raw)

	for {
		env := p.readEnvelope()
		if env.Type == protocol.EnvelopeRequest {
			p.handleServerRequest(env)
			continue
		}

		resp, err := env.DecodeResponse()
		if err != nil {
			p.t.Fatalf("decoding response: %v", err)
		}
		if resp.Seq != seq {
			p.t.Fatalf("response seq = %d, expected %d", resp.Seq, seq)
		}
		return resp.Data
	}
}

// nextUpdate returns the next state push, reading from the connection if none
// is queued.
func (p *testPlayer) nextUpdate() *protocol.UpdateGameStateRequest {
	p.t.Helper()

	for len(p.updates) == 0 {
		env := p.readEnvelope()
		if env.Type != protocol.EnvelopeRequest {
			p.t.Fatal("received a response with no request outstanding")
		}
		p.handleServerRequest(env)
	}

	update := p.updates[0]
	p.updates = p.updates[1:]
	return update
}

func (p *testPlayer) handshake(profileID, name string) {
	p.t.Helper()

	data := p.request(protocol.HandshakeRequestType, &protocol.HandshakeRequest{
		ProfileID: profileID,
		Name:      name,
	})
	var resp protocol.HandshakeResponse
	if err := protocol.UnmarshalPayload(data, &resp); err != nil {
		p.t.Fatalf("decoding handshake response: %v", err)
	}
	if !resp.Success {
		p.t.Fatalf("handshake for %q failed", profileID)
	}
}

func contains(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// TestSession drives a full two-player opening over a real TCP connection:
// both profiles handshake, the round starts, the dealer raises, and the other
// seat observes the raise with its own legal actions.
func TestSession(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	if err := db.AutoMigrate(&data.Profile{}); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}

	cfg := testConfig("aaa", "bbb")
	logger := testLogger()

	frontend := &server.Frontend{
		Address: "127.0.0.1:0",
		Config:  cfg,
		Logger:  logger,
		Backend: &Server{Name: "GAME", Config: cfg, Logger: logger, DB: db},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if err := frontend.Start(ctx, &wg); err != nil {
		t.Fatalf("starting game server: %v", err)
	}
	defer wg.Wait()
	defer cancel()

	addr := frontend.BoundAddr().String()
	alice := dialPlayer(t, addr)
	bob := dialPlayer(t, addr)

	alice.handshake("aaa", "alice")
	bob.handshake("bbb", "bob")

	// Both seats receive the opening state. Alice (seat 0) is the dealer and
	// opens with the full action set; Bob waits.
	aliceUpdate := alice.nextUpdate()
	if !contains(aliceUpdate.AvailableActions, protocol.ActionFollowBet) ||
		!contains(aliceUpdate.AvailableActions, protocol.ActionRaiseBet) ||
		!contains(aliceUpdate.AvailableActions, protocol.ActionFold) {
		t.Fatalf("alice's opening actions = %v, expected [FollowBet RaiseBet Fold]", aliceUpdate.AvailableActions)
	}
	if alice.view.PlayerID != 0 || alice.view.ActivePlayer != 0 {
		t.Errorf("alice's view: playerID %d active %d, expected both 0", alice.view.PlayerID, alice.view.ActivePlayer)
	}
	if len(alice.view.PlayerInfos[0].MainHand) != 5 {
		t.Errorf("alice sees %d of her own cards, expected 5", len(alice.view.PlayerInfos[0].MainHand))
	}
	if len(alice.view.PlayerInfos[1].MainHand) != 0 {
		t.Error("alice can see bob's hand")
	}

	bobUpdate := bob.nextUpdate()
	if len(bobUpdate.AvailableActions) != 0 {
		t.Errorf("bob's opening actions = %v, expected none", bobUpdate.AvailableActions)
	}
	if len(bob.view.PlayerInfos[0].MainHand) != 0 {
		t.Error("bob can see alice's hand")
	}

	// Alice raises; her response arrives before the resulting push.
	raiseData, _ := protocol.MarshalPayload(&protocol.RaiseBetData{Bet: 10})
	respData := alice.request(protocol.DoGeneralActionReqType, &protocol.DoGeneralActionRequest{
		Action: protocol.ActionRaiseBet,
		Data:   raiseData,
	})
	var actionResp protocol.DoGeneralActionResponse
	if err := protocol.UnmarshalPayload(respData, &actionResp); err != nil {
		t.Fatalf("decoding action response: %v", err)
	}
	if !actionResp.Success {
		t.Fatal("raise was rejected")
	}

	// Bob observes the raise and may now follow it.
	bobUpdate = bob.nextUpdate()
	if bob.view.PlayerInfos[0].Bet != 10 {
		t.Errorf("bob sees alice's bet as %d, expected 10", bob.view.PlayerInfos[0].Bet)
	}
	if bob.view.ActivePlayer != 1 {
		t.Errorf("bob's view: active player %d, expected 1", bob.view.ActivePlayer)
	}
	if !contains(bobUpdate.AvailableActions, protocol.ActionFollowBet) {
		t.Errorf("bob's actions = %v, expected FollowBet to be offered", bobUpdate.AvailableActions)
	}
}
