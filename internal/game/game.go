package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nxyexiong/CardGameDemo/internal/core"
	"github.com/nxyexiong/CardGameDemo/internal/core/data"
	"github.com/nxyexiong/CardGameDemo/internal/protocol"
	"github.com/nxyexiong/CardGameDemo/internal/server"
)

// Server is the game backend: it owns the canonical round state, the seat
// registry, and the state machine, and it exchanges protocol messages with
// clients through the router. Everything here runs on the frontend's single
// server-loop goroutine, so no locking is needed.
type Server struct {
	Name   string
	Config *core.Config
	Logger *logrus.Logger
	DB     *gorm.DB

	// Compare resolves the showdown; defaults to the poker evaluator.
	Compare HandComparator

	router   *server.Router
	registry *Registry

	state       *protocol.GameStateInfo
	serverState *ServerGameStateInfo
	current     StateID
	states      map[StateID]stateHooks

	// Last snapshot sent per seat, the baseline for delta updates. Reset when
	// the seat's connection changes so a rejoining client gets a full snapshot.
	lastSnapshots map[int]*protocol.GameStateInfo

	rng *rand.Rand
	now func() time.Time
}

func (s *Server) Identifier() string {
	return s.Name
}

// Init loads the registered profiles, builds the seat table and canonical
// state, and registers the protocol handlers.
func (s *Server) Init(_ context.Context) error {
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	if s.Compare == nil {
		s.Compare = CompareHands
	}

	profiles, err := s.loadProfiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles registered; configure game.profile_ids or add profiles")
	}

	s.registry = NewRegistry(s.Logger, profiles)

	s.state = &protocol.GameStateInfo{
		PlayerID:     -1,
		Dealer:       -1,
		Aggressor:    -1,
		ActivePlayer: -1,

		TimerStartTimestampMs: -1,
		TimerIntervalMs:       s.Config.Game.TimerIntervalMs,
	}
	for _, profile := range profiles {
		s.state.PlayerInfos = append(s.state.PlayerInfos, protocol.PlayerInfo{
			Name:     profile.DisplayName,
			NetWorth: s.Config.Game.InitNetWorth,
		})
	}
	s.serverState = &ServerGameStateInfo{}
	s.lastSnapshots = make(map[int]*protocol.GameStateInfo)

	s.router = server.NewRouter(s.Logger, s.Config.GameServer.PendingResponseTTL)
	s.router.RegisterHandler(protocol.HandshakeRequestType, s.handleHandshake)
	s.router.RegisterHandler(protocol.DoGeneralActionReqType, s.dispatchToState(protocol.DoGeneralActionReqType))
	s.router.RegisterHandler(protocol.DoActionRequestType, s.dispatchToState(protocol.DoActionRequestType))

	s.states = map[StateID]stateHooks{
		StateWaitingForPlayers: {},
		StatePlayersTurn: {
			enter:         s.playersTurnEnter,
			handleRequest: s.playersTurnRequest,
		},
		StateRoundResult: {
			enter: s.roundResultEnter,
		},
		StateGameOver: {
			enter: s.gameOverEnter,
		},
	}
	s.current = StateWaitingForPlayers

	return nil
}

// loadProfiles ensures every configured profile id is registered, then
// returns the profiles in seat order.
func (s *Server) loadProfiles() ([]data.Profile, error) {
	var profiles []data.Profile

	for _, profileID := range s.Config.Game.ProfileIDs {
		profile, err := data.FindProfileByProfileID(s.DB, profileID)
		if err != nil {
			return nil, fmt.Errorf("looking up profile %q: %w", profileID, err)
		}
		if profile == nil {
			profile = &data.Profile{ProfileID: profileID}
			if err := data.CreateProfile(s.DB, profile); err != nil {
				return nil, fmt.Errorf("registering profile %q: %w", profileID, err)
			}
			s.Logger.Infof("[%s] registered profile %q", s.Name, profileID)
		}
		profiles = append(profiles, *profile)
	}

	return profiles, nil
}

func (s *Server) SetUpClient(c *server.Client) {
	// Seats bind on handshake, not on connect; nothing to do yet.
}

// Handle processes one frame from a client. Returning an error tears the
// connection down.
func (s *Server) Handle(_ context.Context, c *server.Client, frame []byte) error {
	if s.Config.Debugging.PacketLoggingEnabled {
		s.Logger.Debugf("[%s] recv from %s: %s", s.Name, c.RemoteKey(), frame)
	}
	return s.router.HandleFrame(c, frame)
}

// OnDisconnect drops the pending requests and seat binding tied to the
// connection. The seat stays in the round; it's just unreachable until its
// profile reconnects.
func (s *Server) OnDisconnect(c *server.Client) {
	s.router.DropPending(c)

	if info := s.registry.Unbind(c); info != nil {
		delete(s.lastSnapshots, info.Seat)
		s.Logger.Infof("[%s] seat %d (profile %q) lost its connection",
			s.Name, info.Seat, info.ProfileID)
	}
}

// handleHandshake validates the profile id, binds the connection to its seat,
// and starts the first round once the last seat is filled.
func (s *Server) handleHandshake(c *server.Client, requestData string) (string, func()) {
	failure := mustMarshal(&protocol.HandshakeResponse{Success: false})

	var req protocol.HandshakeRequest
	if err := protocol.UnmarshalPayload(requestData, &req); err != nil {
		s.Logger.Warnf("[%s] handshake parse failed from %s: %v", s.Name, c.RemoteKey(), err)
		return failure, nil
	}

	info, ok := s.registry.Bind(req.ProfileID, c)
	if !ok {
		return failure, nil
	}

	// A fresh binding starts from a clean baseline so the next push is a full
	// snapshot.
	delete(s.lastSnapshots, info.Seat)

	if name := s.registry.NormalizeDisplayName(req.Name); name != "" {
		s.state.PlayerInfos[info.Seat].Name = name
		s.persistDisplayName(info.ProfileID, name)
	}

	s.Logger.Infof("[%s] profile %q took seat %d from %s",
		s.Name, info.ProfileID, info.Seat, c.RemoteKey())

	// State mutation happens only after the response is on the wire, so the
	// client always sees its handshake succeed before the first state push.
	return mustMarshal(&protocol.HandshakeResponse{Success: true}), s.afterHandshake
}

func (s *Server) afterHandshake() {
	switch s.current {
	case StateWaitingForPlayers:
		if s.registry.AllSeatsBound() {
			s.transition(StatePlayersTurn, roundStart{Dealer: 0})
		}
	default:
		// A player rejoined mid-game; resend the current view.
		s.pushGameState()
	}
}

func (s *Server) persistDisplayName(profileID, name string) {
	profile, err := data.FindProfileByProfileID(s.DB, profileID)
	if err != nil || profile == nil {
		s.Logger.Warnf("[%s] could not load profile %q to save display name: %v", s.Name, profileID, err)
		return
	}
	if profile.DisplayName == name {
		return
	}
	profile.DisplayName = name
	if err := data.UpdateProfile(s.DB, profile); err != nil {
		s.Logger.Warnf("[%s] could not save display name for %q: %v", s.Name, profileID, err)
	}
}

// dispatchToState routes a request type to the active state's handler.
func (s *Server) dispatchToState(msgType string) server.HandlerFunc {
	return func(c *server.Client, requestData string) (string, func()) {
		if hooks, ok := s.states[s.current]; ok && hooks.handleRequest != nil {
			if resp, done, handled := hooks.handleRequest(c, msgType, requestData); handled {
				return resp, done
			}
		}

		s.Logger.Warnf("[%s] request type %s from %s ignored in state %v",
			s.Name, msgType, c.RemoteKey(), s.current)
		return "", nil
	}
}

// pushGameState sends every connected seat its filtered view of canonical
// state as a delta against the last snapshot that seat received.
func (s *Server) pushGameState() {
	timestamp := s.now().UnixMilli()

	for _, info := range s.registry.Seats() {
		if info.Client == nil {
			continue
		}

		snapshot := Project(s.state, info.Seat)
		delta := Diff(s.lastSnapshots[info.Seat], snapshot)

		deltaRaw, err := protocol.MarshalPayload(delta)
		if err != nil {
			s.Logger.Errorf("[%s] encoding state delta for seat %d: %v", s.Name, info.Seat, err)
			continue
		}

		update := &protocol.UpdateGameStateRequest{
			ServerTimestampMs:  timestamp,
			GameStateInfoDelta: deltaRaw,
			AvailableActions:   append([]string(nil), s.state.PlayerInfos[info.Seat].AvailableActions...),
		}

		if err := s.router.SendRequest(info.Client, protocol.UpdateGameStateRequestType, update, s.handleUpdateAck); err != nil {
			s.Logger.Warnf("[%s] pushing state to seat %d: %v", s.Name, info.Seat, err)
			continue
		}

		s.lastSnapshots[info.Seat] = snapshot
	}
}

// handleUpdateAck completes the push round trip; nothing depends on it beyond
// releasing the pending entry.
func (s *Server) handleUpdateAck(c *server.Client, responseData string) {
	var resp protocol.UpdateGameStateResponse
	if err := protocol.UnmarshalPayload(responseData, &resp); err != nil {
		s.Logger.Debugf("[%s] malformed state ack from %s: %v", s.Name, c.RemoteKey(), err)
		return
	}
	if !resp.Success {
		s.Logger.Debugf("[%s] client %s reported a failed state update", s.Name, c.RemoteKey())
	}
}

// highestBet returns the highest outstanding bet across all seats.
func (s *Server) highestBet() int {
	highest := 0
	for i := range s.state.PlayerInfos {
		if s.state.PlayerInfos[i].Bet > highest {
			highest = s.state.PlayerInfos[i].Bet
		}
	}
	return highest
}

func (s *Server) resetTimer() {
	s.state.TimerStartTimestampMs = s.now().UnixMilli()
	s.state.TimerIntervalMs = s.Config.Game.TimerIntervalMs
}

// mustMarshal encodes a response payload whose marshaling cannot fail.
func mustMarshal(v interface{}) string {
	data, err := protocol.MarshalPayload(v)
	if err != nil {
		panic(err)
	}
	return data
}
