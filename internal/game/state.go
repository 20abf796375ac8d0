package game

import (
	"github.com/nxyexiong/CardGameDemo/internal/server"
)

// StateID identifies one of the game's states. Exactly one state is active at
// a time, shared across all seats.
type StateID int

const (
	StateWaitingForPlayers StateID = iota
	StatePlayersTurn
	StateRoundResult
	StateGameOver
)

func (s StateID) String() string {
	switch s {
	case StateWaitingForPlayers:
		return "WaitingForPlayers"
	case StatePlayersTurn:
		return "PlayersTurn"
	case StateRoundResult:
		return "RoundResult"
	case StateGameOver:
		return "GameOver"
	}
	return "Unknown"
}

// stateHooks is one entry in the state handler table: the uniform capability
// set every state implements. Nil hooks are no-ops.
type stateHooks struct {
	enter func(data interface{})
	leave func()

	// handleRequest processes a request type owned by the active state,
	// returning the response payload and an optional post-send callback.
	// ok reports whether the state handled the type at all.
	handleRequest func(c *server.Client, msgType, data string) (resp string, done func(), ok bool)
}

// roundStart carries the parameters a new round is entered with.
type roundStart struct {
	Dealer int
}

// ServerGameStateInfo is bookkeeping the server needs across a round but
// never sends to clients.
type ServerGameStateInfo struct {
	// The betting-closure rule gives the aggressor two turns: the first offers
	// the usual actions, the second (betting has come back around unraised)
	// offers raise-or-showdown. This tracks which one the aggressor is on.
	IsAggressorsFirstTurn bool
}

// transition leaves the current state and enters next, handing over any
// carried data.
func (s *Server) transition(next StateID, data interface{}) {
	if hooks, ok := s.states[s.current]; ok && hooks.leave != nil {
		hooks.leave()
	}

	if s.current != next {
		s.Logger.Infof("[%s] game state %v -> %v", s.Name, s.current, next)
	}
	s.current = next

	if hooks, ok := s.states[next]; ok && hooks.enter != nil {
		hooks.enter(data)
	}
}

// CurrentState exposes the active state, mostly for tests and logging.
func (s *Server) CurrentState() StateID {
	return s.current
}
