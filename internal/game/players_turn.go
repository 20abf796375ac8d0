package game

import (
	"github.com/nxyexiong/CardGameDemo/internal/protocol"
	"github.com/nxyexiong/CardGameDemo/internal/server"
)

// PlayersTurnStateData is the opaque per-seat blob PlayersTurn stores in each
// PlayerInfo to record which actions are legal for that seat right now.
type PlayersTurnStateData struct {
	GeneralActions []string `json:"generalActions"`
}

// playersTurnEnter recomputes every seat's legal actions and pushes the
// resulting views. When entered with roundStart data it first resets the
// table for a fresh round.
func (s *Server) playersTurnEnter(data interface{}) {
	if rs, ok := data.(roundStart); ok {
		s.initRound(rs.Dealer)
	}

	s.updateStateData()
	s.pushGameState()
}

// initRound deals a fresh round: bets cleared, hands dealt, dealer seat
// opening as both aggressor and active seat.
func (s *Server) initRound(dealer int) {
	pile := NewPile(s.rng, false)
	pile.Shuffle()

	for i := range s.state.PlayerInfos {
		info := &s.state.PlayerInfos[i]
		info.Bet = 0
		info.IsFolded = false
		info.MainHand = nil
		for n := 0; n < s.Config.Game.HandSize; n++ {
			card, ok := pile.Draw()
			if !ok {
				s.Logger.Errorf("[%s] draw pile exhausted dealing seat %d", s.Name, i)
				break
			}
			info.MainHand = append(info.MainHand, card.String())
		}
	}

	s.state.Dealer = dealer
	s.state.Aggressor = dealer
	s.state.ActivePlayer = dealer
	s.serverState.IsAggressorsFirstTurn = true
	s.resetTimer()

	s.Logger.Infof("[%s] round started: dealer seat %d", s.Name, dealer)
}

// updateStateData derives, per seat, the set of legal actions from the
// canonical state and stores it in that seat's StateData.
func (s *Server) updateStateData() {
	highestBet := s.highestBet()

	for seat := range s.state.PlayerInfos {
		info := &s.state.PlayerInfos[seat]
		stateData := &PlayersTurnStateData{GeneralActions: []string{}}

		if seat == s.state.ActivePlayer {
			if seat == s.state.Aggressor {
				if s.serverState.IsAggressorsFirstTurn {
					// Aggressor's first turn.
					stateData.GeneralActions = append(stateData.GeneralActions,
						protocol.ActionFollowBet, protocol.ActionRaiseBet, protocol.ActionFold)
					s.serverState.IsAggressorsFirstTurn = false
				} else {
					// Betting came back around unraised: raise again or show.
					stateData.GeneralActions = append(stateData.GeneralActions,
						protocol.ActionRaiseBet, protocol.ActionShowdown)
				}
			} else {
				if highestBet <= info.NetWorth {
					stateData.GeneralActions = append(stateData.GeneralActions, protocol.ActionFollowBet)
				}
				if highestBet < info.NetWorth {
					stateData.GeneralActions = append(stateData.GeneralActions, protocol.ActionRaiseBet)
				}
				stateData.GeneralActions = append(stateData.GeneralActions, protocol.ActionFold)
			}
		}
		// Non-active seats get no actions.

		info.StateData = mustMarshal(stateData)
		info.AvailableActions = append([]string(nil), stateData.GeneralActions...)
	}
}

// playersTurnRequest validates the envelope and defers the action itself to a
// post-send callback so the client sees its response before the resulting
// state push.
func (s *Server) playersTurnRequest(c *server.Client, msgType, requestData string) (string, func(), bool) {
	if msgType != protocol.DoGeneralActionReqType {
		return "", nil, false
	}

	info := s.registry.LookupByClient(c)
	if info == nil {
		s.Logger.Warnf("[%s] action from unbound socket %s", s.Name, c.RemoteKey())
		return mustMarshal(&protocol.DoGeneralActionResponse{Success: false}), nil, true
	}

	done := func() {
		var req protocol.DoGeneralActionRequest
		if err := protocol.UnmarshalPayload(requestData, &req); err != nil {
			s.Logger.Warnf("[%s] action request parse failed from seat %d: %v", s.Name, info.Seat, err)
			return
		}
		s.onDoGeneralAction(info.Seat, req.Action, req.Data)
	}

	return mustMarshal(&protocol.DoGeneralActionResponse{Success: true}), done, true
}

// onDoGeneralAction applies one validated action to canonical state. Invalid
// or out-of-turn actions never mutate state; they are logged no-ops.
func (s *Server) onDoGeneralAction(seat int, action, actionData string) {
	playerCount := len(s.state.PlayerInfos)
	info := &s.state.PlayerInfos[seat]

	var stateData PlayersTurnStateData
	if err := protocol.UnmarshalPayload(info.StateData, &stateData); err != nil {
		s.Logger.Warnf("[%s] seat %d has no usable state data: %v", s.Name, seat, err)
		return
	}
	if !containsAction(stateData.GeneralActions, action) {
		s.Logger.Warnf("[%s] seat %d submitted illegal action %q", s.Name, seat, action)
		return
	}

	switch action {
	case protocol.ActionFollowBet:
		info.Bet = s.highestBet()

	case protocol.ActionRaiseBet:
		var raise protocol.RaiseBetData
		if err := protocol.UnmarshalPayload(actionData, &raise); err != nil {
			s.Logger.Warnf("[%s] seat %d raise data parse failed: %v", s.Name, seat, err)
			return
		}
		if raise.Bet <= 0 ||
			raise.Bet%s.Config.Game.MinRaiseUnit != 0 ||
			raise.Bet > info.NetWorth-info.Bet {
			s.Logger.Warnf("[%s] seat %d invalid raise amount %d", s.Name, seat, raise.Bet)
			return
		}
		info.Bet += raise.Bet
		s.state.Aggressor = seat

	case protocol.ActionFold:
		info.IsFolded = true

	case protocol.ActionShowdown:
		s.transition(StateRoundResult, nil)
		return
	}

	s.state.ActivePlayer = (s.state.ActivePlayer + 1) % playerCount
	s.resetTimer()
	s.transition(StatePlayersTurn, nil)
}

func containsAction(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
