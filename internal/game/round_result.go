package game

// roundResultEnter resolves the showdown, settles the pot, pushes the result
// to every seat, and either starts the next round or ends the game.
func (s *Server) roundResultEnter(interface{}) {
	winner := s.resolveShowdown()

	if winner >= 0 {
		pot := 0
		for i := range s.state.PlayerInfos {
			info := &s.state.PlayerInfos[i]
			pot += info.Bet
			info.NetWorth -= info.Bet
		}
		s.state.PlayerInfos[winner].NetWorth += pot

		s.Logger.Infof("[%s] seat %d (%s) wins the pot of %d",
			s.Name, winner, s.state.PlayerInfos[winner].Name, pot)
	} else {
		s.Logger.Warnf("[%s] showdown produced no winner; bets returned", s.Name)
	}

	for i := range s.state.PlayerInfos {
		info := &s.state.PlayerInfos[i]
		info.Bet = 0
		info.StateData = ""
		info.AvailableActions = nil
	}

	s.pushGameState()

	if s.seatsWithChips() >= 2 {
		next := (s.state.Dealer + 1) % len(s.state.PlayerInfos)
		s.transition(StatePlayersTurn, roundStart{Dealer: next})
	} else {
		s.transition(StateGameOver, nil)
	}
}

// resolveShowdown ranks every non-folded hand and returns the winning seat,
// or -1 if no hand could be ranked.
func (s *Server) resolveShowdown() int {
	winner := -1

	for seat := range s.state.PlayerInfos {
		info := &s.state.PlayerInfos[seat]
		if info.IsFolded || len(info.MainHand) == 0 {
			continue
		}

		if winner < 0 {
			winner = seat
			continue
		}

		cmp, err := s.Compare(info.MainHand, s.state.PlayerInfos[winner].MainHand)
		if err != nil {
			s.Logger.Warnf("[%s] could not rank seat %d's hand: %v", s.Name, seat, err)
			continue
		}
		// Ties go to the earlier seat.
		if cmp > 0 {
			winner = seat
		}
	}

	return winner
}

// seatsWithChips counts the seats still able to post the minimum raise.
func (s *Server) seatsWithChips() int {
	count := 0
	for i := range s.state.PlayerInfos {
		if s.state.PlayerInfos[i].NetWorth >= s.Config.Game.MinRaiseUnit {
			count++
		}
	}
	return count
}

// gameOverEnter pushes the final standings. The state is terminal: no further
// requests are handled beyond handshakes from reconnecting spectators.
func (s *Server) gameOverEnter(interface{}) {
	for i := range s.state.PlayerInfos {
		info := &s.state.PlayerInfos[i]
		info.StateData = ""
		info.AvailableActions = nil
	}

	s.state.ActivePlayer = -1
	s.pushGameState()

	s.Logger.Infof("[%s] game over", s.Name)
}
