package protocol

// GameStateInfo is the shared round state pushed to clients. The Is*Changed
// flags support the delta encoding: a receiver applies a field only when its
// flag is set, so a full snapshot is simply a delta with every flag set.
type GameStateInfo struct {
	IsPlayerIDChanged bool `json:"isPlayerIdChanged"`
	// Seat index of the receiving player, so the client can find itself in
	// PlayerInfos.
	PlayerID int `json:"playerId"`

	PlayerInfos []PlayerInfo `json:"playerInfos"`

	IsDealerChanged bool `json:"isDealerChanged"`
	Dealer          int  `json:"dealer"`

	IsAggressorChanged bool `json:"isAggressorChanged"`
	Aggressor          int  `json:"aggressor"`

	IsActivePlayerChanged bool `json:"isActivePlayerChanged"`
	ActivePlayer          int  `json:"activePlayer"`

	IsTimerStartTimestampMsChanged bool  `json:"isTimerStartTimestampMsChanged"`
	TimerStartTimestampMs          int64 `json:"timerStartTimestampMs"`

	IsTimerIntervalMsChanged bool  `json:"isTimerIntervalMsChanged"`
	TimerIntervalMs          int64 `json:"timerIntervalMs"`
}

// PlayerInfo is one seat's slice of the shared state. MainHand, StateData and
// AvailableActions are private: they are cleared for every seat other than
// the receiver before the state leaves the server.
type PlayerInfo struct {
	IsNameChanged bool   `json:"isNameChanged"`
	Name          string `json:"name"`

	IsNetWorthChanged bool `json:"isNetWorthChanged"`
	NetWorth          int  `json:"netWorth"`

	IsBetChanged bool `json:"isBetChanged"`
	Bet          int  `json:"bet"`

	IsIsFoldedChanged bool `json:"isIsFoldedChanged"`
	IsFolded          bool `json:"isFolded"`

	IsMainHandChanged bool     `json:"isMainHandChanged"`
	MainHand          []string `json:"mainHand"`

	IsAvailableActionsChanged bool     `json:"isAvailableActionsChanged"`
	AvailableActions          []string `json:"availableActions"`

	// Opaque blob the active game state uses to encode which actions are
	// legal for this seat right now.
	IsStateDataChanged bool   `json:"isStateDataChanged"`
	StateData          string `json:"stateData"`
}

// Copy returns a deep copy of the state.
func (g *GameStateInfo) Copy() *GameStateInfo {
	ret := *g
	ret.PlayerInfos = make([]PlayerInfo, len(g.PlayerInfos))
	for i := range g.PlayerInfos {
		ret.PlayerInfos[i] = *g.PlayerInfos[i].Copy()
	}
	return &ret
}

// Copy returns a deep copy of the seat info.
func (p *PlayerInfo) Copy() *PlayerInfo {
	ret := *p
	ret.MainHand = append([]string(nil), p.MainHand...)
	ret.AvailableActions = append([]string(nil), p.AvailableActions...)
	return &ret
}
