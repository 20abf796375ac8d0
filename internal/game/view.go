package game

import (
	"github.com/nxyexiong/CardGameDemo/internal/protocol"
)

// Project produces the view of canonical state a single seat is allowed to
// see: a deep copy with every other seat's private information (hand, legal
// actions, state data) cleared. This is the only way private information
// leaves the state machine.
func Project(state *protocol.GameStateInfo, forSeat int) *protocol.GameStateInfo {
	snapshot := state.Copy()
	snapshot.PlayerID = forSeat

	for i := range snapshot.PlayerInfos {
		if i == forSeat {
			continue
		}
		snapshot.PlayerInfos[i].MainHand = nil
		snapshot.PlayerInfos[i].AvailableActions = nil
		snapshot.PlayerInfos[i].StateData = ""
	}

	return snapshot
}

// Diff expresses next as a changeset against prev, setting the changed flag
// on every scalar whose value differs. A nil prev yields a full snapshot with
// every flag set. The seat list always carries len(next.PlayerInfos) entries
// so the receiver can grow or shrink its local list to match.
func Diff(prev, next *protocol.GameStateInfo) *protocol.GameStateInfo {
	delta := next.Copy()

	if prev == nil {
		delta.IsPlayerIDChanged = true
		delta.IsDealerChanged = true
		delta.IsAggressorChanged = true
		delta.IsActivePlayerChanged = true
		delta.IsTimerStartTimestampMsChanged = true
		delta.IsTimerIntervalMsChanged = true
		for i := range delta.PlayerInfos {
			markAllPlayerFields(&delta.PlayerInfos[i])
		}
		return delta
	}

	delta.IsPlayerIDChanged = prev.PlayerID != next.PlayerID
	delta.IsDealerChanged = prev.Dealer != next.Dealer
	delta.IsAggressorChanged = prev.Aggressor != next.Aggressor
	delta.IsActivePlayerChanged = prev.ActivePlayer != next.ActivePlayer
	delta.IsTimerStartTimestampMsChanged = prev.TimerStartTimestampMs != next.TimerStartTimestampMs
	delta.IsTimerIntervalMsChanged = prev.TimerIntervalMs != next.TimerIntervalMs

	for i := range delta.PlayerInfos {
		if i >= len(prev.PlayerInfos) {
			// Seat the receiver hasn't seen yet; send everything.
			markAllPlayerFields(&delta.PlayerInfos[i])
			continue
		}
		diffPlayerFields(&prev.PlayerInfos[i], &next.PlayerInfos[i], &delta.PlayerInfos[i])
	}

	return delta
}

// Apply is the reducer counterpart of Diff: it merges a changeset into a
// previous snapshot, reconciling the seat list length and applying each field
// only when its changed flag is set. A nil prev applies the delta to an empty
// state.
func Apply(prev, delta *protocol.GameStateInfo) *protocol.GameStateInfo {
	var next *protocol.GameStateInfo
	if prev == nil {
		next = &protocol.GameStateInfo{}
	} else {
		next = prev.Copy()
	}

	if delta.IsPlayerIDChanged {
		next.PlayerID = delta.PlayerID
	}
	if delta.IsDealerChanged {
		next.Dealer = delta.Dealer
	}
	if delta.IsAggressorChanged {
		next.Aggressor = delta.Aggressor
	}
	if delta.IsActivePlayerChanged {
		next.ActivePlayer = delta.ActivePlayer
	}
	if delta.IsTimerStartTimestampMsChanged {
		next.TimerStartTimestampMs = delta.TimerStartTimestampMs
	}
	if delta.IsTimerIntervalMsChanged {
		next.TimerIntervalMs = delta.TimerIntervalMs
	}

	// Reconcile the seat list length before applying per-seat fields.
	if len(next.PlayerInfos) > len(delta.PlayerInfos) {
		next.PlayerInfos = next.PlayerInfos[:len(delta.PlayerInfos)]
	}
	for len(next.PlayerInfos) < len(delta.PlayerInfos) {
		next.PlayerInfos = append(next.PlayerInfos, protocol.PlayerInfo{})
	}

	for i := range delta.PlayerInfos {
		applyPlayerFields(&next.PlayerInfos[i], &delta.PlayerInfos[i])
	}

	return next
}

func markAllPlayerFields(p *protocol.PlayerInfo) {
	p.IsNameChanged = true
	p.IsNetWorthChanged = true
	p.IsBetChanged = true
	p.IsIsFoldedChanged = true
	p.IsMainHandChanged = true
	p.IsAvailableActionsChanged = true
	p.IsStateDataChanged = true
}

func diffPlayerFields(prev, next, delta *protocol.PlayerInfo) {
	delta.IsNameChanged = prev.Name != next.Name
	delta.IsNetWorthChanged = prev.NetWorth != next.NetWorth
	delta.IsBetChanged = prev.Bet != next.Bet
	delta.IsIsFoldedChanged = prev.IsFolded != next.IsFolded
	delta.IsMainHandChanged = !stringSlicesEqual(prev.MainHand, next.MainHand)
	delta.IsAvailableActionsChanged = !stringSlicesEqual(prev.AvailableActions, next.AvailableActions)
	delta.IsStateDataChanged = prev.StateData != next.StateData
}

func applyPlayerFields(next, delta *protocol.PlayerInfo) {
	if delta.IsNameChanged {
		next.Name = delta.Name
	}
	if delta.IsNetWorthChanged {
		next.NetWorth = delta.NetWorth
	}
	if delta.IsBetChanged {
		next.Bet = delta.Bet
	}
	if delta.IsIsFoldedChanged {
		next.IsFolded = delta.IsFolded
	}
	if delta.IsMainHandChanged {
		next.MainHand = append([]string(nil), delta.MainHand...)
	}
	if delta.IsAvailableActionsChanged {
		next.AvailableActions = append([]string(nil), delta.AvailableActions...)
	}
	if delta.IsStateDataChanged {
		next.StateData = delta.StateData
	}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
