package domain

import "time"

// HostDisconnectGrace is the initial window a disconnected host has to
// return before the game is forfeited.
const HostDisconnectGrace = 5 * time.Minute

// HostDisconnection exists only while the host is disconnected. It is
// destroyed on reconnect, on a unanimous transfer, or when the deadline
// forfeits the game.
type HostDisconnection struct {
	DisconnectedAt time.Time         `json:"disconnectedAt"`
	Deadline       time.Time         `json:"deadline"`
	Extended       bool              `json:"extended"` // one-shot grace extension used
	StatusBefore   Status            `json:"statusBefore"`
	TransferVotes  map[string]string `json:"transferVotes"` // voter id -> nominee id
}

func (h HostDisconnection) clone() HostDisconnection {
	next := h
	next.TransferVotes = make(map[string]string, len(h.TransferVotes))
	for voter, nominee := range h.TransferVotes {
		next.TransferVotes[voter] = nominee
	}
	return next
}

func (h *HostDisconnection) removeVoter(playerID string) {
	delete(h.TransferVotes, playerID)
	for voter, nominee := range h.TransferVotes {
		if nominee == playerID {
			delete(h.TransferVotes, voter)
		}
	}
}

// SetPlayerConnection flips a player's connection flag. For the host it
// also drives the continuity protocol: disconnecting pauses the game and
// opens a timed window; reconnecting restores the captured status.
func (g GameState) SetPlayerConnection(playerID string, connected bool, now time.Time) (GameState, error) {
	player, ok := g.Players[playerID]
	if !ok {
		return GameState{}, ErrPlayerNotFound
	}
	wasConnected := player.Connected

	next := g.Clone()
	player.Connected = connected
	next.Players[playerID] = player

	if !player.IsHost {
		// A required transfer voter dropping out shrinks the required
		// set, which can complete unanimity among the rest.
		if wasConnected && !connected {
			next.maybeExecuteHostTransfer()
		}
		return next, nil
	}

	switch {
	case wasConnected && !connected && next.Status != StatusEnded:
		next.HostDisconnection = &HostDisconnection{
			DisconnectedAt: now,
			Deadline:       now.Add(HostDisconnectGrace),
			StatusBefore:   next.Status,
			TransferVotes:  make(map[string]string),
		}
		next.Status = StatusPaused

	case !wasConnected && connected && next.HostDisconnection != nil:
		next.Status = next.HostDisconnection.StatusBefore
		if next.Phase == PhaseGameOver {
			next.Status = StatusEnded
		}
		next.HostDisconnection = nil
	}

	return next, nil
}

// CastHostTransferVote records a connected non-host player's nomination
// while the host is away. The transfer executes only when every
// connected non-host player nominates the same replacement.
func (g GameState) CastHostTransferVote(voterID, nomineeID string) (GameState, error) {
	if g.HostDisconnection == nil {
		return GameState{}, ErrHostNotDisconnected
	}
	voter, ok := g.Players[voterID]
	if !ok || voter.IsHost || !voter.Connected {
		return GameState{}, newError(CodeInvalidHostTransferVote, "voter must be a connected non-host player")
	}
	nominee, ok := g.Players[nomineeID]
	if !ok || nominee.IsHost || !nominee.Connected {
		return GameState{}, newError(CodeInvalidHostTransferVote, "nominee must be a connected non-host player")
	}

	next := g.Clone()
	next.HostDisconnection.TransferVotes[voterID] = nomineeID
	next.maybeExecuteHostTransfer()
	return next, nil
}

// maybeExecuteHostTransfer swaps the host flag to the unanimous nominee
// if every required voter (connected non-host player) has nominated the
// same still-eligible player. No-op otherwise.
func (g *GameState) maybeExecuteHostTransfer() {
	hd := g.HostDisconnection
	if hd == nil {
		return
	}

	nominee := ""
	required := 0
	for _, id := range g.PlayerOrder {
		p := g.Players[id]
		if p.IsHost || !p.Connected {
			continue
		}
		required++
		vote, ok := hd.TransferVotes[id]
		if !ok {
			return
		}
		if nominee == "" {
			nominee = vote
		} else if nominee != vote {
			return
		}
	}
	if required == 0 || nominee == "" {
		return
	}
	chosen, ok := g.Players[nominee]
	if !ok || chosen.IsHost || !chosen.Connected {
		return
	}

	oldHostID := g.HostID()
	if oldHostID != "" {
		oldHost := g.Players[oldHostID]
		oldHost.IsHost = false
		g.Players[oldHostID] = oldHost
	}
	chosen.IsHost = true
	g.Players[nominee] = chosen

	g.Status = hd.StatusBefore
	if g.Phase == PhaseGameOver {
		g.Status = StatusEnded
	}
	g.HostDisconnection = nil
}

// ApplyHostDisconnectTimeout forfeits the game once the deadline has
// passed, and is otherwise a no-op. The outcome is terminal: an
// unresponsive host ends the session rather than stalling it.
func (g GameState) ApplyHostDisconnectTimeout(now time.Time) (GameState, error) {
	if g.HostDisconnection == nil || now.Before(g.HostDisconnection.Deadline) {
		return g, nil
	}

	next := g.Clone()
	next.Status = StatusEnded
	next.Phase = PhaseGameOver
	next.CurrentRound = nil
	next.HostDisconnection = nil
	return next, nil
}

// ExtendHostDisconnectPause grants the one-shot grace extension,
// recomputing the deadline from the disconnect time and the configured
// watchdog window.
func (g GameState) ExtendHostDisconnectPause() (GameState, error) {
	if g.HostDisconnection == nil {
		return GameState{}, ErrHostNotDisconnected
	}
	if g.HostDisconnection.Extended {
		return GameState{}, ErrPauseExtensionUnavailable
	}

	next := g.Clone()
	next.HostDisconnection.Deadline = next.HostDisconnection.DisconnectedAt.
		Add(time.Duration(next.Settings.PausedWatchdogSeconds) * time.Second)
	next.HostDisconnection.Extended = true
	return next, nil
}
