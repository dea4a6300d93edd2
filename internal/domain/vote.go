package domain

// VoteTally is the deterministic count of votes per active player.
type VoteTally struct {
	Counts  map[string]int `json:"counts"`
	Leaders []string       `json:"leaders"` // every player sharing the maximum, in active order
}

// CastVote records (or, when the policy allows, replaces) an active
// player's vote for another active player.
func (g GameState) CastVote(voterID, targetID string) (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseVoting {
		return GameState{}, ErrInvalidPhase
	}
	if !g.CurrentRound.isActive(voterID) || !g.CurrentRound.isActive(targetID) {
		return GameState{}, ErrPlayerNotActive
	}
	if voterID == targetID {
		return GameState{}, ErrSelfVoteForbidden
	}
	if _, voted := g.CurrentRound.Votes[voterID]; voted && !g.CurrentRound.Policy.AllowVoteChanges {
		return GameState{}, ErrVoteLocked
	}

	next := g.Clone()
	next.CurrentRound.Votes[voterID] = targetID
	return next, nil
}

// Tally counts the round's votes over the active players. Votes for
// untracked targets are ignored rather than erroring; CastVote cannot
// produce them, but a defensive tally costs nothing.
func (r RoundState) Tally() VoteTally {
	counts := make(map[string]int, len(r.ActivePlayerIDs))
	for _, id := range r.ActivePlayerIDs {
		counts[id] = 0
	}
	for _, target := range r.Votes {
		if _, tracked := counts[target]; tracked {
			counts[target]++
		}
	}

	maxVotes := 0
	for _, id := range r.ActivePlayerIDs {
		if counts[id] > maxVotes {
			maxVotes = counts[id]
		}
	}
	leaders := make([]string, 0, 1)
	for _, id := range r.ActivePlayerIDs {
		if counts[id] == maxVotes {
			leaders = append(leaders, id)
		}
	}
	return VoteTally{Counts: counts, Leaders: leaders}
}

// CloseVotingAndResolve tallies the votes and moves to round_result with
// the eliminated player set. A tie for the maximum requires the caller
// to supply a loser drawn from the tied set.
func (g GameState) CloseVotingAndResolve(allowMissingVotes bool, tieBreakLoserID string) (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseVoting {
		return GameState{}, ErrInvalidPhase
	}
	if !allowMissingVotes && len(g.CurrentRound.Votes) < len(g.CurrentRound.ActivePlayerIDs) {
		return GameState{}, newError(CodeMissingVotes, "%d of %d votes cast",
			len(g.CurrentRound.Votes), len(g.CurrentRound.ActivePlayerIDs))
	}

	tally := g.CurrentRound.Tally()
	eliminated := ""
	switch {
	case len(tally.Leaders) == 1:
		eliminated = tally.Leaders[0]
	default:
		for _, id := range tally.Leaders {
			if id == tieBreakLoserID {
				eliminated = id
				break
			}
		}
		if eliminated == "" {
			return GameState{}, newError(CodeMissingTiebreak,
				"%d players tied for the most votes, tie-break required", len(tally.Leaders))
		}
	}

	next := g.Clone()
	next.CurrentRound.EliminatedPlayerID = eliminated
	next.CurrentRound.Phase = PhaseRoundResult
	next.Phase = PhaseRoundResult
	return next, nil
}
