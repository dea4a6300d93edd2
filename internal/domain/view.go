package domain

import "time"

// PlayerView is the safe projection of a player shown to everyone.
type PlayerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"isHost"`
	Connected   bool   `json:"connected"`
	HasAnswered bool   `json:"hasAnswered"`
	HasVoted    bool   `json:"hasVoted"`
}

// RevealedAnswer is one disclosed answer, in active-player order.
type RevealedAnswer struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Answer   string `json:"answer"`
}

// RoundView is the round as a given viewer may see it. Prompt and role
// fields are redacted by phase and by the viewer's own role.
type RoundView struct {
	RoundNumber        int              `json:"roundNumber"`
	Phase              GamePhase        `json:"phase"`
	ActivePlayerIDs    []string         `json:"activePlayerIds"`
	SatOutPlayerID     string           `json:"satOutPlayerId,omitempty"`
	YourRole           Role             `json:"yourRole,omitempty"`
	YourPrompt         string           `json:"yourPrompt,omitempty"`
	SharedPrompt       string           `json:"sharedPrompt,omitempty"`   // public from reveal on
	ImpostorPrompt     string           `json:"impostorPrompt,omitempty"` // public at round_result
	RevealedAnswers    []RevealedAnswer `json:"revealedAnswers,omitempty"`
	DiscussionDeadline time.Time        `json:"discussionDeadline,omitzero"`
	VotesCast          int              `json:"votesCast"`
	VoteCounts         map[string]int   `json:"voteCounts,omitempty"` // only at round_result
	Roles              map[string]Role  `json:"roles,omitempty"`      // only at round_result
	EliminatedPlayerID string           `json:"eliminatedPlayerId,omitempty"`
}

// HostDisconnectionView is the public slice of the continuity record.
type HostDisconnectionView struct {
	Deadline       time.Time `json:"deadline"`
	Extended       bool      `json:"extended"`
	TransferVotes  int       `json:"transferVotes"`
	RequiredVoters int       `json:"requiredVoters"`
}

// GameView is the role-appropriate projection of the whole game for one
// viewer.
type GameView struct {
	LobbyID           string                 `json:"lobbyId"`
	ViewerID          string                 `json:"viewerId"`
	Status            Status                 `json:"status"`
	Phase             GamePhase              `json:"phase"`
	Players           []PlayerView           `json:"players"`
	HostID            string                 `json:"hostId"`
	Settings          Settings               `json:"settings"`
	Scoreboard        map[string]ScoreEntry  `json:"scoreboard"`
	CompletedRounds   int                    `json:"completedRounds"`
	Round             *RoundView             `json:"round,omitempty"`
	HostDisconnection *HostDisconnectionView `json:"hostDisconnection,omitempty"`
}

// ViewFor projects the state for one viewer without leaking hidden
// information: roles and the impostor prompt stay private until
// round_result, answers appear only as far as the reveal counter allows,
// and votes surface as a count until resolution.
func (g GameState) ViewFor(viewerID string) GameView {
	view := GameView{
		LobbyID:         g.LobbyID,
		ViewerID:        viewerID,
		Status:          g.Status,
		Phase:           g.Phase,
		HostID:          g.HostID(),
		Settings:        g.Settings,
		CompletedRounds: g.CompletedRounds,
		Scoreboard:      make(map[string]ScoreEntry, len(g.Scoreboard)),
	}
	for id, entry := range g.Scoreboard {
		view.Scoreboard[id] = entry
	}
	for _, id := range g.PlayerOrder {
		p := g.Players[id]
		pv := PlayerView{ID: p.ID, Name: p.Name, IsHost: p.IsHost, Connected: p.Connected}
		if g.CurrentRound != nil {
			_, pv.HasAnswered = g.CurrentRound.Answers[id]
			_, pv.HasVoted = g.CurrentRound.Votes[id]
		}
		view.Players = append(view.Players, pv)
	}

	if g.CurrentRound != nil {
		view.Round = g.roundViewFor(viewerID)
	}
	if g.HostDisconnection != nil {
		required := 0
		for _, id := range g.PlayerOrder {
			if p := g.Players[id]; !p.IsHost && p.Connected {
				required++
			}
		}
		view.HostDisconnection = &HostDisconnectionView{
			Deadline:       g.HostDisconnection.Deadline,
			Extended:       g.HostDisconnection.Extended,
			TransferVotes:  len(g.HostDisconnection.TransferVotes),
			RequiredVoters: required,
		}
	}
	return view
}

func (g GameState) roundViewFor(viewerID string) *RoundView {
	round := g.CurrentRound
	rv := &RoundView{
		RoundNumber:        round.RoundNumber,
		Phase:              round.Phase,
		ActivePlayerIDs:    append([]string(nil), round.ActivePlayerIDs...),
		SatOutPlayerID:     round.SatOutPlayerID,
		DiscussionDeadline: round.DiscussionDeadline,
		VotesCast:          len(round.Votes),
	}

	// The viewer's own role and matching prompt, once assigned.
	if role, ok := round.Roles[viewerID]; ok {
		rv.YourRole = role
		if role.IsImpostor() {
			rv.YourPrompt = round.QuestionPair.ImpostorPrompt
		} else {
			rv.YourPrompt = round.QuestionPair.Prompt
		}
	}

	// The shared question goes public at reveal; the impostor variant
	// only once the round is resolved.
	if round.Phase != PhasePrompting {
		rv.SharedPrompt = round.QuestionPair.Prompt
	}
	if round.Phase == PhaseRoundResult {
		rv.ImpostorPrompt = round.QuestionPair.ImpostorPrompt
		rv.EliminatedPlayerID = round.EliminatedPlayerID
		tally := round.Tally()
		rv.VoteCounts = tally.Counts
		rv.Roles = make(map[string]Role, len(round.Roles))
		for id, role := range round.Roles {
			rv.Roles[id] = role
		}
	}

	// Disclosed answers, bounded by the reveal counter. The counter only
	// advances past prompting, so nothing leaks early.
	if round.Phase != PhasePrompting {
		limit := round.RevealedAnswerCount
		if round.Phase != PhaseReveal {
			limit = len(round.ActivePlayerIDs)
		}
		for i, id := range round.ActivePlayerIDs {
			if i >= limit {
				break
			}
			rv.RevealedAnswers = append(rv.RevealedAnswers, RevealedAnswer{
				PlayerID: id,
				Name:     g.Players[id].Name,
				Answer:   round.Answers[id],
			})
		}
	}
	return rv
}
