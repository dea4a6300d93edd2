package domain

import "sort"

// WinnerReason explains how the winner beat the remaining field.
type WinnerReason string

const (
	WinnerHighestScore             WinnerReason = "highest_score"
	WinnerImpostorSurvivalTiebreak WinnerReason = "impostor_survival_tiebreak"
	WinnerRandomTiebreak           WinnerReason = "random_tiebreak"
)

// Standing is one row of the final ranking.
type Standing struct {
	PlayerID             string `json:"playerId"`
	Name                 string `json:"name"`
	TotalPoints          int    `json:"totalPoints"`
	ImpostorSurvivalWins int    `json:"impostorSurvivalWins"`
}

// WinnerSummary is the end-of-game result.
type WinnerSummary struct {
	WinnerID  string       `json:"winnerId"`
	Reason    WinnerReason `json:"reason"`
	Standings []Standing   `json:"standings"`
}

// FinalContenders returns the players still tied after the score and
// survival-win ladders. Callers use it to draw a random tie winner when
// ComputeWinnerSummary reports missing_tiebreak.
func (g GameState) FinalContenders() []string {
	_, survivalTied := g.rankContenders()
	return survivalTied
}

// ComputeWinnerSummary ranks the scoreboard once the game is over.
// Score ties fall through to impostor survival wins; a residual tie
// requires a caller-supplied random winner drawn from the tied group.
func (g GameState) ComputeWinnerSummary(randomTieWinnerID string) (WinnerSummary, error) {
	if g.Phase != PhaseGameOver {
		return WinnerSummary{}, ErrInvalidPhase
	}
	if len(g.Players) == 0 {
		return WinnerSummary{}, newError(CodeInvalidRound, "no players left to rank")
	}

	scoreTied, survivalTied := g.rankContenders()
	summary := WinnerSummary{Standings: g.standings()}

	switch {
	case len(scoreTied) == 1:
		summary.WinnerID = scoreTied[0]
		summary.Reason = WinnerHighestScore
	case len(survivalTied) == 1:
		summary.WinnerID = survivalTied[0]
		summary.Reason = WinnerImpostorSurvivalTiebreak
	default:
		for _, id := range survivalTied {
			if id == randomTieWinnerID {
				summary.WinnerID = id
				summary.Reason = WinnerRandomTiebreak
			}
		}
		if summary.WinnerID == "" {
			return WinnerSummary{}, newError(CodeMissingTiebreak,
				"%d players remain tied, random tie winner required", len(survivalTied))
		}
	}
	return summary, nil
}

// rankContenders returns the group tied for the top score, then the
// subgroup of those also tied for the most impostor survival wins. Both
// are in join order for determinism.
func (g GameState) rankContenders() (scoreTied, survivalTied []string) {
	maxPoints := 0
	first := true
	for _, id := range g.PlayerOrder {
		entry := g.Scoreboard[id]
		if first || entry.TotalPoints > maxPoints {
			maxPoints = entry.TotalPoints
			first = false
		}
	}
	for _, id := range g.PlayerOrder {
		if g.Scoreboard[id].TotalPoints == maxPoints {
			scoreTied = append(scoreTied, id)
		}
	}

	maxWins := 0
	for _, id := range scoreTied {
		if g.Scoreboard[id].ImpostorSurvivalWins > maxWins {
			maxWins = g.Scoreboard[id].ImpostorSurvivalWins
		}
	}
	for _, id := range scoreTied {
		if g.Scoreboard[id].ImpostorSurvivalWins == maxWins {
			survivalTied = append(survivalTied, id)
		}
	}
	return scoreTied, survivalTied
}

func (g GameState) standings() []Standing {
	out := make([]Standing, 0, len(g.Players))
	for _, id := range g.PlayerOrder {
		entry := g.Scoreboard[id]
		out = append(out, Standing{
			PlayerID:             id,
			Name:                 g.Players[id].Name,
			TotalPoints:          entry.TotalPoints,
			ImpostorSurvivalWins: entry.ImpostorSurvivalWins,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].ImpostorSurvivalWins > out[j].ImpostorSurvivalWins
	})
	return out
}
