package domain

// applyRoundScores adds the round's point deltas to the scoreboard.
// Scoring only ever adds to pre-existing totals; entries are never reset
// or overwritten wholesale. Players removed mid-round have no scoreboard
// entry left and receive nothing.
func applyRoundScores(scoreboard map[string]ScoreEntry, round *RoundState, scoring ScoringSettings) {
	addPoints := func(playerID string, delta int) {
		entry, ok := scoreboard[playerID]
		if !ok {
			return
		}
		entry.TotalPoints += delta
		scoreboard[playerID] = entry
	}
	addSurvivalWin := func(playerID string) {
		entry, ok := scoreboard[playerID]
		if !ok {
			return
		}
		entry.TotalPoints += scoring.ImpostorSurvivesPoints
		entry.ImpostorSurvivalWins++
		scoreboard[playerID] = entry
	}

	impostors := make([]string, 0, 2)
	for _, id := range round.ActivePlayerIDs {
		if round.Roles[id].IsImpostor() {
			impostors = append(impostors, id)
		}
	}
	eachCrew := func(fn func(playerID string)) {
		for _, id := range round.ActivePlayerIDs {
			if round.Roles[id] == RoleCrew {
				fn(id)
			}
		}
	}

	eliminated := round.EliminatedPlayerID
	eliminatedIsImpostor := eliminated != "" && round.Roles[eliminated].IsImpostor()
	eliminatedIsCrew := eliminated != "" && round.Roles[eliminated] == RoleCrew

	penalizeEliminatedCrew := func() {
		if eliminatedIsCrew && scoring.CrewVotedOutPenaltyEnabled {
			addPoints(eliminated, scoring.CrewVotedOutPenaltyPoints)
		}
	}

	switch round.ImpostorCount {
	case 0:
		penalizeEliminatedCrew()

	case 1:
		if eliminatedIsImpostor {
			eachCrew(func(id string) {
				addPoints(id, scoring.CrewVotesOutImpostorPoints)
			})
			return
		}
		for _, id := range impostors {
			addSurvivalWin(id)
		}
		penalizeEliminatedCrew()

	case 2:
		if eliminatedIsImpostor {
			for _, id := range impostors {
				if id != eliminated {
					addSurvivalWin(id)
				}
			}
			eachCrew(func(id string) {
				addPoints(id, scoring.CrewVotesOutImpostorPoints)
			})
			return
		}
		for _, id := range impostors {
			addSurvivalWin(id)
		}
		penalizeEliminatedCrew()
	}
}
