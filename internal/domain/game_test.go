package domain

import (
	"errors"
	"testing"
)

func TestNewGameStartsWithHostOnly(t *testing.T) {
	g, err := NewGame("lobby1", "p1", "  Avery  ", t0)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if g.Status != StatusWaiting || g.Phase != PhaseSetup {
		t.Fatalf("expected waiting/setup, got %s/%s", g.Status, g.Phase)
	}
	host := g.Players["p1"]
	if !host.IsHost || !host.Connected {
		t.Fatalf("host flags wrong: %+v", host)
	}
	if host.Name != "Avery" {
		t.Fatalf("expected trimmed name, got %q", host.Name)
	}
	if _, ok := g.Scoreboard["p1"]; !ok {
		t.Fatal("host missing from scoreboard")
	}
}

func TestNewGameRejectsBlankName(t *testing.T) {
	_, err := NewGame("lobby1", "p1", "   ", t0)
	wantCode(t, err, CodeInvalidPlayer)
}

func TestAddPlayerRules(t *testing.T) {
	g := newTestGame(t, 4)

	if _, err := g.AddPlayer("p2", "Again", t0); CodeOf(err) != CodeInvalidPlayer {
		t.Fatalf("duplicate join: expected invalid_player, got %v", err)
	}

	started := promptingGame(t, 4, RoundPolicy{}, "p2")
	if _, err := started.AddPlayer("p9", "Late", t0); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Fatalf("join after start: expected game_already_started, got %v", err)
	}

	full := newTestGame(t, 4)
	full.Settings.MaxPlayers = 4
	if _, err := full.AddPlayer("p5", "Fifth", t0); !errors.Is(err, ErrGameFull) {
		t.Fatalf("full lobby: expected game_full, got %v", err)
	}
}

func TestExactlyOneHostAfterHostRemoval(t *testing.T) {
	g := newTestGame(t, 5)
	g, err := g.SetPlayerConnection("p2", false, t0)
	if err != nil {
		t.Fatalf("disconnect p2: %v", err)
	}

	g, err = g.RemovePlayer("p1")
	if err != nil {
		t.Fatalf("remove host: %v", err)
	}

	hosts := 0
	for _, p := range g.Players {
		if p.IsHost {
			hosts++
		}
	}
	if hosts != 1 {
		t.Fatalf("expected exactly one host, got %d", hosts)
	}
	// p2 is disconnected, so the first connected player in join order
	// takes over.
	if !g.Players["p3"].IsHost {
		t.Fatalf("expected p3 promoted, host is %s", g.HostID())
	}
	if _, ok := g.Scoreboard["p1"]; ok {
		t.Fatal("removed player still on scoreboard")
	}
}

func TestRemovePlayerPurgesRoundState(t *testing.T) {
	g := votingGame(t, 5, RoundPolicy{}, "p2")
	var err error
	g, err = g.CastVote("p1", "p3")
	if err != nil {
		t.Fatalf("vote p1: %v", err)
	}
	g, err = g.CastVote("p3", "p1")
	if err != nil {
		t.Fatalf("vote p3: %v", err)
	}

	g, err = g.RemovePlayer("p3")
	if err != nil {
		t.Fatalf("remove p3: %v", err)
	}
	round := g.CurrentRound
	if round.isActive("p3") {
		t.Fatal("removed player still active")
	}
	if _, ok := round.Roles["p3"]; ok {
		t.Fatal("removed player still has a role")
	}
	if _, ok := round.Answers["p3"]; ok {
		t.Fatal("removed player still has an answer")
	}
	if _, ok := round.Votes["p3"]; ok {
		t.Fatal("removed player's vote not purged")
	}
	if target, ok := round.Votes["p1"]; ok {
		t.Fatalf("vote for removed player not purged, p1 -> %s", target)
	}
}

func TestRemoveUnknownPlayer(t *testing.T) {
	g := newTestGame(t, 4)
	_, err := g.RemovePlayer("ghost")
	wantCode(t, err, CodePlayerNotFound)
}

func TestOperationsLeaveInputStateUntouched(t *testing.T) {
	g := votingGame(t, 4, RoundPolicy{}, "p2")

	// A failing operation returns the zero state and must not leak
	// partial mutation into the input.
	if _, err := g.CastVote("p1", "p1"); err == nil {
		t.Fatal("self vote should fail")
	}
	if len(g.CurrentRound.Votes) != 0 {
		t.Fatalf("failed op mutated input: %d votes recorded", len(g.CurrentRound.Votes))
	}

	// A succeeding operation must not alias the input's containers.
	next, err := g.CastVote("p1", "p2")
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if len(g.CurrentRound.Votes) != 0 {
		t.Fatal("successful op mutated input state")
	}
	if len(next.CurrentRound.Votes) != 1 {
		t.Fatal("successful op missing its own mutation")
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	g := newTestGame(t, 4)
	base := DefaultSettings()

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"rounds below minimum", func(s *Settings) { s.PlannedRounds = 4 }},
		{"rounds above maximum", func(s *Settings) { s.PlannedRounds = 31 }},
		{"weights not summing to one", func(s *Settings) { s.ImpostorWeights = ImpostorWeights{Zero: 0.5, One: 0.5, Two: 0.1} }},
		{"negative weight", func(s *Settings) { s.ImpostorWeights = ImpostorWeights{Zero: -0.2, One: 1.0, Two: 0.2} }},
		{"timer below range", func(s *Settings) { s.DiscussionTimerSeconds = 5 }},
		{"timer above range", func(s *Settings) { s.DiscussionTimerSeconds = 700 }},
		{"negative catch points", func(s *Settings) { s.Scoring.CrewVotesOutImpostorPoints = -1 }},
		{"negative survive points", func(s *Settings) { s.Scoring.ImpostorSurvivesPoints = -2 }},
		{"positive penalty", func(s *Settings) { s.Scoring.CrewVotedOutPenaltyPoints = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := g.UpdateSettings(in)
			wantCode(t, err, CodeInvalidSettings)
		})
	}
}

func TestUpdateSettingsWeightToleranceAccepted(t *testing.T) {
	g := newTestGame(t, 4)
	in := DefaultSettings()
	in.ImpostorWeights = ImpostorWeights{Zero: 0.3333333, One: 0.3333333, Two: 0.3333337}
	g, err := g.UpdateSettings(in)
	if err != nil {
		t.Fatalf("weights within tolerance rejected: %v", err)
	}
	if g.Settings.ImpostorWeights.Two != 0.3333337 {
		t.Fatal("settings not applied")
	}
}

func TestUpdateSettingsRejectsPlanBelowCompletedRounds(t *testing.T) {
	g := newTestGame(t, 4)
	g.CompletedRounds = 7
	in := DefaultSettings()
	in.PlannedRounds = 6
	_, err := g.UpdateSettings(in)
	wantCode(t, err, CodeInvalidSettings)
}

func TestUpdateSettingsOnlyBetweenRounds(t *testing.T) {
	g := promptingGame(t, 4, RoundPolicy{}, "p2")
	_, err := g.UpdateSettings(DefaultSettings())
	wantCode(t, err, CodeInvalidPhase)

	timer := DefaultSettings()
	timer.DiscussionTimerSeconds = 0
	lobby := newTestGame(t, 4)
	if _, err := lobby.UpdateSettings(timer); err != nil {
		t.Fatalf("disabled timer should validate: %v", err)
	}
}

func TestUpdateSettingsNoPartialUpdate(t *testing.T) {
	g := newTestGame(t, 4)
	before := g.Settings
	in := DefaultSettings()
	in.PlannedRounds = 12
	in.Scoring.CrewVotedOutPenaltyPoints = 2 // invalid, whole update must be dropped
	if _, err := g.UpdateSettings(in); err == nil {
		t.Fatal("expected invalid_settings")
	}
	if g.Settings != before {
		t.Fatal("failed update leaked into settings")
	}
}
