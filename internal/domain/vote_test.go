package domain

import (
	"errors"
	"testing"
)

func TestCastVoteRules(t *testing.T) {
	g := votingGame(t, 5, RoundPolicy{EligibilityEnabled: false}, "p2")
	var err error

	if _, err = g.CastVote("p1", "p1"); !errors.Is(err, ErrSelfVoteForbidden) {
		t.Fatalf("expected self_vote_forbidden, got %v", err)
	}
	if _, err = g.CastVote("ghost", "p2"); !errors.Is(err, ErrPlayerNotActive) {
		t.Fatalf("expected player_not_active for unknown voter, got %v", err)
	}
	if _, err = g.CastVote("p1", "ghost"); !errors.Is(err, ErrPlayerNotActive) {
		t.Fatalf("expected player_not_active for unknown target, got %v", err)
	}

	g, err = g.CastVote("p1", "p2")
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if g.CurrentRound.Votes["p1"] != "p2" {
		t.Fatal("vote not recorded")
	}

	// Vote changes locked by default policy.
	if _, err = g.CastVote("p1", "p3"); !errors.Is(err, ErrVoteLocked) {
		t.Fatalf("expected vote_locked, got %v", err)
	}
}

func TestCastVoteChangeAllowedByPolicy(t *testing.T) {
	g := votingGame(t, 4, RoundPolicy{AllowVoteChanges: true}, "p2")
	var err error
	g, err = g.CastVote("p1", "p2")
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	g, err = g.CastVote("p1", "p3")
	if err != nil {
		t.Fatalf("change vote: %v", err)
	}
	if g.CurrentRound.Votes["p1"] != "p3" {
		t.Fatalf("vote not overwritten, got %s", g.CurrentRound.Votes["p1"])
	}
}

func TestSelfVoteRejectedOutsideVotingToo(t *testing.T) {
	g := promptingGame(t, 4, RoundPolicy{}, "p2")
	_, err := g.CastVote("p1", "p1")
	// Phase check fires first; the point is that a self vote can never
	// land.
	if err == nil {
		t.Fatal("self vote outside voting must fail")
	}
}

func TestCloseVotingMissingVotes(t *testing.T) {
	g := votingGame(t, 4, RoundPolicy{}, "p2")
	var err error
	g, err = g.CastVote("p1", "p2")
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	if _, err = g.CloseVotingAndResolve(false, ""); CodeOf(err) != CodeMissingVotes {
		t.Fatalf("expected missing_votes, got %v", err)
	}

	// Partial tally allowed explicitly: p2 leads 1-0.
	g, err = g.CloseVotingAndResolve(true, "")
	if err != nil {
		t.Fatalf("resolve with missing votes allowed: %v", err)
	}
	if g.CurrentRound.EliminatedPlayerID != "p2" {
		t.Fatalf("expected p2 eliminated, got %s", g.CurrentRound.EliminatedPlayerID)
	}
	if g.Phase != PhaseRoundResult {
		t.Fatalf("expected round_result, got %s", g.Phase)
	}
}

func TestCloseVotingUniqueMaximum(t *testing.T) {
	g := votingGame(t, 4, RoundPolicy{}, "p2")
	g = voteAll(t, g, "p3", "p1") // p3 gets 3 votes, p1 gets 1
	g, err := g.CloseVotingAndResolve(false, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if g.CurrentRound.EliminatedPlayerID != "p3" {
		t.Fatalf("expected p3 eliminated, got %s", g.CurrentRound.EliminatedPlayerID)
	}
}

func TestCloseVotingFourWayTie(t *testing.T) {
	g := votingGame(t, 4, RoundPolicy{}, "p2")
	var err error
	// p1->p2->p3->p4->p1: every player exactly one vote.
	pairs := [][2]string{{"p1", "p2"}, {"p2", "p3"}, {"p3", "p4"}, {"p4", "p1"}}
	for _, pair := range pairs {
		g, err = g.CastVote(pair[0], pair[1])
		if err != nil {
			t.Fatalf("cast vote %v: %v", pair, err)
		}
	}

	if _, err = g.CloseVotingAndResolve(false, ""); CodeOf(err) != CodeMissingTiebreak {
		t.Fatalf("expected missing_tiebreak without loser, got %v", err)
	}
	if _, err = g.CloseVotingAndResolve(false, "ghost"); CodeOf(err) != CodeMissingTiebreak {
		t.Fatalf("expected missing_tiebreak for loser outside tied set, got %v", err)
	}

	g, err = g.CloseVotingAndResolve(false, "p3")
	if err != nil {
		t.Fatalf("resolve with tiebreak: %v", err)
	}
	if g.CurrentRound.EliminatedPlayerID != "p3" {
		t.Fatalf("expected p3 eliminated, got %s", g.CurrentRound.EliminatedPlayerID)
	}
}

func TestTiebreakLoserMustBeInTiedSet(t *testing.T) {
	g := votingGame(t, 4, RoundPolicy{}, "p2")
	var err error
	// p2 and p3 tie at 2; p1 and p4 have none.
	for _, pair := range [][2]string{{"p1", "p2"}, {"p4", "p3"}, {"p2", "p3"}, {"p3", "p2"}} {
		g, err = g.CastVote(pair[0], pair[1])
		if err != nil {
			t.Fatalf("cast vote %v: %v", pair, err)
		}
	}

	if _, err = g.CloseVotingAndResolve(false, "p1"); CodeOf(err) != CodeMissingTiebreak {
		t.Fatalf("p1 is not tied, expected missing_tiebreak, got %v", err)
	}
	g, err = g.CloseVotingAndResolve(false, "p2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if g.CurrentRound.EliminatedPlayerID != "p2" {
		t.Fatalf("expected p2 eliminated, got %s", g.CurrentRound.EliminatedPlayerID)
	}
}

func TestTallyIgnoresUntrackedTargets(t *testing.T) {
	g := votingGame(t, 4, RoundPolicy{}, "p2")
	g = voteAll(t, g, "p2", "p1")
	// Defensive path: a vote for an untracked target is skipped, not an
	// error. CastVote cannot produce this; simulate storage drift.
	g.CurrentRound.Votes["p3"] = "ghost"
	tally := g.CurrentRound.Tally()
	if _, ok := tally.Counts["ghost"]; ok {
		t.Fatal("untracked target entered the tally")
	}
	if tally.Counts["p2"] != 2 {
		t.Fatalf("expected p2 at 2 votes, got %d", tally.Counts["p2"])
	}
}
