package domain

import (
	"fmt"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

var testNames = []string{"Avery", "Blake", "Casey", "Drew", "Emerson", "Finley", "Gray", "Harper"}

// newTestGame builds a lobby with n players p1..pn, p1 hosting.
func newTestGame(t *testing.T, n int) GameState {
	t.Helper()
	g, err := NewGame("lobby1", "p1", testNames[0], t0)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	for i := 2; i <= n; i++ {
		g, err = g.AddPlayer(fmt.Sprintf("p%d", i), testNames[i-1], t0)
		if err != nil {
			t.Fatalf("add player p%d: %v", i, err)
		}
	}
	return g
}

func testSelection(pairID, ownerID string, impostorCount int) RoundSelection {
	return RoundSelection{
		QuestionPair: QuestionPair{
			ID:             pairID,
			OwnerID:        ownerID,
			Prompt:         "What would you never lend to a friend?",
			ImpostorPrompt: "What would you never borrow from a friend?",
		},
		ImpostorCount: impostorCount,
	}
}

// assignRoles makes everyone crew except the named impostors.
func assignRoles(active []string, impostors ...string) map[string]Role {
	roles := make(map[string]Role, len(active))
	for _, id := range active {
		roles[id] = RoleCrew
	}
	for _, id := range impostors {
		roles[id] = RoleImpostor
	}
	return roles
}

// promptingGame starts a round with the given impostors and returns it
// in the prompting phase.
func promptingGame(t *testing.T, players int, policy RoundPolicy, impostors ...string) GameState {
	t.Helper()
	g := newTestGame(t, players)
	roles := assignRoles(g.PlayerOrder, impostors...)
	g, err := g.StartRound(testSelection("q1", "", len(impostors)), policy, roles)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	return g
}

// votingGame walks a prompting game through answers, reveal, and
// discussion into the voting phase.
func votingGame(t *testing.T, players int, policy RoundPolicy, impostors ...string) GameState {
	t.Helper()
	g := promptingGame(t, players, policy, impostors...)
	return advanceToVoting(t, g)
}

func advanceToVoting(t *testing.T, g GameState) GameState {
	t.Helper()
	var err error
	for _, id := range g.CurrentRound.ActivePlayerIDs {
		g, err = g.SubmitAnswer(id, "answer from "+id)
		if err != nil {
			t.Fatalf("submit answer %s: %v", id, err)
		}
	}
	g, err = g.RevealQuestion()
	if err != nil {
		t.Fatalf("reveal question: %v", err)
	}
	for range g.CurrentRound.ActivePlayerIDs {
		g, err = g.RevealNextAnswer()
		if err != nil {
			t.Fatalf("reveal next answer: %v", err)
		}
	}
	g, err = g.StartDiscussion(t0)
	if err != nil {
		t.Fatalf("start discussion: %v", err)
	}
	g, err = g.EndDiscussion()
	if err != nil {
		t.Fatalf("end discussion: %v", err)
	}
	return g
}

// voteAll casts every active player's vote for target, except the
// target, who votes for fallback.
func voteAll(t *testing.T, g GameState, target, fallback string) GameState {
	t.Helper()
	var err error
	for _, id := range g.CurrentRound.ActivePlayerIDs {
		choice := target
		if id == target {
			choice = fallback
		}
		g, err = g.CastVote(id, choice)
		if err != nil {
			t.Fatalf("cast vote %s -> %s: %v", id, choice, err)
		}
	}
	return g
}

func wantCode(t *testing.T, err error, code Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %q, got nil", code)
	}
	if CodeOf(err) != code {
		t.Fatalf("expected code %q, got %q (%v)", code, CodeOf(err), err)
	}
}
