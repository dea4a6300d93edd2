package domain

import "time"

// QuestionPair is a prompt pair: the crew all answer Prompt, impostors
// answer ImpostorPrompt. OwnerID identifies the player who contributed
// the pair, if any; the owner may be sat out by the round policy.
type QuestionPair struct {
	ID             string `json:"id"`
	OwnerID        string `json:"ownerId,omitempty"`
	Prompt         string `json:"prompt"`
	ImpostorPrompt string `json:"impostorPrompt"`
}

// RoundSelection is the caller-decided input to StartRound: which pair
// to play and how many impostors it carries. The engine never picks
// either.
type RoundSelection struct {
	QuestionPair  QuestionPair `json:"questionPair"`
	ImpostorCount int          `json:"impostorCount"`
}

// RoundPolicy is the per-round eligibility and vote configuration.
type RoundPolicy struct {
	EligibilityEnabled bool `json:"eligibilityEnabled"`
	AllowVoteChanges   bool `json:"allowVoteChanges"`
}

// RoundState exists only while a round is active. It is owned by
// GameState.CurrentRound and destroyed at finalize or cancel.
type RoundState struct {
	RoundNumber         int               `json:"roundNumber"`
	Phase               GamePhase         `json:"phase"`
	Policy              RoundPolicy       `json:"policy"`
	QuestionPair        QuestionPair      `json:"questionPair"`
	ImpostorCount       int               `json:"impostorCount"`
	ActivePlayerIDs     []string          `json:"activePlayerIds"`
	SatOutPlayerID      string            `json:"satOutPlayerId,omitempty"`
	Roles               map[string]Role   `json:"roles"`
	Answers             map[string]string `json:"answers"`
	RevealedAnswerCount int               `json:"revealedAnswerCount"`
	DiscussionDeadline  time.Time         `json:"discussionDeadline,omitzero"`
	Votes               map[string]string `json:"votes"` // voter id -> target id
	EliminatedPlayerID  string            `json:"eliminatedPlayerId,omitempty"`
}

func (r RoundState) clone() RoundState {
	next := r
	next.ActivePlayerIDs = append([]string(nil), r.ActivePlayerIDs...)
	next.Roles = make(map[string]Role, len(r.Roles))
	for id, role := range r.Roles {
		next.Roles[id] = role
	}
	next.Answers = make(map[string]string, len(r.Answers))
	for id, a := range r.Answers {
		next.Answers[id] = a
	}
	next.Votes = make(map[string]string, len(r.Votes))
	for voter, target := range r.Votes {
		next.Votes[voter] = target
	}
	return next
}

func (r *RoundState) isActive(playerID string) bool {
	for _, id := range r.ActivePlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// removePlayer purges every trace of the player from the round,
// including votes cast for them.
func (r *RoundState) removePlayer(playerID string) {
	r.ActivePlayerIDs = removeID(r.ActivePlayerIDs, playerID)
	delete(r.Roles, playerID)
	delete(r.Answers, playerID)
	delete(r.Votes, playerID)
	for voter, target := range r.Votes {
		if target == playerID {
			delete(r.Votes, voter)
		}
	}
	if r.SatOutPlayerID == playerID {
		r.SatOutPlayerID = ""
	}
	if r.EliminatedPlayerID == playerID {
		r.EliminatedPlayerID = ""
	}
	if r.RevealedAnswerCount > len(r.ActivePlayerIDs) {
		r.RevealedAnswerCount = len(r.ActivePlayerIDs)
	}
}

// ActiveSetFor previews the players a round with this selection and
// policy would field, in join order, plus the sat-out player if any.
// With 5+ players and eligibility on, the pair's owner sits the round
// out; the rule never shrinks a 4-player lobby.
func (g GameState) ActiveSetFor(sel RoundSelection, policy RoundPolicy) (active []string, satOut string) {
	if policy.EligibilityEnabled && len(g.Players) >= 5 {
		if _, present := g.Players[sel.QuestionPair.OwnerID]; present {
			satOut = sel.QuestionPair.OwnerID
		}
	}
	active = make([]string, 0, len(g.PlayerOrder))
	for _, id := range g.PlayerOrder {
		if id != satOut {
			active = append(active, id)
		}
	}
	return active, satOut
}

// StartRound opens a new round in the prompting phase. Legal only
// between rounds; the caller supplies the question pair, the policy, and
// a complete role assignment for the active players.
func (g GameState) StartRound(sel RoundSelection, policy RoundPolicy, roles map[string]Role) (GameState, error) {
	if g.Phase != PhaseSetup && g.Phase != PhaseRoundResult {
		return GameState{}, ErrInvalidPhase
	}
	if g.CurrentRound != nil {
		return GameState{}, newError(CodeInvalidPhase, "current round must be finalized first")
	}
	if g.CompletedRounds >= g.Settings.PlannedRounds {
		return GameState{}, ErrGameOver
	}
	if sel.QuestionPair.ID == "" {
		return GameState{}, newError(CodeInvalidRound, "question pair id is required")
	}
	if g.UsedQuestionPairIDs[sel.QuestionPair.ID] && !g.Settings.AllowQuestionReuse {
		return GameState{}, ErrQuestionReused
	}

	active, satOut := g.ActiveSetFor(sel, policy)
	if len(active) < MinActivePlayers {
		return GameState{}, ErrInsufficientPlayers
	}

	if err := validateRoleAssignment(roles, active, sel.ImpostorCount); err != nil {
		return GameState{}, err
	}

	next := g.Clone()
	assigned := make(map[string]Role, len(roles))
	for id, role := range roles {
		assigned[id] = role
	}
	next.CurrentRound = &RoundState{
		RoundNumber:     next.CompletedRounds + 1,
		Phase:           PhasePrompting,
		Policy:          policy,
		QuestionPair:    sel.QuestionPair,
		ImpostorCount:   sel.ImpostorCount,
		ActivePlayerIDs: active,
		SatOutPlayerID:  satOut,
		Roles:           assigned,
		Answers:         make(map[string]string),
		Votes:           make(map[string]string),
	}
	next.UsedQuestionPairIDs[sel.QuestionPair.ID] = true
	next.Phase = PhasePrompting
	next.Status = StatusInProgress
	return next, nil
}

func validateRoleAssignment(roles map[string]Role, active []string, impostorCount int) error {
	if impostorCount < 0 || impostorCount > 2 {
		return newError(CodeInvalidRoleAssignment, "impostor count must be 0, 1 or 2, got %d", impostorCount)
	}
	if len(roles) != len(active) {
		return newError(CodeInvalidRoleAssignment, "assignment covers %d players, round has %d active", len(roles), len(active))
	}
	impostors := 0
	for _, id := range active {
		role, ok := roles[id]
		if !ok {
			return newError(CodeInvalidRoleAssignment, "active player %s has no role", id)
		}
		if !role.Valid() {
			return newError(CodeInvalidRoleAssignment, "unknown role %q for player %s", role, id)
		}
		if role.IsImpostor() {
			impostors++
		}
	}
	if impostors != impostorCount {
		return newError(CodeInvalidRoleAssignment, "assignment has %d impostors, selection demands %d", impostors, impostorCount)
	}
	return nil
}

// SubmitAnswer records an active player's answer during prompting. The
// phase does not advance here; callers decide when all answers are in.
func (g GameState) SubmitAnswer(playerID, text string) (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhasePrompting {
		return GameState{}, ErrInvalidPhase
	}
	if !g.CurrentRound.isActive(playerID) {
		return GameState{}, ErrPlayerNotActive
	}
	if _, ok := g.CurrentRound.Answers[playerID]; ok {
		return GameState{}, ErrAnswerAlreadySubmitted
	}

	next := g.Clone()
	next.CurrentRound.Answers[playerID] = text
	return next, nil
}

// RevealQuestion moves to the reveal phase once every active player has
// answered.
func (g GameState) RevealQuestion() (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhasePrompting {
		return GameState{}, ErrInvalidPhase
	}
	for _, id := range g.CurrentRound.ActivePlayerIDs {
		if _, ok := g.CurrentRound.Answers[id]; !ok {
			return GameState{}, newError(CodeMissingAnswers, "player %s has not answered", id)
		}
	}

	next := g.Clone()
	next.CurrentRound.Phase = PhaseReveal
	next.CurrentRound.RevealedAnswerCount = 0
	next.Phase = PhaseReveal
	return next, nil
}

// RevealNextAnswer discloses one more answer. Purely a pacing control
// for staged disclosure; the phase does not change.
func (g GameState) RevealNextAnswer() (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseReveal {
		return GameState{}, ErrInvalidPhase
	}
	if g.CurrentRound.RevealedAnswerCount >= len(g.CurrentRound.ActivePlayerIDs) {
		return GameState{}, newError(CodeInvalidPhase, "all answers already revealed")
	}

	next := g.Clone()
	next.CurrentRound.RevealedAnswerCount++
	return next, nil
}

// StartDiscussion begins discussion once all answers are revealed. A
// configured timer sets an absolute deadline from the supplied clock.
func (g GameState) StartDiscussion(now time.Time) (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseReveal {
		return GameState{}, ErrInvalidPhase
	}
	if g.CurrentRound.RevealedAnswerCount < len(g.CurrentRound.ActivePlayerIDs) {
		return GameState{}, newError(CodeInvalidPhase, "not all answers revealed yet")
	}

	next := g.Clone()
	next.CurrentRound.Phase = PhaseDiscussion
	next.Phase = PhaseDiscussion
	if g.Settings.DiscussionTimerSeconds > 0 {
		next.CurrentRound.DiscussionDeadline = now.Add(time.Duration(g.Settings.DiscussionTimerSeconds) * time.Second)
	} else {
		next.CurrentRound.DiscussionDeadline = time.Time{}
	}
	return next, nil
}

// ExtendDiscussion pushes an active discussion deadline out by 5 to 300
// seconds.
func (g GameState) ExtendDiscussion(addSeconds int) (GameState, error) {
	if addSeconds < 5 || addSeconds > 300 {
		return GameState{}, newError(CodeInvalidRound, "extension must be between 5 and 300 seconds")
	}
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseDiscussion {
		return GameState{}, ErrInvalidPhase
	}
	if g.CurrentRound.DiscussionDeadline.IsZero() {
		return GameState{}, newError(CodeInvalidPhase, "discussion has no deadline to extend")
	}

	next := g.Clone()
	next.CurrentRound.DiscussionDeadline = next.CurrentRound.DiscussionDeadline.Add(time.Duration(addSeconds) * time.Second)
	return next, nil
}

// ApplyDiscussionTimeout ends discussion if its deadline has passed, and
// is otherwise a no-op. Safe to call speculatively on every read.
func (g GameState) ApplyDiscussionTimeout(now time.Time) (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseDiscussion {
		return g, nil
	}
	deadline := g.CurrentRound.DiscussionDeadline
	if deadline.IsZero() || now.Before(deadline) {
		return g, nil
	}
	return g.EndDiscussion()
}

// EndDiscussion moves to voting and clears any deadline.
func (g GameState) EndDiscussion() (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseDiscussion {
		return GameState{}, ErrInvalidPhase
	}

	next := g.Clone()
	next.CurrentRound.Phase = PhaseVoting
	next.CurrentRound.DiscussionDeadline = time.Time{}
	next.Phase = PhaseVoting
	return next, nil
}

// FinalizeRound applies the scoring table to the scoreboard, counts the
// round as completed, and either sets up the next round or ends the
// game.
func (g GameState) FinalizeRound() (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhaseRoundResult {
		return GameState{}, ErrInvalidPhase
	}

	next := g.Clone()
	applyRoundScores(next.Scoreboard, next.CurrentRound, next.Settings.Scoring)
	next.CompletedRounds++
	next.CurrentRound = nil
	if next.CompletedRounds >= next.Settings.PlannedRounds {
		next.Status = StatusEnded
		next.Phase = PhaseGameOver
	} else {
		next.Status = StatusInProgress
		next.Phase = PhaseSetup
	}
	return next, nil
}

// CancelRoundBeforeReveal discards a round whose question was never
// revealed. When rounds are capped by the question pool and reuse is
// off, the plan shrinks by one since the pair is spent.
func (g GameState) CancelRoundBeforeReveal(reason string) (GameState, error) {
	if g.CurrentRound == nil || g.CurrentRound.Phase != PhasePrompting {
		return GameState{}, ErrInvalidPhase
	}

	next := g.Clone()
	next.CancelledRounds = append(next.CancelledRounds, RoundCancellation{
		RoundNumber: next.CurrentRound.RoundNumber,
		Reason:      reason,
	})
	next.CurrentRound = nil
	next.Phase = PhaseSetup
	if next.Settings.RoundsCappedByQuestionPool && !next.Settings.AllowQuestionReuse {
		next.Settings.PlannedRounds--
		if next.Settings.PlannedRounds < next.CompletedRounds {
			next.Settings.PlannedRounds = next.CompletedRounds
		}
	}
	return next, nil
}
