package domain

import "math"

const (
	MinPlannedRounds = 5
	MaxPlannedRounds = 30

	MinDiscussionTimerSeconds = 10
	MaxDiscussionTimerSeconds = 600

	weightSumTolerance = 1e-6
)

// ImpostorWeights holds the selection probabilities for running a round
// with zero, one, or two impostors. The engine validates them but never
// draws from them; the caller decides the impostor count.
type ImpostorWeights struct {
	Zero float64 `json:"zero"`
	One  float64 `json:"one"`
	Two  float64 `json:"two"`
}

// ScoringSettings is the per-round point table.
type ScoringSettings struct {
	CrewVotesOutImpostorPoints int  `json:"crewVotesOutImpostorPoints"`
	ImpostorSurvivesPoints     int  `json:"impostorSurvivesPoints"`
	CrewVotedOutPenaltyPoints  int  `json:"crewVotedOutPenaltyPoints"`
	CrewVotedOutPenaltyEnabled bool `json:"crewVotedOutPenaltyEnabled"`
}

// Settings holds the validated game configuration.
type Settings struct {
	PlannedRounds              int             `json:"plannedRounds"`
	MaxPlayers                 int             `json:"maxPlayers"`
	ImpostorWeights            ImpostorWeights `json:"impostorWeights"`
	DiscussionTimerSeconds     int             `json:"discussionTimerSeconds"` // 0 disables the timer
	RoundsCappedByQuestionPool bool            `json:"roundsCappedByQuestionPool"`
	AllowQuestionReuse         bool            `json:"allowQuestionReuse"`
	PausedWatchdogSeconds      int             `json:"pausedWatchdogSeconds"`
	Scoring                    ScoringSettings `json:"scoring"`
}

// DefaultSettings returns the settings a fresh lobby starts with.
func DefaultSettings() Settings {
	return Settings{
		PlannedRounds:              8,
		MaxPlayers:                 10,
		ImpostorWeights:            ImpostorWeights{Zero: 0.2, One: 0.6, Two: 0.2},
		DiscussionTimerSeconds:     180,
		RoundsCappedByQuestionPool: true,
		AllowQuestionReuse:         false,
		PausedWatchdogSeconds:      600,
		Scoring: ScoringSettings{
			CrewVotesOutImpostorPoints: 2,
			ImpostorSurvivesPoints:     3,
			CrewVotedOutPenaltyPoints:  -1,
			CrewVotedOutPenaltyEnabled: true,
		},
	}
}

// validate checks the settings against the lobby's progress so far.
// completedRounds guards against shrinking the plan below rounds already
// played.
func (s Settings) validate(completedRounds int) error {
	if s.PlannedRounds < MinPlannedRounds || s.PlannedRounds > MaxPlannedRounds {
		return newError(CodeInvalidSettings, "planned rounds must be between %d and %d", MinPlannedRounds, MaxPlannedRounds)
	}
	if s.PlannedRounds < completedRounds {
		return newError(CodeInvalidSettings, "planned rounds cannot be below %d already completed rounds", completedRounds)
	}
	if s.MaxPlayers < MinActivePlayers || s.MaxPlayers > 16 {
		return newError(CodeInvalidSettings, "max players must be between %d and 16", MinActivePlayers)
	}
	for _, w := range []float64{s.ImpostorWeights.Zero, s.ImpostorWeights.One, s.ImpostorWeights.Two} {
		if w < 0 || w > 1 || math.IsNaN(w) {
			return newError(CodeInvalidSettings, "impostor weights must be probabilities in [0,1]")
		}
	}
	sum := s.ImpostorWeights.Zero + s.ImpostorWeights.One + s.ImpostorWeights.Two
	if math.Abs(sum-1) > weightSumTolerance {
		return newError(CodeInvalidSettings, "impostor weights must sum to 1, got %v", sum)
	}
	if s.DiscussionTimerSeconds != 0 &&
		(s.DiscussionTimerSeconds < MinDiscussionTimerSeconds || s.DiscussionTimerSeconds > MaxDiscussionTimerSeconds) {
		return newError(CodeInvalidSettings, "discussion timer must be disabled or between %d and %d seconds",
			MinDiscussionTimerSeconds, MaxDiscussionTimerSeconds)
	}
	if s.PausedWatchdogSeconds <= 0 {
		return newError(CodeInvalidSettings, "paused watchdog seconds must be positive")
	}
	if s.Scoring.CrewVotesOutImpostorPoints < 0 {
		return newError(CodeInvalidSettings, "impostor catch points cannot be negative")
	}
	if s.Scoring.ImpostorSurvivesPoints < 0 {
		return newError(CodeInvalidSettings, "impostor survive points cannot be negative")
	}
	if s.Scoring.CrewVotedOutPenaltyPoints > 0 {
		return newError(CodeInvalidSettings, "crew voted-out penalty must be zero or negative")
	}
	return nil
}
