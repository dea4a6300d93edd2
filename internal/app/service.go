package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"oddoneout/internal/domain"
	"oddoneout/internal/storage"
)

const (
	// LobbyCodeLength is the length of generated lobby codes.
	LobbyCodeLength = 6

	// lobbyCodeChars excludes ambiguous characters (0/O, 1/I/L).
	lobbyCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	codeGenAttempts = 10
)

// ErrNotHost rejects a host-only action requested by another player.
var ErrNotHost = errors.New("only the host may perform this action")

// Notifier receives the new state after every successful mutation.
// Implementations fan the state out to connected clients.
type Notifier interface {
	GameUpdated(state domain.GameState)
}

// NopNotifier discards updates. It backs tests and one-shot tools.
type NopNotifier struct{}

func (NopNotifier) GameUpdated(domain.GameState) {}

// Service drives the rules engine: every public method loads a lobby,
// applies exactly one engine operation, saves, and notifies. Per-lobby
// locking makes the load-apply-save cycle atomic; the engine itself
// stays free of locks, clocks and randomness.
type Service struct {
	repo     storage.Repository
	notifier Notifier
	catalog  *Catalog
	logger   *zap.Logger
	clock    func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService wires a service. A nil notifier disables fan-out.
func NewService(repo storage.Repository, notifier Notifier, catalog *Catalog, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		catalog:  catalog,
		logger:   logger,
		clock:    time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) lobbyLock(lobbyID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[lobbyID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[lobbyID] = mu
	}
	return mu
}

// update runs one engine operation under the lobby lock. Due timeouts
// are applied first so no action ever executes against a stale phase;
// a timeout transition is persisted even when the requested operation
// then fails.
func (s *Service) update(ctx context.Context, lobbyID string,
	apply func(state domain.GameState, now time.Time) (domain.GameState, error)) (domain.GameState, error) {

	mu := s.lobbyLock(lobbyID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.repo.Load(ctx, lobbyID)
	if err != nil {
		return domain.GameState{}, err
	}

	now := s.clock()
	state, timedOut := s.applyTimeouts(state, now)

	next, err := apply(state, now)
	if err != nil {
		if timedOut {
			if saveErr := s.persist(ctx, state, now); saveErr != nil {
				s.logger.Error("persist timeout transition",
					zap.String("lobbyId", lobbyID), zap.Error(saveErr))
			}
		}
		return domain.GameState{}, err
	}

	if err := s.persist(ctx, next, now); err != nil {
		return domain.GameState{}, err
	}
	return next, nil
}

func (s *Service) persist(ctx context.Context, state domain.GameState, now time.Time) error {
	state.UpdatedAt = now
	if err := s.repo.Save(ctx, state); err != nil {
		return fmt.Errorf("save lobby %s: %w", state.LobbyID, err)
	}
	s.notifier.GameUpdated(state)
	return nil
}

// applyTimeouts fires any due discussion or host-disconnect deadline.
// Both engine operations are no-ops when nothing is due.
func (s *Service) applyTimeouts(state domain.GameState, now time.Time) (domain.GameState, bool) {
	changed := false
	if next, err := state.ApplyDiscussionTimeout(now); err == nil && next.Phase != state.Phase {
		s.logger.Info("discussion timer expired", zap.String("lobbyId", state.LobbyID))
		state = next
		changed = true
	}
	if next, err := state.ApplyHostDisconnectTimeout(now); err == nil && next.Status != state.Status {
		s.logger.Info("host grace expired, game forfeited", zap.String("lobbyId", state.LobbyID))
		state = next
		changed = true
	}
	return state, changed
}

func requireHost(state domain.GameState, actorID string) error {
	if state.HostID() != actorID {
		return ErrNotHost
	}
	return nil
}

// CreateGame opens a new lobby with the caller as host. It returns the
// created state and the generated host player id.
func (s *Service) CreateGame(ctx context.Context, hostName string) (domain.GameState, string, error) {
	hostID := uuid.NewString()

	var state domain.GameState
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code := generateLobbyCode()
		if _, err := s.repo.Load(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return domain.GameState{}, "", err
		}

		created, err := domain.NewGame(code, hostID, hostName, s.clock())
		if err != nil {
			return domain.GameState{}, "", err
		}
		if err := s.repo.Save(ctx, created); err != nil {
			return domain.GameState{}, "", fmt.Errorf("save lobby %s: %w", code, err)
		}
		state = created
		break
	}
	if state.LobbyID == "" {
		return domain.GameState{}, "", errors.New("could not generate a unique lobby code")
	}

	s.logger.Info("lobby created",
		zap.String("lobbyId", state.LobbyID), zap.String("hostId", hostID))
	return state, hostID, nil
}

// JoinGame adds a player to a waiting lobby and returns the new state
// and the generated player id.
func (s *Service) JoinGame(ctx context.Context, lobbyID, name string) (domain.GameState, string, error) {
	playerID := uuid.NewString()
	state, err := s.update(ctx, lobbyID, func(g domain.GameState, now time.Time) (domain.GameState, error) {
		return g.AddPlayer(playerID, name, now)
	})
	if err != nil {
		return domain.GameState{}, "", err
	}
	s.logger.Info("player joined",
		zap.String("lobbyId", lobbyID), zap.String("playerId", playerID))
	return state, playerID, nil
}

// Game returns the current state, firing and persisting any due
// timeout first. A plain read never touches the store.
func (s *Service) Game(ctx context.Context, lobbyID string) (domain.GameState, error) {
	mu := s.lobbyLock(lobbyID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.repo.Load(ctx, lobbyID)
	if err != nil {
		return domain.GameState{}, err
	}

	now := s.clock()
	state, timedOut := s.applyTimeouts(state, now)
	if timedOut {
		if err := s.persist(ctx, state, now); err != nil {
			return domain.GameState{}, err
		}
	}
	return state, nil
}

// RemovePlayer removes a player. Players may remove themselves; only
// the host may remove anyone else.
func (s *Service) RemovePlayer(ctx context.Context, lobbyID, actorID, targetID string) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		if actorID != targetID {
			if err := requireHost(g, actorID); err != nil {
				return domain.GameState{}, err
			}
		}
		return g.RemovePlayer(targetID)
	})
}

// UpdateSettings replaces the lobby settings. Host only.
func (s *Service) UpdateSettings(ctx context.Context, lobbyID, actorID string, settings domain.Settings) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		if err := requireHost(g, actorID); err != nil {
			return domain.GameState{}, err
		}
		return g.UpdateSettings(settings)
	})
}

// StartRound draws a question pair, an impostor count and a role
// assignment, then opens the round. Host only.
func (s *Service) StartRound(ctx context.Context, lobbyID, actorID string) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		if err := requireHost(g, actorID); err != nil {
			return domain.GameState{}, err
		}

		pair, ok := s.catalog.PickPair(g.UsedQuestionPairIDs, g.Settings.AllowQuestionReuse)
		if !ok {
			return domain.GameState{}, domain.ErrGameOver
		}
		sel := domain.RoundSelection{
			QuestionPair:  pair,
			ImpostorCount: s.catalog.DrawImpostorCount(g.Settings.ImpostorWeights),
		}
		policy := domain.RoundPolicy{
			EligibilityEnabled: pair.OwnerID != "",
			AllowVoteChanges:   true,
		}
		active, _ := g.ActiveSetFor(sel, policy)
		roles := s.catalog.DrawRoles(active, sel.ImpostorCount)
		return g.StartRound(sel, policy, roles)
	})
}

// SubmitAnswer records a player's prompt answer.
func (s *Service) SubmitAnswer(ctx context.Context, lobbyID, playerID, text string) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.SubmitAnswer(playerID, text)
	})
}

// RevealQuestion publishes the shared question. Host only.
func (s *Service) RevealQuestion(ctx context.Context, lobbyID, actorID string) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.RevealQuestion()
	})
}

// RevealNextAnswer discloses one more answer. Host only.
func (s *Service) RevealNextAnswer(ctx context.Context, lobbyID, actorID string) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.RevealNextAnswer()
	})
}

// StartDiscussion opens discussion, arming the timer if configured.
// Host only.
func (s *Service) StartDiscussion(ctx context.Context, lobbyID, actorID string) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, now time.Time) (domain.GameState, error) {
		return g.StartDiscussion(now)
	})
}

// ExtendDiscussion pushes the discussion deadline out. Host only.
func (s *Service) ExtendDiscussion(ctx context.Context, lobbyID, actorID string, addSeconds int) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.ExtendDiscussion(addSeconds)
	})
}

// EndDiscussion moves to voting early. Host only.
func (s *Service) EndDiscussion(ctx context.Context, lobbyID, actorID string) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.EndDiscussion()
	})
}

// CastVote records a player's vote.
func (s *Service) CastVote(ctx context.Context, lobbyID, voterID, targetID string) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.CastVote(voterID, targetID)
	})
}

// CloseVoting resolves the vote. Ties are broken by a uniform random
// draw among the leaders, which the engine requires the caller to
// supply. Host only.
func (s *Service) CloseVoting(ctx context.Context, lobbyID, actorID string, allowMissingVotes bool) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		next, err := g.CloseVotingAndResolve(allowMissingVotes, "")
		if domain.CodeOf(err) == domain.CodeMissingTiebreak && g.CurrentRound != nil {
			loser := s.catalog.DrawOne(g.CurrentRound.Tally().Leaders)
			return g.CloseVotingAndResolve(allowMissingVotes, loser)
		}
		return next, err
	})
}

// FinalizeRound applies scores and closes the round. Host only.
func (s *Service) FinalizeRound(ctx context.Context, lobbyID, actorID string) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.FinalizeRound()
	})
}

// CancelRound discards the current round before its reveal. Host only.
func (s *Service) CancelRound(ctx context.Context, lobbyID, actorID, reason string) (domain.GameState, error) {
	return s.hostOp(ctx, lobbyID, actorID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.CancelRoundBeforeReveal(reason)
	})
}

// SetPlayerConnection marks a player connected or disconnected, driving
// the host-continuity pause.
func (s *Service) SetPlayerConnection(ctx context.Context, lobbyID, playerID string, connected bool) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, now time.Time) (domain.GameState, error) {
		return g.SetPlayerConnection(playerID, connected, now)
	})
}

// CastHostTransferVote records a vote to hand hosting to a nominee
// while the host is disconnected.
func (s *Service) CastHostTransferVote(ctx context.Context, lobbyID, voterID, nomineeID string) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		return g.CastHostTransferVote(voterID, nomineeID)
	})
}

// ExtendHostPause grants the one-shot pause extension. Any player in
// the lobby may request it; the disconnected host cannot.
func (s *Service) ExtendHostPause(ctx context.Context, lobbyID, actorID string) (domain.GameState, error) {
	return s.update(ctx, lobbyID, func(g domain.GameState, _ time.Time) (domain.GameState, error) {
		if _, ok := g.Players[actorID]; !ok {
			return domain.GameState{}, domain.ErrPlayerNotFound
		}
		return g.ExtendHostDisconnectPause()
	})
}

// WinnerSummary ranks the final scoreboard. A residual tie is broken by
// a draw seeded from the lobby's identity so repeated requests agree on
// the winner.
func (s *Service) WinnerSummary(ctx context.Context, lobbyID string) (domain.WinnerSummary, error) {
	state, err := s.Game(ctx, lobbyID)
	if err != nil {
		return domain.WinnerSummary{}, err
	}

	summary, err := state.ComputeWinnerSummary("")
	if domain.CodeOf(err) == domain.CodeMissingTiebreak {
		contenders := state.FinalContenders()
		return state.ComputeWinnerSummary(stableDraw(lobbyID, contenders))
	}
	return summary, err
}

func (s *Service) hostOp(ctx context.Context, lobbyID, actorID string,
	apply func(state domain.GameState, now time.Time) (domain.GameState, error)) (domain.GameState, error) {

	return s.update(ctx, lobbyID, func(g domain.GameState, now time.Time) (domain.GameState, error) {
		if err := requireHost(g, actorID); err != nil {
			return domain.GameState{}, err
		}
		return apply(g, now)
	})
}

// stableDraw picks an arbitrary but repeatable element, keyed on the
// lobby id, so the reported winner never flips between requests.
func stableDraw(lobbyID string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(lobbyID))
	return candidates[int(h.Sum32())%len(candidates)]
}

func generateLobbyCode() string {
	b := make([]byte, LobbyCodeLength)
	rand.Read(b)

	code := make([]byte, LobbyCodeLength)
	for i := range code {
		code[i] = lobbyCodeChars[int(b[i])%len(lobbyCodeChars)]
	}
	return string(code)
}
