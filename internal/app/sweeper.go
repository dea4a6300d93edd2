package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"oddoneout/internal/domain"
)

const (
	// DefaultSweepInterval is used when no positive interval is
	// configured; time.NewTicker rejects non-positive durations.
	DefaultSweepInterval = 30 * time.Second

	// DefaultEndedRetention is how long an ended game is kept before
	// the sweeper deletes it.
	DefaultEndedRetention = 2 * time.Hour
)

// Sweeper periodically fires due deadlines and prunes ended games, so
// lobbies advance even when nobody is sending actions.
type Sweeper struct {
	service   *Service
	logger    *zap.Logger
	interval  time.Duration
	retention time.Duration
}

// NewSweeper creates a sweeper over the service's repository.
func NewSweeper(service *Service, interval, retention time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if retention <= 0 {
		retention = DefaultEndedRetention
	}
	return &Sweeper{
		service:   service,
		logger:    logger,
		interval:  interval,
		retention: retention,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	ids, err := w.service.repo.ListIDs(ctx)
	if err != nil {
		w.logger.Error("sweep: list lobbies", zap.Error(err))
		return
	}

	now := w.service.clock()
	for _, lobbyID := range ids {
		// Game applies due timeouts and persists the transition.
		state, err := w.service.Game(ctx, lobbyID)
		if err != nil {
			w.logger.Error("sweep: load lobby",
				zap.String("lobbyId", lobbyID), zap.Error(err))
			continue
		}

		if state.Status == domain.StatusEnded && now.Sub(state.UpdatedAt) > w.retention {
			if err := w.service.repo.Delete(ctx, lobbyID); err != nil {
				w.logger.Error("sweep: delete ended lobby",
					zap.String("lobbyId", lobbyID), zap.Error(err))
				continue
			}
			w.logger.Info("ended lobby pruned", zap.String("lobbyId", lobbyID))
		}
	}
}
