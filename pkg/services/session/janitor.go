package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Pruner deletes persisted sessions last seen before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type JanitorConfig struct {
	// SweepInterval is the pause between two sweeps.
	SweepInterval time.Duration
	// IdleTTL evicts in-memory sessions not opened for this long.
	IdleTTL time.Duration
	// Retention deletes persisted contexts not seen for this long. Zero keeps them forever.
	Retention time.Duration
}

type SweepProgress struct {
	Evicted int
	Pruned  int64
	Live    int
	SweptAt time.Time
}

// Janitor periodically evicts idle sessions from a Manager and prunes
// abandoned contexts from storage.
type Janitor struct {
	manager  *Manager
	pruner   Pruner
	config   JanitorConfig
	now      func() time.Time
	done     chan struct{}
	progress chan SweepProgress
}

func NewJanitor(manager *Manager, pruner Pruner, config JanitorConfig) *Janitor {
	if config.SweepInterval <= 0 {
		config.SweepInterval = time.Minute
	}
	return &Janitor{
		manager:  manager,
		pruner:   pruner,
		config:   config,
		now:      manager.now,
		done:     make(chan struct{}),
		progress: make(chan SweepProgress, 16),
	}
}

func (j *Janitor) Done() <-chan struct{} {
	return j.done
}

// Progress reports every sweep. Reports are dropped when nobody reads them.
func (j *Janitor) Progress() <-chan SweepProgress {
	return j.progress
}

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("component", "janitor").Logger()
	defer close(j.done)
	defer close(j.progress)

	ticker := time.NewTicker(j.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("session janitor stopped")
			return
		case <-ticker.C:
			p := j.Sweep(logger.WithContext(ctx))
			select {
			case j.progress <- p:
			default:
			}
		}
	}
}

// Sweep runs a single eviction and pruning pass.
func (j *Janitor) Sweep(ctx context.Context) SweepProgress {
	logger := zerolog.Ctx(ctx)
	now := j.now()
	p := SweepProgress{SweptAt: now}

	if j.config.IdleTTL > 0 {
		evicted := j.manager.EvictIdle(now.Add(-j.config.IdleTTL))
		p.Evicted = len(evicted)
		for _, id := range evicted {
			logger.Debug().Str("session", id).Msg("evicted idle session")
		}
	}

	if j.pruner != nil && j.config.Retention > 0 {
		n, err := j.pruner.Prune(ctx, now.Add(-j.config.Retention))
		if err != nil {
			logger.Error().Err(err).Msg("failed to prune sessions")
		}
		p.Pruned = n
	}

	p.Live = j.manager.Live()
	if p.Evicted > 0 || p.Pruned > 0 {
		logger.Info().
			Int("evicted", p.Evicted).
			Int64("pruned", p.Pruned).
			Int("live", p.Live).
			Msg("session sweep")
	}
	return p
}
