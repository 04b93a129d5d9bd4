package service

import (
	"context"
	"time"

	"github.com/lshigami/examhall/config"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// LifecycleSweeper periodically materializes activation and expiry so rows
// read by other tools reflect the resolved state. Reads through this service
// never depend on it.
type LifecycleSweeper struct {
	tests    TestService
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewLifecycleSweeper(cfg *config.Config, tests TestService) *LifecycleSweeper {
	return &LifecycleSweeper{tests: tests, interval: cfg.Lifecycle.SweepInterval}
}

// RegisterLifecycleSweeper ties the sweeper to the application lifecycle.
func RegisterLifecycleSweeper(lc fx.Lifecycle, s *LifecycleSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}

func (s *LifecycleSweeper) Start() {
	if s.interval <= 0 {
		log.Info().Msg("Lifecycle sweeper disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
	log.Info().Dur("interval", s.interval).Msg("Lifecycle sweeper started")
}

func (s *LifecycleSweeper) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LifecycleSweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Lifecycle sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and logs its outcome.
func (s *LifecycleSweeper) SweepOnce(ctx context.Context) int {
	changed, err := s.tests.SweepLifecycle(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Lifecycle sweep failed")
		return changed
	}
	if changed > 0 {
		log.Info().Int("changed", changed).Msg("Lifecycle sweep applied transitions")
	}
	return changed
}
