package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/service/rooms"
)

// Target disposes rooms that outlived the policy.
type Target interface {
	SweepExpired(ctx context.Context, now time.Time, policy rooms.ExpiryPolicy) ([]string, error)
}

// Sweeper periodically disposes expired rooms.
type Sweeper struct {
	target   Target
	policy   rooms.ExpiryPolicy
	interval time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

// New builds a sweeper. Call Run to start it.
func New(target Target, policy rooms.ExpiryPolicy, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Sweeper{
		target:   target,
		policy:   policy,
		interval: interval,
		now:      time.Now,
		log:      logger,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Debug().Dur("interval", s.interval).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns the ids of disposed rooms.
func (s *Sweeper) Sweep(ctx context.Context) []string {
	swept, err := s.target.SweepExpired(ctx, s.now(), s.policy)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("sweep failed")
		}
		return nil
	}
	for _, roomID := range swept {
		s.log.Info().Str("room_id", roomID).Msg("expired room disposed")
	}
	return swept
}
