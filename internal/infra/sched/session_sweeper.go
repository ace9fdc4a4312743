package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// IdleSweeper is what the sweeper needs from the checkout use case.
type IdleSweeper interface {
	SweepIdle(now time.Time) int
}

// SessionSweeper periodically closes checkout sessions whose client went away
// without closing them.
type SessionSweeper struct {
	sessions IdleSweeper
	interval time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSessionSweeper(sessions IdleSweeper, interval time.Duration, logger *zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "SessionSweeper").Logger()
	return &SessionSweeper{sessions: sessions, interval: interval, now: time.Now, log: &l}
}

// Run blocks until ctx is cancelled.
func (w *SessionSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting session sweeper")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session sweeper")
			return ctx.Err()
		case <-t.C:
			if n := w.sessions.SweepIdle(w.now()); n > 0 {
				w.log.Debug().Int("expired", n).Msg("idle sessions closed")
			}
		}
	}
}
