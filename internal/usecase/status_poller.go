package usecase

import (
	"time"

	"momo-checkout/internal/domain/model"
	"momo-checkout/internal/infra/metrics"
)

// pollLoop queries the status of txID every policy.Interval until the payment
// completes, fails, times out or the session is closed. Only the loop that owns
// the current transaction may change the session; a loop left behind by a retry
// notices the txID mismatch and exits.
func (s *PaymentSession) pollLoop(txID string, done chan struct{}) {
	defer close(done)
	log := s.log.With().Str("transaction_id", txID).Logger()

	timer := time.NewTimer(s.policy.Interval)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Debug().Msg("poll loop cancelled")
			return
		case <-timer.C:
		}

		s.mu.Lock()
		if !s.ownsPollLocked(txID) {
			s.mu.Unlock()
			return
		}
		if s.attempts >= s.policy.MaxAttempts {
			metrics.IncPoll("timeout")
			metrics.IncOutcome("timeout", string(s.chargedCarrierLocked()))
			s.failLocked(MsgPaymentTimedOut)
			attempts := s.attempts
			s.mu.Unlock()
			log.Warn().Int("attempts", attempts).Msg("payment confirmation timed out")
			return
		}
		s.attempts++
		attempt := s.attempts
		s.mu.Unlock()

		status, err := s.api.Status(s.ctx, txID)

		s.mu.Lock()
		if !s.ownsPollLocked(txID) {
			s.mu.Unlock()
			return
		}
		switch {
		case err != nil:
			// Transient; the attempt still counts.
			s.mu.Unlock()
			metrics.IncPoll("error")
			log.Debug().Err(err).Int("attempt", attempt).Msg("status query failed, will retry")

		case status == model.TransactionCompleted:
			if tErr := s.transitionLocked(model.PaymentStatusSuccess); tErr != nil {
				s.mu.Unlock()
				log.Error().Err(tErr).Msg("cannot complete session")
				return
			}
			s.errMsg = ""
			snap := s.snapshotLocked()
			cb := s.onSuccess
			s.mu.Unlock()
			metrics.IncPoll("completed")
			log.Info().Int("attempt", attempt).Msg("payment completed")
			if cb != nil {
				cb(snap)
			}
			return

		case status == model.TransactionFailed:
			metrics.IncOutcome("declined", string(s.chargedCarrierLocked()))
			s.failLocked(MsgPaymentDeclined)
			s.mu.Unlock()
			metrics.IncPoll("failed")
			log.Info().Int("attempt", attempt).Msg("payment declined")
			return

		default:
			s.mu.Unlock()
			metrics.IncPoll("pending")
		}

		timer.Reset(s.policy.Interval)
	}
}

func (s *PaymentSession) ownsPollLocked(txID string) bool {
	return !s.closed && s.txID == txID && s.status == model.PaymentStatusPolling
}
