package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"mockmate/internal/model"
	"mockmate/internal/repository"
)

// QuotaService is the per-user ledger of session creations against the
// subscription limit. Reservations for one user are linearizable: the
// read-modify-write runs under that user's mutex, and the durable increment
// lands before Reserve reports success.
type QuotaService struct {
	subs  repository.SubscriptionRepo
	locks *keyedMutex
	log   zerolog.Logger
}

// NewQuotaService creates a new quota service
func NewQuotaService(subs repository.SubscriptionRepo, log zerolog.Logger) *QuotaService {
	return &QuotaService{
		subs:  subs,
		locks: newKeyedMutex(),
		log:   log.With().Str("component", "quota").Logger(),
	}
}

// Reserve consumes one session slot for the user. A false return is the
// normal out-of-quota outcome, not an error: the subscription is missing,
// cancelled, or already at its limit.
func (s *QuotaService) Reserve(ctx context.Context, userID string) (bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sub, err := s.subs.GetActiveByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil || !sub.HasCapacity() {
		s.log.Debug().Str("userId", userID).Msg("reservation rejected")
		return false, nil
	}

	// The store re-checks the limit, so a racing writer on another instance
	// cannot double-spend the last slot.
	ok, err := s.subs.IncrementUsed(ctx, sub.ID)
	if err != nil {
		return false, fmt.Errorf("consume session slot: %w", err)
	}
	return ok, nil
}

// Release restores one slot after a failed session creation. Best-effort
// compensation, never invoked on normal session end: quota counts sessions
// created this billing period, not sessions currently open.
func (s *QuotaService) Release(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sub, err := s.subs.GetActiveByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil || sub.UsedSessions == 0 {
		return nil
	}
	if err := s.subs.DecrementUsed(ctx, sub.ID); err != nil {
		return fmt.Errorf("restore session slot: %w", err)
	}
	return nil
}

// Usage reports the user's current counter and limit, for the account page.
func (s *QuotaService) Usage(ctx context.Context, userID string) (*model.Subscription, error) {
	return s.subs.GetActiveByUserID(ctx, userID)
}
