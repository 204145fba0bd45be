package usecase

import (
	"context"
	"time"

	"bantuin/internal/domain/repository"
	"bantuin/pkg/errors"
	"bantuin/pkg/logger"
)

const sweepBatchSize = 100

// ExpirySweeper force-expires overdue pending/ongoing requests on a fixed
// interval. Idempotent: a sweeper that loses the race to another sweeper or
// to a user action just observes the request already settled and moves on.
type ExpirySweeper struct {
	requestRepo repository.HelpRequestRepository
	requestUC   *RequestUseCase
	interval    time.Duration
}

func NewExpirySweeper(
	requestRepo repository.HelpRequestRepository,
	requestUC *RequestUseCase,
	interval time.Duration,
) *ExpirySweeper {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &ExpirySweeper{
		requestRepo: requestRepo,
		requestUC:   requestUC,
		interval:    interval,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.SweepOnce(ctx); err != nil {
					// Transient dependency failure; defer to the next tick.
					logger.Warn("Expiry sweep failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("Expiry sweeper started (interval %s)", s.interval)
}

// SweepOnce expires every overdue request it can win the guard for and
// returns how many it settled. Per-request failures are not retried here;
// the next tick revisits whatever is still overdue.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int, error) {
	overdue, err := s.requestRepo.ListExpiring(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, request := range overdue {
		if _, err := s.requestUC.Expire(ctx, request); err != nil {
			if errors.Is(err, "CONFLICT") {
				// Lost the race: accepted, completed or already expired.
				logger.Debug("Skipping request %s, already settled: %v", request.ID, err)
				continue
			}
			logger.Warn("Failed to expire request %s: %v", request.ID, err)
			continue
		}
		expired++
	}

	if expired > 0 {
		logger.Info("Expiry sweep settled %d request(s)", expired)
	}

	return expired, nil
}
