package usecase

import (
	"context"
	"math"
	"time"

	"bantuin/internal/domain/entity"
	"bantuin/internal/domain/repository"
)

// ReputationUseCase recomputes a helper's public reputation from full scans
// of the review ledger and completed requests. Never incrementally patched,
// so a retried recompute can never double-count.
type ReputationUseCase struct {
	reviewRepo  repository.ReviewRepository
	requestRepo repository.HelpRequestRepository
	userRepo    repository.UserRepository
}

func NewReputationUseCase(
	reviewRepo repository.ReviewRepository,
	requestRepo repository.HelpRequestRepository,
	userRepo repository.UserRepository,
) *ReputationUseCase {
	return &ReputationUseCase{
		reviewRepo:  reviewRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
	}
}

// Recompute derives and stores the reputation for userID. Pure in its
// derivation: the same reviews and completions always produce the same
// rating and level.
func (uc *ReputationUseCase) Recompute(ctx context.Context, userID string) (*entity.UserReputation, error) {
	reviews, err := uc.reviewRepo.ListByReviewee(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed, err := uc.requestRepo.CountCompletedByHelper(ctx, userID)
	if err != nil {
		return nil, err
	}

	rating := 0.0
	if len(reviews) > 0 {
		sum := 0
		for _, review := range reviews {
			sum += review.Rating
		}
		rating = math.Round(float64(sum)/float64(len(reviews))*10) / 10
	}

	reputation := entity.UserReputation{
		Rating:            rating,
		ReviewCount:       len(reviews),
		CompletedRequests: completed,
		HelpedPeople:      completed,
		Level:             ComputeLevel(completed, len(reviews)),
		UpdatedAt:         time.Now(),
	}

	if err := uc.userRepo.UpdateReputation(ctx, userID, reputation); err != nil {
		return nil, err
	}

	return &reputation, nil
}

// GetByUser returns the stored (possibly stale) reputation snapshot.
func (uc *ReputationUseCase) GetByUser(ctx context.Context, userID string) (*entity.UserReputation, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &user.Reputation, nil
}

// ComputeLevel maps completion and review counts onto the 1-10 level scale.
func ComputeLevel(completedRequests, reviewCount int) int {
	level := baseLevel(completedRequests) + reviewCount/10
	if level > 10 {
		level = 10
	}
	return level
}

func baseLevel(completedRequests int) int {
	switch {
	case completedRequests < 5:
		return 1
	case completedRequests < 10:
		return 2
	case completedRequests < 20:
		return 3
	case completedRequests < 50:
		return 4
	default:
		return 5
	}
}
