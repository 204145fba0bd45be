package repository

import (
	"context"

	"bantuin/internal/domain/entity"
)

// ReviewRepository is an append-only ledger: reviews are never updated or
// deleted once written.
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByRequestID(ctx context.Context, requestID string) (*entity.Review, error)
	ListByReviewee(ctx context.Context, revieweeUID string) ([]*entity.Review, error)
}
