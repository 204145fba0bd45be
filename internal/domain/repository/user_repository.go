package repository

import (
	"context"

	"bantuin/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	// UpdateReputation overwrites the derived reputation block in one write;
	// last writer wins, which is safe because recomputes are idempotent.
	UpdateReputation(ctx context.Context, userID string, reputation entity.UserReputation) error
}
