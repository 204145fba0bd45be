package repository

import (
	"context"

	"bantuin/internal/domain/entity"
)

type ChatRepository interface {
	// FindOrCreate is idempotent per (participant pair, requestID): two racing
	// callers always settle on the same chat document.
	FindOrCreate(ctx context.Context, chat *entity.Chat) (*entity.Chat, error)
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error)
	Update(ctx context.Context, chat *entity.Chat) error

	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)
	MarkMessagesRead(ctx context.Context, chatID, userID string) error
}
