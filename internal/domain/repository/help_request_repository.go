package repository

import (
	"context"
	"time"

	"bantuin/internal/domain/entity"
)

// StatusGuard is the optimistic precondition checked immediately before a
// transition is committed. HelperID is only compared when CheckHelper is set
// (an empty expected helper is a valid expectation for propose).
type StatusGuard struct {
	Status      entity.RequestStatus
	HelperID    string
	CheckHelper bool
}

type HelpRequestRepository interface {
	Create(ctx context.Context, request *entity.HelpRequest) error
	GetByID(ctx context.Context, id string) (*entity.HelpRequest, error)

	// UpdateWithGuard re-reads the request inside a storage transaction,
	// rejects the write with a CONFLICT error if the guard no longer holds,
	// and otherwise applies mutate and commits. mutate must not perform I/O.
	UpdateWithGuard(ctx context.Context, id string, guard StatusGuard, mutate func(*entity.HelpRequest) error) (*entity.HelpRequest, error)

	ListOpen(ctx context.Context, limit, offset int) ([]*entity.HelpRequest, int64, error)
	ListExpiring(ctx context.Context, now time.Time, limit int) ([]*entity.HelpRequest, error)
	CountCompletedByHelper(ctx context.Context, helperID string) (int, error)

	CreateLog(ctx context.Context, log *entity.RequestLog) error
	ListLogsByRequestID(ctx context.Context, requestID string) ([]*entity.RequestLog, error)

	CreateOffer(ctx context.Context, offer *entity.HelpOffer) error
	GetOfferByRequestAndHelper(ctx context.Context, requestID, helperID string) (*entity.HelpOffer, error)
}
