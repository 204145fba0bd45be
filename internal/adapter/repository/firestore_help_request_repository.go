package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bantuin/internal/domain/entity"
	"bantuin/internal/domain/repository"
	"bantuin/pkg/errors"
)

type firestoreHelpRequestRepository struct {
	client *firestore.Client
}

func NewFirestoreHelpRequestRepository(client *firestore.Client) repository.HelpRequestRepository {
	return &firestoreHelpRequestRepository{
		client: client,
	}
}

func (r *firestoreHelpRequestRepository) Create(ctx context.Context, request *entity.HelpRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}

	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now

	_, err := r.client.Collection("help_requests").Doc(request.ID).Set(ctx, request)
	if err != nil {
		return errors.Unavailable("Failed to create help request", err)
	}

	return nil
}

func (r *firestoreHelpRequestRepository) GetByID(ctx context.Context, id string) (*entity.HelpRequest, error) {
	doc, err := r.client.Collection("help_requests").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Help request", err)
		}
		return nil, errors.Unavailable("Failed to get help request", err)
	}

	var request entity.HelpRequest
	if err := doc.DataTo(&request); err != nil {
		return nil, errors.Internal("Failed to parse help request data", err)
	}

	return &request, nil
}

// UpdateWithGuard is the compare-and-swap every transition runs through. The
// status (and, when requested, helperId) is re-read inside the Firestore
// transaction; a mismatch aborts the write with CONFLICT and the stored
// document is left untouched.
func (r *firestoreHelpRequestRepository) UpdateWithGuard(ctx context.Context, id string, guard repository.StatusGuard, mutate func(*entity.HelpRequest) error) (*entity.HelpRequest, error) {
	docRef := r.client.Collection("help_requests").Doc(id)

	var updated entity.HelpRequest

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Help request", err)
			}
			return errors.Unavailable("Failed to get help request", err)
		}

		var request entity.HelpRequest
		if err := doc.DataTo(&request); err != nil {
			return errors.Internal("Failed to parse help request data", err)
		}

		if request.Status != guard.Status {
			return errors.Conflict("Help request status changed since last read", nil)
		}
		if guard.CheckHelper && request.HelperID != guard.HelperID {
			return errors.Conflict("Help request helper changed since last read", nil)
		}

		if err := mutate(&request); err != nil {
			return err
		}
		if request.Status != guard.Status && !entity.CanTransition(guard.Status, request.Status) {
			return errors.Internal("Illegal status transition "+string(guard.Status)+" -> "+string(request.Status), nil)
		}
		request.UpdatedAt = time.Now()

		if err := tx.Set(docRef, &request); err != nil {
			return errors.Unavailable("Failed to update help request", err)
		}

		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *firestoreHelpRequestRepository) ListOpen(ctx context.Context, limit, offset int) ([]*entity.HelpRequest, int64, error) {
	query := r.client.Collection("help_requests").
		Where("status", "==", string(entity.StatusOpen)).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Unavailable("Failed to list open help requests", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var requests []*entity.HelpRequest
	for _, doc := range allDocs[start:end] {
		var request entity.HelpRequest
		if err := doc.DataTo(&request); err != nil {
			continue // Skip malformed documents
		}
		requests = append(requests, &request)
	}

	return requests, total, nil
}

// ListExpiring returns pending/ongoing requests whose deadline has passed.
// Open requests carry no deadline and are never returned here.
func (r *firestoreHelpRequestRepository) ListExpiring(ctx context.Context, now time.Time, limit int) ([]*entity.HelpRequest, error) {
	query := r.client.Collection("help_requests").
		Where("status", "in", []string{string(entity.StatusPending), string(entity.StatusOngoing)}).
		Where("expiresAt", "<=", now)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var requests []*entity.HelpRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Unavailable("Failed to query expiring help requests", err)
		}

		var request entity.HelpRequest
		if err := doc.DataTo(&request); err != nil {
			continue
		}
		requests = append(requests, &request)
	}

	return requests, nil
}

func (r *firestoreHelpRequestRepository) CountCompletedByHelper(ctx context.Context, helperID string) (int, error) {
	docs, err := r.client.Collection("help_requests").
		Where("helperId", "==", helperID).
		Where("status", "==", string(entity.StatusCompleted)).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Unavailable("Failed to count completed help requests", err)
	}

	return len(docs), nil
}

func (r *firestoreHelpRequestRepository) CreateLog(ctx context.Context, log *entity.RequestLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	log.CreatedAt = time.Now()

	_, err := r.client.Collection("request_logs").Doc(log.ID).Set(ctx, log)
	if err != nil {
		return errors.Unavailable("Failed to create request log", err)
	}

	return nil
}

func (r *firestoreHelpRequestRepository) ListLogsByRequestID(ctx context.Context, requestID string) ([]*entity.RequestLog, error) {
	iter := r.client.Collection("request_logs").
		Where("requestId", "==", requestID).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var logs []*entity.RequestLog
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Unavailable("Failed to list request logs", err)
		}

		var log entity.RequestLog
		if err := doc.DataTo(&log); err != nil {
			continue
		}
		logs = append(logs, &log)
	}

	return logs, nil
}

func (r *firestoreHelpRequestRepository) CreateOffer(ctx context.Context, offer *entity.HelpOffer) error {
	// Deterministic ID keeps duplicate taps from spawning duplicate offers.
	if offer.ID == "" {
		offer.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(offer.RequestID+":"+offer.HelperID)).String()
	}
	offer.CreatedAt = time.Now()

	_, err := r.client.Collection("help_offers").Doc(offer.ID).Set(ctx, offer)
	if err != nil {
		return errors.Unavailable("Failed to create help offer", err)
	}

	return nil
}

func (r *firestoreHelpRequestRepository) GetOfferByRequestAndHelper(ctx context.Context, requestID, helperID string) (*entity.HelpOffer, error) {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(requestID+":"+helperID)).String()

	doc, err := r.client.Collection("help_offers").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Help offer", err)
		}
		return nil, errors.Unavailable("Failed to get help offer", err)
	}

	var offer entity.HelpOffer
	if err := doc.DataTo(&offer); err != nil {
		return nil, errors.Internal("Failed to parse help offer data", err)
	}

	return &offer, nil
}
