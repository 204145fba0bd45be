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

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

func (r *firestoreReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	// One review per request: the document ID is derived from the request so a
	// retried write lands on the same document instead of appending a second.
	if review.ID == "" {
		review.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("review:"+review.RequestID)).String()
	}
	review.CreatedAt = time.Now()

	_, err := r.client.Collection("reviews").Doc(review.ID).Set(ctx, review)
	if err != nil {
		return errors.Unavailable("Failed to create review", err)
	}

	return nil
}

func (r *firestoreReviewRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.Review, error) {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("review:"+requestID)).String()

	doc, err := r.client.Collection("reviews").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Review for request", err)
		}
		return nil, errors.Unavailable("Failed to get review", err)
	}

	var review entity.Review
	if err := doc.DataTo(&review); err != nil {
		return nil, errors.Internal("Failed to parse review data", err)
	}

	return &review, nil
}

func (r *firestoreReviewRepository) ListByReviewee(ctx context.Context, revieweeUID string) ([]*entity.Review, error) {
	iter := r.client.Collection("reviews").
		Where("revieweeUid", "==", revieweeUID).
		Documents(ctx)
	defer iter.Stop()

	var reviews []*entity.Review
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Unavailable("Failed to list reviews", err)
		}

		var review entity.Review
		if err := doc.DataTo(&review); err != nil {
			continue
		}
		reviews = append(reviews, &review)
	}

	return reviews, nil
}
