package entity

import "time"

type User struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
	Bio      string `json:"bio,omitempty" firestore:"bio,omitempty"`

	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`

	Reputation UserReputation `json:"reputation" firestore:"reputation"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// UserReputation is derived, never authoritative: fully recomputed from the
// review ledger and completed requests on every review write.
type UserReputation struct {
	Rating            float64   `json:"rating" firestore:"rating"` // mean, 1 decimal, 0 if no reviews
	ReviewCount       int       `json:"review_count" firestore:"reviewCount"`
	CompletedRequests int       `json:"completed_requests" firestore:"completedRequests"`
	HelpedPeople      int       `json:"helped_people" firestore:"helpedPeople"`
	Level             int       `json:"level" firestore:"level"`
	UpdatedAt         time.Time `json:"updated_at" firestore:"updatedAt"`
}
