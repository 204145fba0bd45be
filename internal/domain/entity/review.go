package entity

import "time"

// Review is one rating event, created exactly once per completed HelpRequest.
// Uniqueness per request is enforced by the lifecycle engine's guard, not by
// the ledger itself.
type Review struct {
	ID          string    `json:"id" firestore:"id"`
	RequestID   string    `json:"request_id" firestore:"requestId"`
	ReviewerUID string    `json:"reviewer_uid" firestore:"reviewerUid"` // the requester
	RevieweeUID string    `json:"reviewee_uid" firestore:"revieweeUid"` // the helper
	Rating      int       `json:"rating" firestore:"rating"`            // 1-5
	Comment     string    `json:"comment,omitempty" firestore:"comment,omitempty"`
	Tags        []string  `json:"tags,omitempty" firestore:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
