package entity

import "time"

type RequestStatus string

const (
	StatusOpen      RequestStatus = "open"
	StatusPending   RequestStatus = "pending"
	StatusOngoing   RequestStatus = "ongoing"
	StatusCompleted RequestStatus = "completed"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

const (
	TypeFeedRequest         = "feed_request"
	TypeOfficialChatRequest = "official_chat_request"
)

const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// validTransitions is the single authoritative transition table. Every
// mutation of HelpRequest.Status must pass through it.
var validTransitions = map[RequestStatus][]RequestStatus{
	StatusOpen:    {StatusPending},
	StatusPending: {StatusOngoing, StatusRejected, StatusCancelled, StatusOpen},
	StatusOngoing: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal edge. The pending->open
// edge exists only for the reject compensation on feed postings.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

type HelpRequest struct {
	ID          string `json:"id" firestore:"id"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description" firestore:"description"`
	Category    string `json:"category" firestore:"category"`
	Urgency     string `json:"urgency" firestore:"urgency"` // "low", "medium", "high"

	RequesterID   string `json:"requester_id" firestore:"requesterId"`
	RequesterName string `json:"requester_name" firestore:"requesterName"`
	HelperID      string `json:"helper_id,omitempty" firestore:"helperId,omitempty"`
	HelperName    string `json:"helper_name,omitempty" firestore:"helperName,omitempty"`

	Type              string        `json:"type" firestore:"type"` // "feed_request", "official_chat_request"
	IsOfficialRequest bool          `json:"is_official_request" firestore:"isOfficialRequest"`
	Status            RequestStatus `json:"status" firestore:"status"`

	ChatID     string `json:"chat_id,omitempty" firestore:"chatId,omitempty"`
	HelpOffers int    `json:"help_offers" firestore:"helpOffers"` // display counter, not authoritative

	CreatedAt     time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" firestore:"updatedAt"`
	RequestSentAt *time.Time `json:"request_sent_at,omitempty" firestore:"requestSentAt,omitempty"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty" firestore:"acceptedAt,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty" firestore:"rejectedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty" firestore:"cancelledAt,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" firestore:"expiresAt,omitempty"`

	Rating          int      `json:"rating,omitempty" firestore:"rating,omitempty"` // 1-5
	Feedback        string   `json:"feedback,omitempty" firestore:"feedback,omitempty"`
	RatingTags      []string `json:"rating_tags,omitempty" firestore:"ratingTags,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty" firestore:"rejectionReason,omitempty"`
}

// RequestLog is one audit entry per attempted or applied transition.
type RequestLog struct {
	ID        string        `json:"id" firestore:"id"`
	RequestID string        `json:"request_id" firestore:"requestId"`
	Status    RequestStatus `json:"status" firestore:"status"`
	Notes     string        `json:"notes" firestore:"notes"`
	CreatedBy string        `json:"created_by" firestore:"createdBy"`
	CreatedAt time.Time     `json:"created_at" firestore:"createdAt"`
}

// HelpOffer is the lightweight link a helper creates by swiping/offering on
// an open feed posting. It carries no lifecycle state of its own.
type HelpOffer struct {
	ID        string    `json:"id" firestore:"id"`
	RequestID string    `json:"request_id" firestore:"requestId"`
	HelperID  string    `json:"helper_id" firestore:"helperId"`
	Message   string    `json:"message,omitempty" firestore:"message,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
