package entity

import "time"

// Participant is the display info cached on a chat per member.
type Participant struct {
	Name   string `json:"name" firestore:"name"`
	Avatar string `json:"avatar,omitempty" firestore:"avatar,omitempty"`
}

// Chat is a two-party conversation, linked to at most one non-terminal
// HelpRequest at a time. Once that request settles, IsCompleted latches true
// and a fresh official proposal opens a new chat.
type Chat struct {
	ID              string                 `json:"id" firestore:"id"`
	ParticipantIDs  []string               `json:"participant_ids" firestore:"participantIds"` // exactly two
	Participants    map[string]Participant `json:"participants" firestore:"participants"`
	RequestID       string                 `json:"request_id,omitempty" firestore:"requestId,omitempty"`
	IsCompleted     bool                   `json:"is_completed" firestore:"isCompleted"`
	LastMessage     string                 `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageTime time.Time              `json:"last_message_time" firestore:"lastMessageTime"`
	UnreadCount     map[string]int         `json:"unread_count" firestore:"unreadCount"`
	MutedBy         map[string]bool        `json:"muted_by,omitempty" firestore:"mutedBy,omitempty"`
	CreatedAt       time.Time              `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time              `json:"updated_at" firestore:"updatedAt"`
}
