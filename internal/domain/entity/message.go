package entity

import "time"

// SystemSenderID is the sender sentinel for engine-emitted messages.
const SystemSenderID = "system"

// Message is an append-only event in a chat. Immutable once written; only
// Read is mutated, by the recipient.
type Message struct {
	ID                string    `json:"id" firestore:"id"`
	ChatID            string    `json:"chat_id" firestore:"chatId"`
	SenderID          string    `json:"sender_id" firestore:"senderId"`
	Text              string    `json:"text" firestore:"text"`
	Timestamp         time.Time `json:"timestamp" firestore:"timestamp"` // server-assigned
	Read              bool      `json:"read" firestore:"read"`
	IsOfficialRequest bool      `json:"is_official_request" firestore:"isOfficialRequest"`
	IsSystemMessage   bool      `json:"is_system_message" firestore:"isSystemMessage"`
}
