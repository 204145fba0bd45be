package repository

import (
	"context"
	"sort"
	"strings"
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

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// chatDocID derives a deterministic document ID from the participant pair and
// the linked request, so two racing FindOrCreate calls land on the same doc.
func chatDocID(participantIDs []string, requestID string) string {
	ids := make([]string, len(participantIDs))
	copy(ids, participantIDs)
	sort.Strings(ids)

	key := strings.Join(ids, ":") + "|" + requestID
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func (r *firestoreChatRepository) FindOrCreate(ctx context.Context, chat *entity.Chat) (*entity.Chat, error) {
	docID := chatDocID(chat.ParticipantIDs, chat.RequestID)
	docRef := r.client.Collection("chats").Doc(docID)

	var result entity.Chat

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err == nil {
			// Another caller won the race (or the chat already existed); reuse it.
			return doc.DataTo(&result)
		}
		if status.Code(err) != codes.NotFound {
			return errors.Unavailable("Failed to look up chat", err)
		}

		now := time.Now()
		chat.ID = docID
		chat.CreatedAt = now
		chat.UpdatedAt = now
		if chat.UnreadCount == nil {
			chat.UnreadCount = make(map[string]int)
		}
		if chat.LastMessageTime.IsZero() {
			chat.LastMessageTime = now
		}

		if err := tx.Set(docRef, chat); err != nil {
			return errors.Unavailable("Failed to create chat", err)
		}

		result = *chat
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Unavailable("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.client.Collection("chats").
		Where("participantIds", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Unavailable("Failed to fetch chats", err)
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

	var chats []*entity.Chat
	for _, doc := range allDocs[start:end] {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			continue // Skip malformed documents
		}
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	chat.UpdatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Unavailable("Failed to update chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	// Server-assigned timestamp keeps message ordering monotonic per chat.
	message.Timestamp = time.Now()

	_, err := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Unavailable("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").
		OrderBy("timestamp", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Unavailable("Failed to fetch messages", err)
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

	var messages []*entity.Message
	for _, doc := range allDocs[start:end] {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreChatRepository) MarkMessagesRead(ctx context.Context, chatID, userID string) error {
	iter := r.client.Collection("chats").Doc(chatID).Collection("messages").
		Where("read", "==", false).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Unavailable("Failed to iterate unread messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue
		}

		// Only the recipient flips the read flag; own messages stay as written.
		if message.SenderID == userID {
			continue
		}

		if _, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "read", Value: true},
		}); err != nil {
			return errors.Unavailable("Failed to mark message read", err)
		}
	}

	return nil
}
