package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"bantuin/internal/domain/entity"
	"bantuin/internal/domain/repository"
	ws "bantuin/internal/infrastructure/websocket"
	"bantuin/pkg/errors"
	"bantuin/pkg/logger"
)

// ChatUseCase is the conversation gateway: it sequences lifecycle events and
// user messages into an ordered, append-only log per participant pair and
// maintains per-participant unread counters. It owns no request state.
type ChatUseCase struct {
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
	wsManager *ws.Manager
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		wsManager: wsManager,
	}
}

type SendMessageInput struct {
	ChatID            string
	Text              string
	IsOfficialRequest bool
}

type ChatResponse struct {
	*entity.Chat
	OtherUser *entity.User `json:"other_user,omitempty"`
}

// FindOrCreateChat returns the single chat for (userID, recipientID,
// requestID), creating it when absent. Safe to call from racing actions; both
// callers settle on the same chat.
func (uc *ChatUseCase) FindOrCreateChat(ctx context.Context, userID, recipientID, requestID string) (*entity.Chat, error) {
	if userID == recipientID {
		return nil, errors.BadRequest("You cannot create a chat with yourself", nil)
	}

	sender, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipient, err := uc.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	chat := &entity.Chat{
		ParticipantIDs: []string{userID, recipientID},
		Participants: map[string]entity.Participant{
			userID:      {Name: sender.Username, Avatar: sender.AvatarURL},
			recipientID: {Name: recipient.Username, Avatar: recipient.AvatarURL},
		},
		RequestID:   requestID,
		UnreadCount: make(map[string]int),
	}

	return uc.chatRepo.FindOrCreate(ctx, chat)
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*entity.Message, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}

	if !containsString(chat.ParticipantIDs, userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	// A settled engagement never carries another official proposal; plain
	// chatting between the same two users may continue.
	if input.IsOfficialRequest && chat.IsCompleted {
		return nil, errors.Conflict("This conversation's engagement is already settled", nil)
	}

	message := &entity.Message{
		ChatID:            input.ChatID,
		SenderID:          userID,
		Text:              input.Text,
		Read:              false,
		IsOfficialRequest: input.IsOfficialRequest,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.bumpChat(ctx, chat, message, userID)
	uc.broadcast(chat, message)

	return message, nil
}

// SendSystemMessage appends an engine-emitted notice. Best-effort annotation:
// callers log failures instead of rolling back the transition that caused it.
func (uc *ChatUseCase) SendSystemMessage(ctx context.Context, chatID, text string) (*entity.Message, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ChatID:          chatID,
		SenderID:        entity.SystemSenderID,
		Text:            text,
		Read:            false,
		IsSystemMessage: true,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.bumpChat(ctx, chat, message, entity.SystemSenderID)
	uc.broadcast(chat, message)

	return message, nil
}

// CompleteChat latches IsCompleted once the linked request settles. Idempotent.
func (uc *ChatUseCase) CompleteChat(ctx context.Context, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if chat.IsCompleted {
		return nil
	}

	chat.IsCompleted = true
	return uc.chatRepo.Update(ctx, chat)
}

func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if !containsString(chat.ParticipantIDs, userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	if err := uc.chatRepo.MarkMessagesRead(ctx, chatID, userID); err != nil {
		return err
	}

	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	chat.UnreadCount[userID] = 0

	return uc.chatRepo.Update(ctx, chat)
}

func (uc *ChatUseCase) MuteChat(ctx context.Context, userID, chatID string, muted bool) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if !containsString(chat.ParticipantIDs, userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	if chat.MutedBy == nil {
		chat.MutedBy = make(map[string]bool)
	}
	chat.MutedBy[userID] = muted

	return uc.chatRepo.Update(ctx, chat)
}

func (uc *ChatUseCase) GetChatByID(ctx context.Context, userID, chatID string) (*ChatResponse, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !containsString(chat.ParticipantIDs, userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	chatResp := &ChatResponse{Chat: chat}

	for _, participantID := range chat.ParticipantIDs {
		if participantID != userID {
			otherUser, err := uc.userRepo.GetByID(ctx, participantID)
			if err == nil {
				chatResp.OtherUser = otherUser
			} else {
				logger.Warn("Other user %s not found for chat %s: %v", participantID, chat.ID, err)
			}
			break
		}
	}

	return chatResp, nil
}

func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	return uc.chatRepo.ListByUserID(ctx, userID, limit, offset)
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}

	if !containsString(chat.ParticipantIDs, userID) {
		return nil, 0, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.chatRepo.GetMessagesByChat(ctx, chatID, limit, offset)
}

// bumpChat refreshes the chat's last-message snapshot and unread counters.
func (uc *ChatUseCase) bumpChat(ctx context.Context, chat *entity.Chat, message *entity.Message, senderID string) {
	chat.LastMessage = message.Text
	chat.LastMessageTime = message.Timestamp
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	for _, participantID := range chat.ParticipantIDs {
		if participantID != senderID {
			chat.UnreadCount[participantID]++
		}
	}

	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Warn("Failed to update chat %s after message %s: %v", chat.ID, message.ID, err)
	}
}

func (uc *ChatUseCase) broadcast(chat *entity.Chat, message *entity.Message) {
	if uc.wsManager == nil {
		return
	}

	notification := map[string]interface{}{
		"type":    "new_message",
		"chat_id": chat.ID,
		"message": message,
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		logger.Warn("Failed to marshal chat notification for chat %s: %v", chat.ID, err)
		return
	}

	// Muted participants still receive the data frame; clients decide whether
	// to alert. Delivery is best-effort either way.
	uc.wsManager.SendToUsers(chat.ParticipantIDs, payload)
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
