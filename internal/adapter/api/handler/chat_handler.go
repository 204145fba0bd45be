package handler

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/usecase"
	"bantuin/pkg/errors"
	"bantuin/pkg/response"
	"bantuin/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type muteChatRequest struct {
	Muted bool `json:"muted"`
}

func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID := c.Get("uid").(string)
	window := utils.ListWindowFromQuery(c)

	chats, total, err := h.chatUseCase.GetUserChats(c.Request().Context(), userID, window.Limit, window.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, chats, total, window.Limit, window.Offset)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.GetChatByID(c.Request().Context(), userID, chatID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	userID := c.Get("uid").(string)
	window := utils.ListWindowFromQuery(c)

	messages, total, err := h.chatUseCase.GetChatMessages(c.Request().Context(), userID, chatID, window.Limit, window.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, window.Limit, window.Offset)
}

// SendMessage appends a plain chat message. Official proposals never come
// through here; they are emitted by the request lifecycle.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ChatID: chatID,
		Text:   req.Text,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkChatAsRead(c.Request().Context(), userID, chatID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *ChatHandler) MuteChat(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	var req muteChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MuteChat(c.Request().Context(), userID, chatID, req.Muted); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"muted": req.Muted})
}
