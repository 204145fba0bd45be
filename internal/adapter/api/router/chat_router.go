package router

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/adapter/api/handler"
	"bantuin/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.GET("", chatHandler.GetUserChats)
	chats.GET("/:id", chatHandler.GetChatByID)
	chats.PUT("/:id/read", chatHandler.MarkChatAsRead)
	chats.PUT("/:id/mute", chatHandler.MuteChat)

	chats.GET("/:id/messages", chatHandler.GetChatMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
}
