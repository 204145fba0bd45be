package router

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/adapter/api/handler"
	"bantuin/internal/adapter/api/middleware"
)

type Handlers struct {
	Request   *handler.RequestHandler
	Chat      *handler.ChatHandler
	User      *handler.UserHandler
	Health    *handler.HealthHandler
	WebSocket *handler.WebSocketHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	SetupHealthRouter(e, h.Health)
	SetupRequestRouter(e, h.Request, authMiddleware)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupUserRouter(e, h.User, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
}
