package router

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes. Auth is handled inside the
// handler from the token query param.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket)
}
