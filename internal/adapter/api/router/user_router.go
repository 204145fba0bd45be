package router

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/adapter/api/handler"
	"bantuin/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware) {
	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("/me", userHandler.GetMe)
	users.PUT("/me", userHandler.UpdateMe)
	users.GET("/:id", userHandler.GetUser)
	users.GET("/:id/reputation", userHandler.GetReputation)
}
