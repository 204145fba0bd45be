package router

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/adapter/api/handler"
	"bantuin/internal/adapter/api/middleware"
)

// SetupRequestRouter wires the help request lifecycle endpoints.
func SetupRequestRouter(e *echo.Echo, requestHandler *handler.RequestHandler, authMiddleware *middleware.AuthMiddleware) {
	requests := e.Group("/v1/requests")
	requests.Use(authMiddleware.Authenticate)

	requests.POST("", requestHandler.CreateRequest)
	requests.GET("", requestHandler.ListOpenRequests)
	requests.GET("/:id", requestHandler.GetRequest)
	requests.GET("/:id/logs", requestHandler.GetRequestLogs)

	// Lifecycle transitions
	requests.POST("/:id/offer", requestHandler.OfferHelp)
	requests.POST("/:id/propose", requestHandler.Propose)
	requests.POST("/:id/accept", requestHandler.Accept)
	requests.POST("/:id/reject", requestHandler.Reject)
	requests.POST("/:id/complete", requestHandler.Complete)
}
