package handler

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/usecase"
	"bantuin/pkg/errors"
	"bantuin/pkg/response"
	"bantuin/pkg/utils"
)

type RequestHandler struct {
	requestUseCase *usecase.RequestUseCase
}

func NewRequestHandler(requestUseCase *usecase.RequestUseCase) *RequestHandler {
	return &RequestHandler{
		requestUseCase: requestUseCase,
	}
}

type createRequestRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Urgency     string `json:"urgency" validate:"required,oneof=low medium high"`

	// Set both to create an official chat request instead of a feed posting.
	HelperID      string `json:"helperId,omitempty"`
	DurationHours int    `json:"durationHours,omitempty"`
}

type offerHelpRequest struct {
	Message string `json:"message"`
}

type proposeRequest struct {
	HelperID      string `json:"helperId" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"required,gt=0"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type completeRequest struct {
	Rating   int      `json:"rating" validate:"required,min=1,max=5"`
	Feedback string   `json:"feedback"`
	Tags     []string `json:"tags,omitempty"`
}

func (h *RequestHandler) CreateRequest(c echo.Context) error {
	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	var request interface{}
	var err error
	if req.HelperID != "" {
		request, err = h.requestUseCase.CreateOfficialRequest(c.Request().Context(), userID, usecase.CreateOfficialRequestInput{
			Title:         req.Title,
			Description:   req.Description,
			Category:      req.Category,
			Urgency:       req.Urgency,
			HelperID:      req.HelperID,
			DurationHours: req.DurationHours,
		})
	} else {
		request, err = h.requestUseCase.CreateRequest(c.Request().Context(), userID, usecase.CreateRequestInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Urgency:     req.Urgency,
		})
	}
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, request)
}

func (h *RequestHandler) GetRequest(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return response.Error(c, errors.BadRequest("Request ID is required", nil))
	}

	request, err := h.requestUseCase.GetRequest(c.Request().Context(), requestID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, request)
}

func (h *RequestHandler) ListOpenRequests(c echo.Context) error {
	window := utils.ListWindowFromQuery(c)

	requests, total, err := h.requestUseCase.ListOpenRequests(c.Request().Context(), window.Limit, window.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, requests, total, window.Limit, window.Offset)
}

// OfferHelp lets a helper respond to an open feed posting. Returns the chat
// the pair will talk in; repeated calls return the same chat.
func (h *RequestHandler) OfferHelp(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return response.Error(c, errors.BadRequest("Request ID is required", nil))
	}

	var req offerHelpRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	userID := c.Get("uid").(string)

	chat, err := h.requestUseCase.OfferHelp(c.Request().Context(), userID, requestID, req.Message)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *RequestHandler) Propose(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return response.Error(c, errors.BadRequest("Request ID is required", nil))
	}

	var req proposeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	request, err := h.requestUseCase.Propose(c.Request().Context(), userID, requestID, req.HelperID, req.DurationHours)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, request)
}

func (h *RequestHandler) Accept(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return response.Error(c, errors.BadRequest("Request ID is required", nil))
	}

	userID := c.Get("uid").(string)

	request, err := h.requestUseCase.Accept(c.Request().Context(), userID, requestID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, request)
}

func (h *RequestHandler) Reject(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return response.Error(c, errors.BadRequest("Request ID is required", nil))
	}

	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	request, err := h.requestUseCase.Reject(c.Request().Context(), userID, requestID, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, request)
}

func (h *RequestHandler) Complete(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return response.Error(c, errors.BadRequest("Request ID is required", nil))
	}

	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	request, err := h.requestUseCase.Complete(c.Request().Context(), userID, requestID, usecase.CompleteRequestInput{
		Rating:   req.Rating,
		Feedback: req.Feedback,
		Tags:     req.Tags,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, request)
}

func (h *RequestHandler) GetRequestLogs(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return response.Error(c, errors.BadRequest("Request ID is required", nil))
	}

	userID := c.Get("uid").(string)

	logs, err := h.requestUseCase.GetRequestLogs(c.Request().Context(), userID, requestID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, logs)
}
