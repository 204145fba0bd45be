package handler

import (
	"github.com/labstack/echo/v4"

	"bantuin/internal/usecase"
	"bantuin/pkg/errors"
	"bantuin/pkg/response"
)

type UserHandler struct {
	userUseCase       *usecase.UserUseCase
	reputationUseCase *usecase.ReputationUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase, reputationUseCase *usecase.ReputationUseCase) *UserHandler {
	return &UserHandler{
		userUseCase:       userUseCase,
		reputationUseCase: reputationUseCase,
	}
}

type updateProfileRequest struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

// GetMe returns the caller's profile, provisioning it on first access.
func (h *UserHandler) GetMe(c echo.Context) error {
	userID := c.Get("uid").(string)

	user, err := h.userUseCase.EnsureUser(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	userID := c.Get("uid").(string)

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{
		Username:  req.Username,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return response.Error(c, errors.BadRequest("User ID is required", nil))
	}

	user, err := h.userUseCase.GetUser(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// GetReputation returns the stored reputation snapshot for a user. Reads are
// cheap; recomputation happens only when a request completes.
func (h *UserHandler) GetReputation(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return response.Error(c, errors.BadRequest("User ID is required", nil))
	}

	reputation, err := h.reputationUseCase.GetByUser(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, reputation)
}
