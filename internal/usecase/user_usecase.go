package usecase

import (
	"context"
	"strings"

	"bantuin/internal/domain/entity"
	"bantuin/internal/domain/repository"
	"bantuin/internal/infrastructure/firebase"
	"bantuin/pkg/errors"
)

// UserUseCase maintains user profiles. Identity lives in Firebase; the local
// profile document is provisioned lazily on first authenticated access.
type UserUseCase struct {
	userRepo   repository.UserRepository
	authClient *firebase.AuthClient
}

func NewUserUseCase(userRepo repository.UserRepository, authClient *firebase.AuthClient) *UserUseCase {
	return &UserUseCase{
		userRepo:   userRepo,
		authClient: authClient,
	}
}

type UpdateProfileInput struct {
	Username  string
	Bio       string
	AvatarURL string
}

// EnsureUser returns the profile for uid, creating it from the Firebase
// identity when it does not exist yet.
func (uc *UserUseCase) EnsureUser(ctx context.Context, uid string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	displayName, err := uc.authClient.GetDisplayName(ctx, uid)
	if err != nil {
		return nil, errors.Unavailable("Failed to look up identity provider profile", err)
	}
	if displayName == "" {
		displayName = "User " + uid[:minInt(6, len(uid))]
	}

	user = &entity.User{
		ID:       uid,
		Username: displayName,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, uid string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.EnsureUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Username) != "" {
		user.Username = input.Username
	}
	user.Bio = input.Bio
	user.AvatarURL = input.AvatarURL

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (uc *UserUseCase) GetUser(ctx context.Context, uid string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, uid)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
