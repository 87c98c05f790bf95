package usecase

import (
	"context"
	"strings"

	"findit/internal/domain/entity"
	"findit/internal/domain/repository"
	"findit/pkg/errors"
	"findit/pkg/logger"
)

type UserUseCase struct {
	userRepo repository.UserRepository
}

func NewUserUseCase(userRepo repository.UserRepository) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
	}
}

// SyncProfile upserts the local profile from the identity provider's token
// claims. The stored display name is what chat sessions snapshot at creation.
func (uc *UserUseCase) SyncProfile(ctx context.Context, id, email, displayName string) (*entity.User, error) {
	displayName = strings.TrimSpace(displayName)

	existing, err := uc.userRepo.GetByID(ctx, id)
	if err == nil {
		changed := false
		if displayName != "" && existing.DisplayName != displayName {
			existing.DisplayName = displayName
			changed = true
		}
		if email != "" && existing.Email != email {
			existing.Email = email
			changed = true
		}
		if changed {
			if err := uc.userRepo.Update(ctx, existing); err != nil {
				logger.Error("SyncProfile: failed to update user %s: %v", id, err)
				return nil, err
			}
		}
		return existing, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	user := &entity.User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		Role:        "user",
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		logger.Error("SyncProfile: failed to create user %s: %v", id, err)
		return nil, err
	}

	return user, nil
}

func (uc *UserUseCase) GetProfile(ctx context.Context, id string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
