package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/domain/validation"
	"github.com/tasknest/core/internal/infrastructure/logger"
	"github.com/tasknest/core/internal/ports"
)

// UserService handles account management outside of authentication.
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, appLogger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   appLogger,
	}
}

// Get retrieves an account by ID.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Update applies a partial account update.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req ports.UpdateUserRequest) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email, err := validation.Email(*req.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated successfully", "user_id", id)

	user.PasswordHash = ""
	return user, nil
}

// Deactivate disables an account. Existing sessions keep working until they
// expire, but new logins are refused.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, false)
}

// Activate re-enables a deactivated account.
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, true)
}

func (s *UserService) setActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.IsActive == active {
		return nil
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	action := "user_deactivated"
	if active {
		action = "user_activated"
	}
	s.logger.LogUserAction(id.String(), action, nil)

	return nil
}

// List retrieves all accounts.
func (s *UserService) List(ctx context.Context) ([]*entities.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range users {
		u.PasswordHash = ""
	}

	return users, nil
}
