package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/policy"
)

// UserService lets managers administer accounts
type UserService struct {
	store repository.Store
}

// NewUserService creates a new user service
func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// List returns every account except the caller's own
func (s *UserService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := policy.Authorize(actor, policy.ManageUsers); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx, actor.ID)
}

func (s *UserService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ManageUsers); err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, id)
}

// Update applies a partial update, including a role change
func (s *UserService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.UserUpdateRequest) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ManageUsers); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(user); err != nil {
		return nil, err
	}

	return s.store.Users().Update(ctx, *user)
}

func (s *UserService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.ManageUsers); err != nil {
		return err
	}
	return s.store.Users().Delete(ctx, id)
}
