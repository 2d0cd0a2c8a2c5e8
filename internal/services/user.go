package services

import (
	"context"

	"github.com/voxai/apiserver/internal/auth"
	"github.com/voxai/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByPublicKey(ctx context.Context, publicKey string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateKeys(ctx context.Context, id, publicKey, secretKey string) error
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) GetByPublicKey(ctx context.Context, publicKey string) (types.User, error) {
	return s.repo.GetByPublicKey(ctx, publicKey)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// EnsureKeys backfills missing public/secret keys on accounts created
// before keys existed, persisting exactly once. Idempotent.
func (s *UserService) EnsureKeys(ctx context.Context, user *types.User) error {
	changed, err := auth.EnsureKeys(user)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.repo.UpdateKeys(ctx, user.ID, user.PublicKey, user.SecretKey)
}
