package services

import (
	"context"

	"github.com/voxai/apiserver/types"
)

// defaultPhoneNumberStatus marks a freshly imported number.
const defaultPhoneNumberStatus = "active"

// PhoneNumberRepository defines persistence operations for imported
// phone numbers, all scoped to an owning user id.
type PhoneNumberRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]types.PhoneNumber, error)
	GetForOwner(ctx context.Context, id, userID string) (types.PhoneNumber, error)
	Create(ctx context.Context, number types.PhoneNumber) (types.PhoneNumber, error)
	Update(ctx context.Context, number types.PhoneNumber) (types.PhoneNumber, error)
	Delete(ctx context.Context, id, userID string) error
}

// PhoneNumberService encapsulates phone-number use-cases.
type PhoneNumberService struct {
	repo PhoneNumberRepository
}

func NewPhoneNumberService(repo PhoneNumberRepository) *PhoneNumberService {
	return &PhoneNumberService{repo: repo}
}

func (s *PhoneNumberService) ListByOwner(ctx context.Context, userID string) ([]types.PhoneNumber, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *PhoneNumberService) GetForOwner(ctx context.Context, id, userID string) (types.PhoneNumber, error) {
	return s.repo.GetForOwner(ctx, id, userID)
}

// Import records a new number for the owner with the default status.
func (s *PhoneNumberService) Import(ctx context.Context, ownerID string, number types.PhoneNumber) (types.PhoneNumber, error) {
	number.UserID = ownerID
	if number.Status == "" {
		number.Status = defaultPhoneNumberStatus
	}
	return s.repo.Create(ctx, number)
}

func (s *PhoneNumberService) Update(ctx context.Context, number types.PhoneNumber) (types.PhoneNumber, error) {
	return s.repo.Update(ctx, number)
}

func (s *PhoneNumberService) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}
