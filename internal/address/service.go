package address

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages a user's delivery addresses. Reads and writes never cross
// users.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddressDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddressDTO, error) {
	status := true
	if input.Status != nil {
		status = *input.Status
	}
	addr := &models.Address{
		UserID:      userID,
		AddressLine: strings.TrimSpace(input.AddressLine),
		City:        strings.TrimSpace(input.City),
		State:       strings.TrimSpace(input.State),
		Pincode:     strings.TrimSpace(input.Pincode),
		Country:     strings.TrimSpace(input.Country),
		Mobile:      strings.TrimSpace(input.Mobile),
		Status:      status,
	}
	if addr.AddressLine == "" || addr.City == "" || addr.State == "" || addr.Pincode == "" || addr.Country == "" || addr.Mobile == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address_line, city, state, pincode, country and mobile are required")
	}
	if err := s.repo.Create(ctx, addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	dto := newAddressDTO(addr)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newAddressDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	addr, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, mapRepoError(err, "load address")
	}
	dto := newAddressDTO(addr)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error) {
	updates := map[string]any{}
	setTrimmed(updates, "address_line", input.AddressLine)
	setTrimmed(updates, "city", input.City)
	setTrimmed(updates, "state", input.State)
	setTrimmed(updates, "pincode", input.Pincode)
	setTrimmed(updates, "country", input.Country)
	setTrimmed(updates, "mobile", input.Mobile)
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	for column, value := range updates {
		if v, ok := value.(string); ok && v == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be blank")
		}
	}

	if len(updates) == 0 {
		return s.Get(ctx, userID, id)
	}
	if err := s.repo.Update(ctx, userID, id, updates); err != nil {
		return nil, mapRepoError(err, "update address")
	}
	return s.Get(ctx, userID, id)
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return mapRepoError(err, "delete address")
	}
	return nil
}

func setTrimmed(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = strings.TrimSpace(*value)
	}
}

func mapRepoError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
