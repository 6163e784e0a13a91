package address

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func sampleInput() CreateInput {
	return CreateInput{
		AddressLine: "12 MG Road",
		City:        "Bengaluru",
		State:       "KA",
		Pincode:     "560001",
		Country:     "India",
		Mobile:      "9999999999",
	}
}

func TestAddressLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Add(ctx, userID, sampleInput())
	require.NoError(t, err)
	assert.True(t, created.Status)

	city := "Mysuru"
	updated, err := svc.Update(ctx, userID, created.ID, UpdateInput{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.City)
	assert.Equal(t, "12 MG Road", updated.AddressLine)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, userID, created.ID))
	_, err = svc.Get(ctx, userID, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddressesAreScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()

	created, err := svc.Add(ctx, owner, sampleInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, intruder, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	city := "Elsewhere"
	_, err = svc.Update(ctx, intruder, created.ID, UpdateInput{City: &city})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.Delete(ctx, intruder, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err := svc.List(ctx, intruder)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateRejectsBlankValues(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	created, err := svc.Add(ctx, userID, sampleInput())
	require.NoError(t, err)

	blank := "  "
	_, err = svc.Update(ctx, userID, created.ID, UpdateInput{Pincode: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
