package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	alice := factory.CreateUser(t, "Alice", "alice@example.com", models.RoleAdmin)
	require.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	t.Run("duplicate email", func(t *testing.T) {
		_, err := storage.CreateUser(ctx, models.User{
			Name: "Other", Email: "alice@example.com", PasswordHash: "h", Role: models.RoleUser,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, "email already registered", apperr.Message(err))
	})

	t.Run("get by id and email", func(t *testing.T) {
		byID, err := storage.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Name)
		assert.Equal(t, "hashedpassword", byID.PasswordHash)

		byEmail, err := storage.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := storage.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = storage.GetUserByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = storage.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		updated := *alice
		updated.Name = "Alice Cooper"
		res, err := storage.UpdateUser(ctx, updated)
		require.NoError(t, err)
		assert.Equal(t, "Alice Cooper", res.Name)
		assert.False(t, res.UpdatedAt.Before(alice.UpdatedAt))
	})

	t.Run("list and delete", func(t *testing.T) {
		bob := factory.CreateUser(t, "Bob", "bob@example.com", models.RoleUser)

		users, err := storage.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)

		require.NoError(t, storage.DeleteUser(ctx, bob.ID))
		assert.ErrorIs(t, storage.DeleteUser(ctx, bob.ID), apperr.ErrNotFound)

		users, err = storage.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func TestStorage_CanceledContext(t *testing.T) {
	storage := &Storage{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.GetUserByID(ctx, "id")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = storage.ReadSale(ctx, "id")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = storage.SalesAnalytics(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
