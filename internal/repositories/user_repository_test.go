package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grubgo/internal/models"
)

var userColumnNames = []string{
	"id", "email", "username", "password_hash", "first_name", "last_name", "phone",
	"is_email_verified", "points", "cart", "created_at", "updated_at",
}

func TestUserRepository_GetByIdentifier(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id, foodID := uuid.New(), uuid.New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(sqlLike("WHERE (email = $1 OR username = $1) ORDER BY created_at LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(
			id.String(), "a@grubgo.test", "alice", "hash", "Alice", "Smith", "+1234567890",
			true, 12, []byte(`[{"foodId":"`+foodID.String()+`","quantity":3}]`), now, now,
		))

	u, err := repo.GetByIdentifier(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, 12, u.Points)
	assert.Equal(t, models.Cart{{FoodID: foodID, Quantity: 3}}, u.Cart)
}

func TestUserRepository_GetByEmailNone(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
		WithArgs("nobody@grubgo.test").
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	u, err := repo.GetByEmail(context.Background(), "nobody@grubgo.test")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_UpdatesReportMissingRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectExec(sqlLike("UPDATE users SET is_email_verified = TRUE")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkEmailVerified(context.Background(), id))

	mock.ExpectExec(sqlLike("UPDATE users SET password_hash = $2")).
		WithArgs(id, "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), id, "new-hash"), ErrNotFound)

	mock.ExpectExec(sqlLike("DELETE FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
}
