package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grubgo/internal/models"
)

var otpColumns = []string{"id", "user_id", "purpose", "code_hash", "created_at", "expires_at", "attempts"}

func TestOTPRepository_GetLatest(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOTPRepository(db)
	userID, id := uuid.New(), uuid.New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(sqlLike("ORDER BY created_at DESC, id DESC LIMIT 1")).
		WithArgs(userID, string(models.PurposeTwoFactorAuth)).
		WillReturnRows(sqlmock.NewRows(otpColumns).
			AddRow(id.String(), userID.String(), "TWO_FACTOR_AUTH", "hash", now, now.Add(10*time.Minute), 2))

	ch, err := repo.GetLatest(context.Background(), userID, models.PurposeTwoFactorAuth)
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, id, ch.ID)
	assert.Equal(t, models.PurposeTwoFactorAuth, ch.Purpose)
	assert.Equal(t, 2, ch.Attempts)
}

func TestOTPRepository_GetLatestNone(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOTPRepository(db)

	mock.ExpectQuery(sqlLike("FROM otp_challenges")).
		WillReturnRows(sqlmock.NewRows(otpColumns))

	ch, err := repo.GetLatest(context.Background(), uuid.New(), models.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Nil(t, ch)
}

func TestOTPRepository_CountLiveSince(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOTPRepository(db)
	userID := uuid.New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	since := now.Add(-10 * time.Minute)

	mock.ExpectQuery(sqlLike("SELECT COUNT(*) FROM otp_challenges WHERE user_id = $1 AND purpose = $2 AND created_at >= $3 AND expires_at > $4")).
		WithArgs(userID, string(models.PurposePasswordReset), since, now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountLiveSince(context.Background(), userID, models.PurposePasswordReset, since, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOTPRepository_IncrementAttempts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOTPRepository(db)
	id := uuid.New()
	const incr = "SET attempts = attempts + 1 WHERE id = $1 AND attempts < $2 RETURNING attempts"

	mock.ExpectQuery(sqlLike(incr)).WithArgs(id, 5).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(4))
	n, ok, err := repo.IncrementAttempts(context.Background(), id, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	// the guard matched nothing: already at the limit or gone
	mock.ExpectQuery(sqlLike(incr)).WithArgs(id, 5).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}))
	_, ok, err = repo.IncrementAttempts(context.Background(), id, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(sqlLike(incr)).WithArgs(id, 5).WillReturnError(errors.New("conn reset"))
	_, _, err = repo.IncrementAttempts(context.Background(), id, 5)
	assert.ErrorContains(t, err, "conn reset")
}

func TestOTPRepository_DeleteExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOTPRepository(db)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(sqlLike("DELETE FROM otp_challenges WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
