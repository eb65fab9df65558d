package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grubgo/internal/models"
	"grubgo/internal/repositories/memory"
)

func TestOTPSweeper_KeepsRecentlyExpired(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Now()
	user := uuid.New()

	add := func(expires time.Time) uuid.UUID {
		ch := &models.OTPChallenge{UserID: user, Purpose: models.PurposeEmailVerification, CreatedAt: expires.Add(-otpTTL), ExpiresAt: expires}
		require.NoError(t, store.OTPs().Create(ctx, ch))
		return ch.ID
	}
	add(now.Add(-2 * time.Hour))
	add(now.Add(-time.Minute))
	add(now.Add(5 * time.Minute))

	sw, err := NewOTPSweeper(store.OTPs(), "@every 5m")
	require.NoError(t, err)
	sw.now = func() time.Time { return now }

	n, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	live, err := store.OTPs().CountLiveSince(ctx, user, models.PurposeEmailVerification, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 1, live)
}

func TestOTPSweeper_RejectsBadSchedule(t *testing.T) {
	_, err := NewOTPSweeper(memory.NewStore().OTPs(), "every now and then")
	assert.Error(t, err)
}

func TestOTPSweeper_StartStop(t *testing.T) {
	sw, err := NewOTPSweeper(memory.NewStore().OTPs(), "@every 1h")
	require.NoError(t, err)
	sw.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sw.Stop(ctx)
}
