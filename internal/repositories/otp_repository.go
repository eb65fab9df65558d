package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"grubgo/internal/models"
)

// OTPRepository is the ledger of outstanding one-time-code challenges.
// Each issuance is a new row.
type OTPRepository interface {
	Create(ctx context.Context, ch *models.OTPChallenge) error
	// GetLatest returns the most recently created challenge, or nil when none exists.
	// Ties on created_at are broken by the larger id.
	GetLatest(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose) (*models.OTPChallenge, error)
	// CountLiveSince counts challenges created at or after since that have not expired at now.
	CountLiveSince(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose, since, now time.Time) (int, error)
	// IncrementAttempts adds one failed attempt unless the record already reached limit.
	// ok is false when nothing was updated.
	IncrementAttempts(ctx context.Context, id uuid.UUID, limit int) (attempts int, ok bool, err error)
	DeleteAll(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	DB *sql.DB
}

func NewOTPRepository(db *sql.DB) OTPRepository {
	return &otpRepository{DB: db}
}

func (r *otpRepository) Create(ctx context.Context, ch *models.OTPChallenge) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	const q = `
		INSERT INTO otp_challenges (id, user_id, purpose, code_hash, created_at, expires_at, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.DB.ExecContext(ctx, q,
		ch.ID, ch.UserID, string(ch.Purpose), ch.CodeHash, ch.CreatedAt, ch.ExpiresAt, ch.Attempts,
	); err != nil {
		return fmt.Errorf("otp create: %w", err)
	}
	return nil
}

func (r *otpRepository) GetLatest(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose) (*models.OTPChallenge, error) {
	const q = `
		SELECT id, user_id, purpose, code_hash, created_at, expires_at, attempts
		FROM otp_challenges
		WHERE user_id = $1 AND purpose = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var (
		ch      models.OTPChallenge
		purpStr string
	)
	err := r.DB.QueryRowContext(ctx, q, userID, string(purpose)).Scan(
		&ch.ID, &ch.UserID, &purpStr, &ch.CodeHash, &ch.CreatedAt, &ch.ExpiresAt, &ch.Attempts,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("otp latest: %w", err)
	}
	ch.Purpose = models.OTPPurpose(purpStr)
	return &ch, nil
}

func (r *otpRepository) CountLiveSince(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose, since, now time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM otp_challenges
		WHERE user_id = $1 AND purpose = $2 AND created_at >= $3 AND expires_at > $4
	`
	var c int
	if err := r.DB.QueryRowContext(ctx, q, userID, string(purpose), since, now).Scan(&c); err != nil {
		return 0, fmt.Errorf("otp count recent: %w", err)
	}
	return c, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID, limit int) (int, bool, error) {
	const q = `
		UPDATE otp_challenges
		SET attempts = attempts + 1
		WHERE id = $1 AND attempts < $2
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRowContext(ctx, q, id, limit).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("otp increment attempts: %w", err)
	}
	return attempts, true, nil
}

func (r *otpRepository) DeleteAll(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose) error {
	if _, err := r.DB.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE user_id = $1 AND purpose = $2`, userID, string(purpose),
	); err != nil {
		return fmt.Errorf("otp delete: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM otp_challenges WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("otp delete expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
