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

type OrderRepository interface {
	// CreateAndCredit stores the order and adds its points to the owner in one
	// transaction. When the owner already has an order with the same RequestID nothing
	// is written, the stored order is loaded into order and created is false.
	CreateAndCredit(ctx context.Context, order *models.Order) (created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, user_id, status, items, subtotal, tax, tax_amount, total, points_earned,
	skipped_items, request_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	if err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Items, &o.Subtotal, &o.Tax, &o.TaxAmount, &o.Total, &o.PointsEarned,
		&o.SkippedItems, &o.RequestID, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) CreateAndCredit(ctx context.Context, order *models.Order) (bool, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const ins = `
		INSERT INTO orders (
			id, user_id, status, items, subtotal, tax, tax_amount, total, points_earned,
			skipped_items, request_id, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (user_id, request_id) DO NOTHING
		RETURNING id
	`
	var id uuid.UUID
	err = tx.QueryRowContext(ctx, ins,
		order.ID, order.UserID, order.Status, order.Items, order.Subtotal, order.Tax, order.TaxAmount,
		order.Total, order.PointsEarned, order.SkippedItems, order.RequestID, order.CreatedAt, order.UpdatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND request_id = $2`,
			order.UserID, order.RequestID))
		if err != nil {
			return false, fmt.Errorf("load existing order: %w", err)
		}
		*order = *existing
		return false, tx.Commit()
	}
	if err != nil {
		return false, fmt.Errorf("insert order: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points + $1, updated_at = NOW() WHERE id = $2`,
		order.PointsEarned, order.UserID)
	if err != nil {
		return false, fmt.Errorf("credit points: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit order tx: %w", err)
	}
	return true, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var res []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
