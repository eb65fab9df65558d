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

type FoodRepository interface {
	Create(ctx context.Context, food *models.Food) error
	// GetByID returns nil, nil when the food does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Food, error)
	List(ctx context.Context) ([]*models.Food, error)
	Update(ctx context.Context, food *models.Food) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type foodRepository struct {
	db *sql.DB
}

func NewFoodRepository(db *sql.DB) FoodRepository {
	return &foodRepository{db: db}
}

func (r *foodRepository) Create(ctx context.Context, food *models.Food) error {
	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	now := time.Now()
	food.CreatedAt, food.UpdatedAt = now, now
	const q = `
		INSERT INTO foods (id, name, price, category, in_stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, q,
		food.ID, food.Name, food.Price, food.Category, food.InStock, food.ImageURL, food.CreatedAt, food.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create food: %w", err)
	}
	return nil
}

func (r *foodRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Food, error) {
	const q = `
		SELECT id, name, price, category, in_stock, image_url, created_at, updated_at
		FROM foods
		WHERE id = $1
	`
	var f models.Food
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.Name, &f.Price, &f.Category, &f.InStock, &f.ImageURL, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get food: %w", err)
	}
	return &f, nil
}

func (r *foodRepository) List(ctx context.Context) ([]*models.Food, error) {
	const q = `
		SELECT id, name, price, category, in_stock, image_url, created_at, updated_at
		FROM foods
		ORDER BY category, name
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	var res []*models.Food
	for rows.Next() {
		var f models.Food
		if err := rows.Scan(&f.ID, &f.Name, &f.Price, &f.Category, &f.InStock, &f.ImageURL, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &f)
	}
	return res, rows.Err()
}

func (r *foodRepository) Update(ctx context.Context, food *models.Food) error {
	food.UpdatedAt = time.Now()
	const q = `
		UPDATE foods
		SET name=$1, price=$2, category=$3, in_stock=$4, image_url=$5, updated_at=$6
		WHERE id=$7
	`
	res, err := r.db.ExecContext(ctx, q, food.Name, food.Price, food.Category, food.InStock, food.ImageURL, food.UpdatedAt, food.ID)
	if err != nil {
		return fmt.Errorf("update food: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *foodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM foods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete food: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
