package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const OrderStatusPreparing = "Preparing"

// IDList is a JSONB list of ids.
type IDList []uuid.UUID

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *IDList) Scan(src any) error {
	return scanJSON(src, l)
}

// Order is an immutable priced snapshot of a user's cart. Tax holds the rate
// multiplier (1.07); TaxAmount is the money it added to the subtotal.
type Order struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Status       string    `json:"status"`
	Items        Cart      `json:"items"`
	Subtotal     float64   `json:"subtotal"`
	Tax          float64   `json:"tax"`
	TaxAmount    float64   `json:"taxAmount"`
	Total        float64   `json:"total"`
	PointsEarned int       `json:"pointsEarned"`
	// SkippedItems lists cart food ids that no longer exist in the catalog.
	SkippedItems IDList    `json:"skippedItems"`
	RequestID    string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
