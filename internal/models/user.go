package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a user's cart.
type CartItem struct {
	FoodID   uuid.UUID `json:"foodId"`
	Quantity int       `json:"quantity"`
}

// Cart is stored as a JSONB column and keeps line order.
type Cart []CartItem

func (c Cart) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *Cart) Scan(src any) error {
	return scanJSON(src, c)
}

type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"` // never serialised
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Phone           string    `json:"phone"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	Points          int       `json:"points"`
	Cart            Cart      `json:"cart"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Public returns a copy without credentials.
func (u *User) Public() *User {
	cp := *u
	cp.PasswordHash = ""
	cp.Cart = append(Cart(nil), u.Cart...)
	return &cp
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported json column type")
	}
}
