package services

import (
	"math"

	"github.com/google/uuid"

	"grubgo/internal/models"
)

const (
	TaxRate    = 1.07
	PointsRate = 0.1
)

// PriceLookup returns the unit price of a food and whether it exists.
type PriceLookup func(foodID uuid.UUID) (price float64, ok bool, err error)

// Quote is the priced form of a cart.
type Quote struct {
	Subtotal     float64
	Total        float64
	TaxAmount    float64
	PointsEarned int
	Skipped      []uuid.UUID
}

// PriceCart prices lines in order. Lines whose food no longer exists are skipped and reported.
func PriceCart(lines models.Cart, lookup PriceLookup) (*Quote, error) {
	q := &Quote{}
	var subtotal float64
	for _, line := range lines {
		price, ok, err := lookup(line.FoodID)
		if err != nil {
			return nil, err
		}
		if !ok {
			q.Skipped = append(q.Skipped, line.FoodID)
			continue
		}
		subtotal += price * float64(line.Quantity)
	}
	q.Total = round2(subtotal * TaxRate)
	q.Subtotal = round2(subtotal)
	q.TaxAmount = round2(q.Total - q.Subtotal)
	q.PointsEarned = int(math.Round(q.Total * PointsRate))
	return q, nil
}

// round2 rounds half-up to cents.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
