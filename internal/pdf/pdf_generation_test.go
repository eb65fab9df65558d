package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grubgo/internal/models"
)

func TestWriteReceipt(t *testing.T) {
	order := &models.Order{
		ID:           uuid.New(),
		Status:       models.OrderStatusPreparing,
		Subtotal:     20,
		Tax:          1.07,
		TaxAmount:    1.4,
		Total:        21.4,
		PointsEarned: 2,
		CreatedAt:    time.Now(),
	}
	var buf bytes.Buffer
	err := NewDocumentGenerator("").WriteReceipt(&buf, ReceiptData{
		Order:    order,
		Customer: "alice",
		Lines: []ReceiptLine{
			{Name: "Burger", Quantity: 2, UnitPrice: 10},
			{Name: "Soup", Quantity: 1, Missing: true},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteReceipt_RequiresOrder(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewDocumentGenerator("").WriteReceipt(&buf, ReceiptData{}))
}
