package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"grubgo/internal/middleware"
	"grubgo/internal/pdf"
	"grubgo/internal/services"
)

type OrderHandler struct {
	orders services.OrderService
	foods  services.FoodService
	users  services.UserService
	pdf    pdf.Generator
}

func NewOrderHandler(orders services.OrderService, foods services.FoodService, users services.UserService, gen pdf.Generator) *OrderHandler {
	return &OrderHandler{orders: orders, foods: foods, users: users, pdf: gen}
}

// @Summary      Place order
// @Description  Prices the user's cart (7% tax, points = 10% of total) and stores the order. Requests with the same Idempotency-Key return the first order.
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string  true   "user id"
// @Param        Idempotency-Key  header    string  false  "client request id"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/orders/{id} [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	order, _, err := h.orders.PlaceOrder(c.Request.Context(), c.Param("id"), c.GetHeader("Idempotency-Key"))
	if err != nil {
		writeError(c, "order.place", err, crudStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{Message: "Order has been saved!", Data: order})
}

// @Summary      List orders
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "user id"
// @Success      200  {object}  Envelope
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "order.list", err, crudStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{Data: orders})
}

// @Summary      Order receipt
// @Description  Renders the order as a PDF. Only the owner may download it.
// @Tags         Orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        orderId  path  string  true  "order id"
// @Success      200
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/orders/receipt/{orderId} [get]
func (h *OrderHandler) Receipt(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := h.orders.GetOrder(ctx, c.Param("orderId"))
	if err != nil {
		writeError(c, "order.receipt", err, crudStatuses...)
		return
	}
	if caller, _ := middleware.UserID(c); caller != order.UserID.String() {
		fail(c, http.StatusForbidden, "You can only access your own orders.")
		return
	}

	data := pdf.ReceiptData{Order: order}
	if u, err := h.users.GetUser(ctx, order.UserID.String()); err == nil {
		data.Customer = u.Username
	}
	for _, it := range order.Items {
		line := pdf.ReceiptLine{Quantity: it.Quantity}
		if f, err := h.foods.GetFood(ctx, it.FoodID.String()); err == nil {
			line.Name, line.UnitPrice = f.Name, f.Price
		} else {
			line.Name, line.Missing = it.FoodID.String(), true
		}
		data.Lines = append(data.Lines, line)
	}

	var buf bytes.Buffer
	if err := h.pdf.WriteReceipt(&buf, data); err != nil {
		writeError(c, "order.receipt", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, order.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
