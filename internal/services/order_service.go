package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"grubgo/internal/models"
	"grubgo/internal/repositories"
)

type OrderService interface {
	// PlaceOrder prices the user's cart and stores it as an order. Orders are keyed by
	// requestID, so a retried request returns the first order without crediting again.
	// The returned user is the snapshot read before points were credited.
	PlaceOrder(ctx context.Context, userID, requestID string) (*models.Order, *models.User, error)
	ListOrders(ctx context.Context, userID string) ([]*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
}

type orderService struct {
	users    repositories.UserRepository
	foods    repositories.FoodRepository
	orders   repositories.OrderRepository
	emails   EmailService
	notifier OrderNotifier
}

func NewOrderService(users repositories.UserRepository, foods repositories.FoodRepository, orders repositories.OrderRepository, emails EmailService, notifier OrderNotifier) OrderService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &orderService{users: users, foods: foods, orders: orders, emails: emails, notifier: notifier}
}

func (s *orderService) PlaceOrder(ctx context.Context, userID, requestID string) (*models.Order, *models.User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, nil, flowErr(ErrNotFound, "User not found!")
	}
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, flowErr(ErrNotFound, "User not found!")
	}

	quote, err := PriceCart(user.Cart, func(id uuid.UUID) (float64, bool, error) {
		f, err := s.foods.GetByID(ctx, id)
		if err != nil {
			return 0, false, err
		}
		if f == nil {
			return 0, false, nil
		}
		return f.Price, true, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("price cart: %w", err)
	}
	for _, id := range quote.Skipped {
		log.Printf("[order][place] skipping missing food_id=%s user_id=%s", id, uid)
	}

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	order := &models.Order{
		UserID:       uid,
		Status:       models.OrderStatusPreparing,
		Items:        append(models.Cart{}, user.Cart...),
		Subtotal:     quote.Subtotal,
		Tax:          TaxRate,
		TaxAmount:    quote.TaxAmount,
		Total:        quote.Total,
		PointsEarned: quote.PointsEarned,
		SkippedItems: models.IDList(quote.Skipped),
		RequestID:    requestID,
	}
	created, err := s.orders.CreateAndCredit(ctx, order)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, flowErr(ErrNotFound, "User not found!")
		}
		return nil, nil, fmt.Errorf("create order: %w", err)
	}
	if !created {
		log.Printf("[order][place] replay request_id=%s order_id=%s", requestID, order.ID)
		return order, user.Public(), nil
	}

	log.Printf("[order][place] ok order_id=%s user_id=%s total=%.2f points=%d", order.ID, uid, order.Total, order.PointsEarned)
	if err := s.notifier.NotifyOrderPlaced(order, user); err != nil {
		log.Printf("[order][place] warning: kitchen notification failed: %v", err)
	}
	if s.emails != nil {
		if err := s.emails.SendOrderConfirmation(user.Email, order); err != nil {
			log.Printf("[order][place] warning: confirmation to %s failed: %v", user.Email, err)
		}
	}
	return order, user.Public(), nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, flowErr(ErrNotFound, "User not found!")
	}
	return s.orders.ListByUser(ctx, uid)
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := uuid.Parse(strings.TrimSpace(orderID))
	if err != nil {
		return nil, flowErr(ErrNotFound, "Order not found!")
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, flowErr(ErrNotFound, "Order not found!")
	}
	return o, nil
}
