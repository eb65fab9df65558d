package services

import (
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grubgo/internal/models"
)

// OrderNotifier tells the kitchen about newly placed orders.
type OrderNotifier interface {
	NotifyOrderPlaced(order *models.Order, user *models.User) error
}

type chattableSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramNotifier struct {
	bot    chattableSender
	chatID int64
}

type nopNotifier struct{}

func (nopNotifier) NotifyOrderPlaced(*models.Order, *models.User) error { return nil }

// NewOrderNotifier connects to the Bot API. Without a token or chat id, or when the
// bot cannot be reached, notifications are silently dropped.
func NewOrderNotifier(botToken string, chatID int64) OrderNotifier {
	if botToken == "" || chatID == 0 {
		log.Printf("[tg][skip] token or chatID empty (token? %v chatID=%d)", botToken != "", chatID)
		return nopNotifier{}
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[tg][init][err] %v; order notifications disabled", err)
		return nopNotifier{}
	}
	log.Printf("[tg][init] authorized as @%s", bot.Self.UserName)
	return &telegramNotifier{bot: bot, chatID: chatID}
}

func (n *telegramNotifier) NotifyOrderPlaced(order *models.Order, user *models.User) error {
	msg := tgbotapi.NewMessage(n.chatID, formatOrderMessage(order, user))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatOrderMessage(order *models.Order, user *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>New order</b> %s\n", order.ID)
	if user != nil {
		fmt.Fprintf(&b, "Customer: %s (%s)\n", html.EscapeString(user.Username), html.EscapeString(user.Phone))
	}
	for _, it := range order.Items {
		fmt.Fprintf(&b, "• %s × %d\n", it.FoodID, it.Quantity)
	}
	if len(order.SkippedItems) > 0 {
		fmt.Fprintf(&b, "Skipped (no longer on the menu): %d\n", len(order.SkippedItems))
	}
	fmt.Fprintf(&b, "Total: $%.2f", order.Total)
	return b.String()
}
