package services

import (
	"fmt"
	"html"
	"log"
	"strings"

	"gopkg.in/gomail.v2"

	"grubgo/internal/models"
)

type EmailService interface {
	// Send delivers one HTML message.
	Send(to, subject, htmlBody string) error
	SendWelcomeEmail(email, username string) error
	SendOrderConfirmation(email string, order *models.Order) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	name   string
	dryRun bool
}

// NewEmailService builds an SMTP sender. In dry-run mode messages are logged instead of sent.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, fromName string, dryRun bool) EmailService {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		name:   fromName,
		dryRun: dryRun,
	}
}

func (s *emailService) Send(to, subject, htmlBody string) error {
	if s.dryRun {
		log.Printf("[mail][dry-run] to=%s subject=%q body=%s", to, subject, strings.TrimSpace(htmlBody))
		return nil
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.name)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func (s *emailService) SendWelcomeEmail(email, username string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to GrubGo, %s!</h2>
		<p>Your email address has been verified.</p>
		<p>Happy ordering,<br>The GrubGo Team</p>
	`, html.EscapeString(username))
	return s.Send(email, "Welcome to GrubGo!", body)
}

func (s *emailService) SendOrderConfirmation(email string, order *models.Order) error {
	body := fmt.Sprintf(`
		<h2>Thanks for your order!</h2>
		<p>Order <b>%s</b> is %s.</p>
		<p>Subtotal: $%.2f<br>Tax: $%.2f<br>Total: $%.2f</p>
		<p>You earned <b>%d</b> points.</p>
	`, order.ID, html.EscapeString(order.Status), order.Subtotal, order.TaxAmount, order.Total, order.PointsEarned)
	return s.Send(email, "Your GrubGo order", body)
}
