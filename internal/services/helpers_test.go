package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"grubgo/internal/models"
	"grubgo/internal/repositories/memory"
)

type sentMail struct {
	To, Subject, Body string
}

type captureMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	welcome []string
	orders  []*models.Order
	fail    bool
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) SendWelcomeEmail(email, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome = append(m.welcome, email)
	return nil
}

func (m *captureMailer) SendOrderConfirmation(_ string, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var codeRe = regexp.MustCompile(`<b>(\d{6})</b>`)

// lastCode extracts the code from the most recent message.
func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	match := codeRe.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	require.Len(t, match, 2)
	return match[1]
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	store  *memory.Store
	mailer *captureMailer
	clock  *fakeClock
	auth   AuthService
	verify *verificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	mailer := &captureMailer{}
	clock := &fakeClock{t: time.Now()}
	auth := NewAuthService("test-secret", bcrypt.MinCost, time.Hour)
	vs := NewVerificationService(store.OTPs(), store.Users(), mailer, auth).(*verificationService)
	vs.now = clock.Now
	return &testEnv{store: store, mailer: mailer, clock: clock, auth: auth, verify: vs}
}

func (e *testEnv) createUser(t *testing.T, email, username, password string) *models.User {
	t.Helper()
	hash, err := e.auth.Hash(password)
	require.NoError(t, err)
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Phone:        "+1234567890",
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}
