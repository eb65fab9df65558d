package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"grubgo/internal/handlers"
	"grubgo/internal/models"
	"grubgo/internal/pdf"
	"grubgo/internal/repositories/memory"
	"grubgo/internal/routes"
	"grubgo/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

type inbox struct {
	mu     sync.Mutex
	bodies []string
}

func (m *inbox) Send(_, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return nil
}
func (m *inbox) SendWelcomeEmail(string, string) error             { return nil }
func (m *inbox) SendOrderConfirmation(string, *models.Order) error { return nil }

var codeRe = regexp.MustCompile(`<b>(\d{6})</b>`)

func (m *inbox) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.bodies)
	match := codeRe.FindStringSubmatch(m.bodies[len(m.bodies)-1])
	require.Len(t, match, 2)
	return match[1]
}

type server struct {
	router *gin.Engine
	mail   *inbox
	store  *memory.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := memory.NewStore()
	mail := &inbox{}
	auth := services.NewAuthService("handler-secret", bcrypt.MinCost, time.Hour)

	verification := services.NewVerificationService(store.OTPs(), store.Users(), mail, auth)
	reset := services.NewPasswordResetService(store.Users(), verification, auth)
	users := services.NewUserService(store.Users(), verification, auth)
	foods := services.NewFoodService(store.Foods())
	orders := services.NewOrderService(store.Users(), store.Foods(), store.Orders(), mail, nil)

	r := gin.New()
	routes.SetupRoutes(r, auth, nil,
		handlers.NewAuthHandler(verification, reset),
		handlers.NewUserHandler(users),
		handlers.NewFoodHandler(foods),
		handlers.NewOrderHandler(orders, foods, users, pdf.NewDocumentGenerator("")),
	)
	return &server{router: r, mail: mail, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
}

func (s *server) call(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "application/pdf" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestSignupVerifyLoginOrder(t *testing.T) {
	s := newServer(t)

	// signup
	w, env := s.call(t, http.MethodPost, "/api/users/signup", "", gin.H{
		"email": "carol@grubgo.test", "username": "carol", "password": "password1",
		"firstName": "Carol", "lastName": "C", "phone": "1234567890",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PENDING", env.Status)
	var issued struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	userID := issued.UserID

	// wrong then right email code
	w, env = s.call(t, http.MethodPost, "/api/auth/verify-email-otp", "", gin.H{"userId": userID, "otp": "abcdef"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	w, env = s.call(t, http.MethodPost, "/api/auth/verify-email-otp", "", gin.H{"userId": userID, "otp": s.mail.lastCode(t)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Email OTP verified successfully!", env.Message)

	// login sends a 2FA code
	w, env = s.call(t, http.MethodPost, "/api/users/login", "", gin.H{"identifier": "carol", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Credentials valid. 2FA OTP sent to email.", env.Message)

	w, env = s.call(t, http.MethodPost, "/api/auth/verify-2fa-otp", "", gin.H{"userId": userID, "otp": s.mail.lastCode(t)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(t, env.Token)
	assert.NotContains(t, string(env.Data), "password")
	token := env.Token

	// menu + cart
	w, env = s.call(t, http.MethodPost, "/api/foods", token, gin.H{
		"name": "Burger", "price": 10, "category": "Mains", "inStock": true, "imageUrl": "/burger.png",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var food models.Food
	require.NoError(t, json.Unmarshal(env.Data, &food))

	w, _ = s.call(t, http.MethodPut, "/api/users/cart/"+userID, token, gin.H{
		"cart": []gin.H{{"foodId": food.ID.String(), "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// order twice with the same key
	w, env = s.call(t, http.MethodPost, "/api/orders/"+userID, token, nil, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.InDelta(t, 21.40, order.Total, 1e-9)
	assert.Equal(t, 2, order.PointsEarned)

	w, _ = s.call(t, http.MethodPost, "/api/orders/"+userID, token, nil, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.call(t, http.MethodGet, "/api/orders/"+userID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	assert.Len(t, orders, 1)

	w, _ = s.call(t, http.MethodGet, "/api/orders/receipt/"+order.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestPasswordResetEndpoints(t *testing.T) {
	s := newServer(t)
	w, env := s.call(t, http.MethodPost, "/api/users/signup", "", gin.H{
		"email": "dan@grubgo.test", "username": "dan", "password": "password1",
		"firstName": "Dan", "lastName": "D", "phone": "+1234567890",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var issued struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))

	w, unknown := s.call(t, http.MethodPost, "/api/auth/request-password-reset-otp", "", gin.H{"email": "ghost@grubgo.test"})
	require.Equal(t, http.StatusOK, w.Code)
	w, known := s.call(t, http.MethodPost, "/api/auth/request-password-reset-otp", "", gin.H{"email": "dan@grubgo.test"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, unknown.Message, known.Message)

	w, env = s.call(t, http.MethodPost, "/api/auth/verify-password-reset-otp", "", gin.H{"userId": issued.UserID, "otp": s.mail.lastCode(t)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var grant struct {
		Token string `json:"password_reset_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &grant))
	require.NotEmpty(t, grant.Token)

	w, env = s.call(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{"password_reset_token": grant.Token, "newPassword": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password must be at least 8 characters long!", env.Message)

	w, env = s.call(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{"password_reset_token": grant.Token, "newPassword": "brandnew1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Password reset successfully!", env.Message)
}

func TestResendOTP_RateLimited(t *testing.T) {
	s := newServer(t)
	w, env := s.call(t, http.MethodPost, "/api/users/signup", "", gin.H{
		"email": "erin@grubgo.test", "username": "erin", "password": "password1",
		"firstName": "Erin", "lastName": "E", "phone": "1234567890",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var issued struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))

	// signup used one of the three codes allowed per window
	for i := 0; i < 2; i++ {
		w, env = s.call(t, http.MethodPost, "/api/auth/resend-otp", "", gin.H{"userId": issued.UserID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "PENDING", env.Status)
	}
	w, _ = s.call(t, http.MethodPost, "/api/auth/resend-otp", "", gin.H{"userId": issued.UserID})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = s.call(t, http.MethodPost, "/api/auth/resend-otp", "", gin.H{"userId": issued.UserID, "purpose": "BOGUS"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes(t *testing.T) {
	s := newServer(t)

	w, _ := s.call(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.call(t, http.MethodGet, "/api/foods", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.call(t, http.MethodGet, "/api/foods/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.call(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
