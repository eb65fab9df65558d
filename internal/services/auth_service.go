package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenPurposeAccess = "access"
	tokenPurposeReset  = "password_reset"

	resetTokenTTL = 10 * time.Minute
)

// TokenClaims is the payload of every token the service signs.
type TokenClaims struct {
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenParser is what the auth middleware needs.
type TokenParser interface {
	ParseAccessToken(token string) (uuid.UUID, error)
}

type AuthService interface {
	TokenParser
	// Hash and Compare are used for passwords and one-time codes alike.
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
	IssueAccessToken(userID uuid.UUID) (string, error)
	IssueResetToken(userID uuid.UUID) (string, error)
	ParseResetToken(token string) (uuid.UUID, error)
}

type authService struct {
	secret    []byte
	cost      int
	accessTTL time.Duration
	now       func() time.Time
}

// NewAuthService wraps bcrypt and HS256 signing. cost <= 0 means bcrypt.DefaultCost.
func NewAuthService(secret string, cost int, accessTTL time.Duration) AuthService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &authService{secret: []byte(secret), cost: cost, accessTTL: accessTTL, now: time.Now}
}

func (s *authService) Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate: %w", err)
	}
	return string(h), nil
}

func (s *authService) Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *authService) IssueAccessToken(userID uuid.UUID) (string, error) {
	return s.sign(userID, tokenPurposeAccess, s.accessTTL)
}

func (s *authService) IssueResetToken(userID uuid.UUID) (string, error) {
	return s.sign(userID, tokenPurposeReset, resetTokenTTL)
}

func (s *authService) ParseAccessToken(token string) (uuid.UUID, error) {
	return s.parse(token, tokenPurposeAccess)
}

func (s *authService) ParseResetToken(token string) (uuid.UUID, error) {
	return s.parse(token, tokenPurposeReset)
}

func (s *authService) sign(userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		UserID:  userID.String(),
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func (s *authService) parse(token, purpose string) (uuid.UUID, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != purpose {
		return uuid.Nil, fmt.Errorf("%w: wrong purpose %q", ErrInvalidToken, claims.Purpose)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}
