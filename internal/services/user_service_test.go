package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grubgo/internal/models"
)

func validSignup() SignupInput {
	return SignupInput{
		Email:     " bob@grubgo.test ",
		Username:  "bob",
		Password:  "password1",
		FirstName: "Bob",
		LastName:  "Builder",
		Phone:     "+1234567890",
	}
}

func TestSignup_CreatesPendingUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewUserService(env.store.Users(), env.verify, env.auth)

	res, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	assert.Equal(t, "bob@grubgo.test", res.Issue.Email)
	assert.Equal(t, models.PurposeEmailVerification, res.Issue.Purpose)

	u, err := env.store.Users().GetByEmail(ctx, "bob@grubgo.test")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.False(t, u.IsEmailVerified)
	assert.Equal(t, 0, u.Points)
	assert.NotEqual(t, "password1", u.PasswordHash)
	assert.Equal(t, 1, env.mailer.count())
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store.Users(), env.verify, env.auth)

	tests := []struct {
		name   string
		mutate func(*SignupInput)
		msg    string
	}{
		{"blank field", func(in *SignupInput) { in.LastName = "   " }, "Please fill in all sections."},
		{"short phone", func(in *SignupInput) { in.Phone = "12345" }, "Invalid phone number format. Please enter at least 10 digits."},
		{"bad email", func(in *SignupInput) { in.Email = "bob-at-home" }, "Not a valid email."},
		{"short password", func(in *SignupInput) { in.Password = "1234567" }, "Password must be at least 8 characters long."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validSignup()
			tc.mutate(&in)
			_, err := svc.Signup(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.EqualError(t, err, tc.msg)
		})
	}
}

func TestSignup_Uniqueness(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store.Users(), env.verify, env.auth)
	env.createUser(t, "bob@grubgo.test", "someone", "password1")
	env.createUser(t, "other@grubgo.test", "bob", "password1")

	_, err := svc.Signup(context.Background(), validSignup())
	assert.ErrorIs(t, err, ErrEmailTaken)

	in := validSignup()
	in.Email = "fresh@grubgo.test"
	_, err = svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewUserService(env.store.Users(), env.verify, env.auth)
	u := env.createUser(t, "a@grubgo.test", "alice", "password1")

	_, err := svc.Login(ctx, LoginInput{Email: u.Email, Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Password: "password1"})
	assert.ErrorIs(t, err, ErrMissingInput)

	res, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.PurposeEmailVerification, res.Issue.Purpose)

	require.NoError(t, env.store.Users().MarkEmailVerified(ctx, u.ID))
	res, err = svc.Login(ctx, LoginInput{Identifier: "a@grubgo.test", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.PurposeTwoFactorAuth, res.Issue.Purpose)
	assert.Equal(t, "Credentials valid. 2FA OTP sent to email.", res.Message)
}

func TestUpdateCartAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewUserService(env.store.Users(), env.verify, env.auth)
	u := env.createUser(t, "a@grubgo.test", "alice", "password1")
	food := uuid.New()

	updated, err := svc.UpdateCart(ctx, u.ID.String(), []CartLineInput{{FoodID: food.String(), Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, models.Cart{{FoodID: food, Quantity: 3}}, updated.Cart)

	_, err = svc.UpdateCart(ctx, u.ID.String(), []CartLineInput{{FoodID: food.String(), Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateCart(ctx, u.ID.String(), []CartLineInput{{FoodID: "nope", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)

	require.NoError(t, svc.DeleteUser(ctx, u.ID.String()))
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID.String()), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, "bad-id"), ErrNotFound)
}
