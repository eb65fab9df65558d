package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"grubgo/internal/models"
	"grubgo/internal/repositories"
)

var phonePattern = regexp.MustCompile(`^\+?\d{10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

type SignupInput struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required,phone"`
}

func (in *SignupInput) trim() {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
}

// LoginInput accepts an email, a username or an identifier matching either.
type LoginInput struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type CartLineInput struct {
	FoodID   string `json:"foodId" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type cartInput struct {
	Lines []CartLineInput `validate:"dive"`
}

// PendingResult is returned when the caller must confirm a code before continuing.
type PendingResult struct {
	Message string
	Issue   *IssueResult
}

type UserService interface {
	Signup(ctx context.Context, in SignupInput) (*PendingResult, error)
	Login(ctx context.Context, in LoginInput) (*PendingResult, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	// UpdateCart replaces the whole cart of the user.
	UpdateCart(ctx context.Context, id string, lines []CartLineInput) (*models.User, error)
}

type userService struct {
	repo         repositories.UserRepository
	verification VerificationService
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, verification VerificationService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		verification: verification,
		authService:  authService,
	}
}

func (s *userService) Signup(ctx context.Context, in SignupInput) (*PendingResult, error) {
	in.trim()
	if err := validate.Struct(in); err != nil {
		return nil, flowErr(ErrInvalidInput, signupMessage(err))
	}

	if u, err := s.repo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if u != nil {
		return nil, flowErr(ErrEmailTaken, "Email already used.")
	}
	if u, err := s.repo.GetByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if u != nil {
		return nil, flowErr(ErrUsernameTaken, "Username already used.")
	}

	hash, err := s.authService.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Cart:         models.Cart{},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[user][signup] created user_id=%s username=%s", user.ID, user.Username)

	issued, err := s.verification.Issue(ctx, user.ID, user.Email, models.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	return &PendingResult{Message: "User created successfully! OTP email sent for verification.", Issue: issued}, nil
}

// signupMessage reports the first failing rule, checking presence before format.
func signupMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Please fill in all sections."
	}
	failed := map[string]bool{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "Please fill in all sections."
		}
		failed[fe.Field()] = true
	}
	switch {
	case failed["Phone"]:
		return "Invalid phone number format. Please enter at least 10 digits."
	case failed["Email"]:
		return "Not a valid email."
	case failed["Password"]:
		return "Password must be at least 8 characters long."
	}
	return "Please fill in all sections."
}

func (s *userService) Login(ctx context.Context, in LoginInput) (*PendingResult, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case in.Password == "":
		return nil, flowErr(ErrMissingInput, "Please fill in all sections.")
	case in.Email != "":
		user, err = s.repo.GetByEmail(ctx, in.Email)
	case in.Username != "":
		user, err = s.repo.GetByUsername(ctx, in.Username)
	case in.Identifier != "":
		user, err = s.repo.GetByIdentifier(ctx, in.Identifier)
	default:
		return nil, flowErr(ErrMissingInput, "Please fill in all sections.")
	}
	if err != nil {
		return nil, err
	}
	if user == nil || !s.authService.Compare(user.PasswordHash, in.Password) {
		return nil, flowErr(ErrInvalidCredentials, "Email / Password incorrect.")
	}

	if !user.IsEmailVerified {
		issued, err := s.verification.Issue(ctx, user.ID, user.Email, models.PurposeEmailVerification)
		if err != nil {
			return nil, err
		}
		return &PendingResult{
			Message: "Email not verified. A new verification code has been sent to your email.",
			Issue:   issued,
		}, nil
	}

	issued, err := s.verification.Issue(ctx, user.ID, user.Email, models.PurposeTwoFactorAuth)
	if err != nil {
		return nil, err
	}
	return &PendingResult{Message: "Credentials valid. 2FA OTP sent to email.", Issue: issued}, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, flowErr(ErrNotFound, "Invalid user ID!")
	}
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, flowErr(ErrNotFound, "User not found!")
	}
	return u.Public(), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return flowErr(ErrNotFound, "Invalid user ID!")
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return flowErr(ErrNotFound, "User not found!")
		}
		return err
	}
	log.Printf("[user][delete] user_id=%s", uid)
	return nil
}

func (s *userService) UpdateCart(ctx context.Context, id string, lines []CartLineInput) (*models.User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, flowErr(ErrNotFound, "Invalid user ID!")
	}
	if err := validate.Struct(cartInput{Lines: lines}); err != nil {
		return nil, flowErr(ErrInvalidInput, "Each cart item needs a valid foodId and a quantity of at least 1.")
	}
	cart := make(models.Cart, 0, len(lines))
	for _, l := range lines {
		cart = append(cart, models.CartItem{FoodID: uuid.MustParse(l.FoodID), Quantity: l.Quantity})
	}
	if err := s.repo.UpdateCart(ctx, uid, cart); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, flowErr(ErrNotFound, "User not found!")
		}
		return nil, err
	}
	return s.GetUser(ctx, uid.String())
}
