// Package memory holds in-process implementations of the repository interfaces.
// They back the "memory" database driver for local runs and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"grubgo/internal/models"
	"grubgo/internal/repositories"
)

// Store shares one lock across all collections so that order creation and
// the points credit happen atomically, as the Postgres transaction does.
type Store struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	foods  map[uuid.UUID]*models.Food
	orders map[uuid.UUID]*models.Order
	otps   map[uuid.UUID]*models.OTPChallenge
}

func NewStore() *Store {
	return &Store{
		users:  map[uuid.UUID]*models.User{},
		foods:  map[uuid.UUID]*models.Food{},
		orders: map[uuid.UUID]*models.Order{},
		otps:   map[uuid.UUID]*models.OTPChallenge{},
	}
}

func (s *Store) Users() repositories.UserRepository   { return userRepo{s} }
func (s *Store) Foods() repositories.FoodRepository   { return foodRepo{s} }
func (s *Store) Orders() repositories.OrderRepository { return orderRepo{s} }
func (s *Store) OTPs() repositories.OTPRepository     { return otpRepo{s} }

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Cart = append(models.Cart(nil), u.Cart...)
	return &cp
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append(models.Cart(nil), o.Items...)
	cp.SkippedItems = append(models.IDList(nil), o.SkippedItems...)
	return &cp
}

// ---- users

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Cart == nil {
		user.Cart = models.Cart{}
	}
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r userRepo) find(match func(*models.User) bool) *models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *models.User
	for _, u := range r.s.users {
		if match(u) && (found == nil || u.CreatedAt.Before(found.CreatedAt)) {
			found = u
		}
	}
	if found == nil {
		return nil
	}
	return copyUser(found)
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username }), nil
}

func (r userRepo) GetByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == identifier || u.Username == identifier }), nil
}

func (r userRepo) List(_ context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		res = append(res, copyUser(u))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.users, id)
	for k, ch := range r.s.otps {
		if ch.UserID == id {
			delete(r.s.otps, k)
		}
	}
	for k, o := range r.s.orders {
		if o.UserID == id {
			delete(r.s.orders, k)
		}
	}
	return nil
}

func (r userRepo) update(id uuid.UUID, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r userRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(u *models.User) { u.IsEmailVerified = true })
}

func (r userRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r userRepo) UpdateCart(_ context.Context, id uuid.UUID, cart models.Cart) error {
	return r.update(id, func(u *models.User) { u.Cart = append(models.Cart{}, cart...) })
}

// ---- foods

type foodRepo struct{ s *Store }

func (r foodRepo) Create(_ context.Context, food *models.Food) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	now := time.Now()
	food.CreatedAt, food.UpdatedAt = now, now
	cp := *food
	r.s.foods[food.ID] = &cp
	return nil
}

func (r foodRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Food, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f, ok := r.s.foods[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (r foodRepo) List(_ context.Context) ([]*models.Food, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res := make([]*models.Food, 0, len(r.s.foods))
	for _, f := range r.s.foods {
		cp := *f
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Category != res[j].Category {
			return res[i].Category < res[j].Category
		}
		return strings.Compare(res[i].Name, res[j].Name) < 0
	})
	return res, nil
}

func (r foodRepo) Update(_ context.Context, food *models.Food) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.foods[food.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	food.CreatedAt = existing.CreatedAt
	food.UpdatedAt = time.Now()
	cp := *food
	r.s.foods[food.ID] = &cp
	return nil
}

func (r foodRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.foods[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.foods, id)
	return nil
}

// ---- orders

type orderRepo struct{ s *Store }

func (r orderRepo) CreateAndCredit(_ context.Context, order *models.Order) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.UserID == order.UserID && o.RequestID == order.RequestID {
			*order = *copyOrder(o)
			return false, nil
		}
	}
	u, ok := r.s.users[order.UserID]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	r.s.orders[order.ID] = copyOrder(order)
	u.Points += order.PointsEarned
	u.UpdatedAt = now
	return true, nil
}

func (r orderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.orders[id]; ok {
		return copyOrder(o), nil
	}
	return nil, nil
}

func (r orderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var res []*models.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			res = append(res, copyOrder(o))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

// ---- otp challenges

type otpRepo struct{ s *Store }

func (r otpRepo) Create(_ context.Context, ch *models.OTPChallenge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	cp := *ch
	r.s.otps[ch.ID] = &cp
	return nil
}

func (r otpRepo) GetLatest(_ context.Context, userID uuid.UUID, purpose models.OTPPurpose) (*models.OTPChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.OTPChallenge
	for _, ch := range r.s.otps {
		if ch.UserID != userID || ch.Purpose != purpose {
			continue
		}
		if latest == nil || ch.CreatedAt.After(latest.CreatedAt) ||
			(ch.CreatedAt.Equal(latest.CreatedAt) && strings.Compare(ch.ID.String(), latest.ID.String()) > 0) {
			latest = ch
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r otpRepo) CountLiveSince(_ context.Context, userID uuid.UUID, purpose models.OTPPurpose, since, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, ch := range r.s.otps {
		if ch.UserID == userID && ch.Purpose == purpose && !ch.CreatedAt.Before(since) && ch.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (r otpRepo) IncrementAttempts(_ context.Context, id uuid.UUID, limit int) (int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ch, ok := r.s.otps[id]
	if !ok || ch.Attempts >= limit {
		return 0, false, nil
	}
	ch.Attempts++
	return ch.Attempts, true, nil
}

func (r otpRepo) DeleteAll(_ context.Context, userID uuid.UUID, purpose models.OTPPurpose) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, ch := range r.s.otps {
		if ch.UserID == userID && ch.Purpose == purpose {
			delete(r.s.otps, k)
		}
	}
	return nil
}

func (r otpRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, ch := range r.s.otps {
		if !ch.ExpiresAt.After(now) {
			delete(r.s.otps, k)
			n++
		}
	}
	return n, nil
}
