package repository

import (
	"context"
	"fmt"
	"strings"

	"ecoscan/internal/model"
	"ecoscan/internal/storage"
)

// UserRepository defines operations for user records
type UserRepository interface {
	Create(ctx context.Context, user model.User) error
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByPhoneSuffix(ctx context.Context, digits string) ([]model.User, error)
	UpdatePassword(ctx context.Context, phone, passwordHash string) error
	Credit(ctx context.Context, phone string, amount int) (int, error)
	All(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	users *storage.Collection[model.User]
}

// NewUserRepository creates a new UserRepository over the users collection
func NewUserRepository(users *storage.Collection[model.User]) UserRepository {
	return &userRepository{users: users}
}

// Create inserts a new user. Fails with ErrDuplicate if a user with the
// same canonical phone already exists; the uniqueness check and the
// insert run under the same collection lock.
func (r *userRepository) Create(_ context.Context, user model.User) error {
	return r.users.Update(func(records []model.User) ([]model.User, error) {
		for _, u := range records {
			if u.Phone == user.Phone {
				return nil, fmt.Errorf("phone %s: %w", user.Phone, ErrDuplicate)
			}
		}
		return append(records, user), nil
	})
}

// FindByPhone retrieves a user by exact canonical phone. Returns
// (nil, nil) when no user matches; the service layer decides what that
// means.
func (r *userRepository) FindByPhone(_ context.Context, phone string) (*model.User, error) {
	for _, u := range r.users.Snapshot() {
		if u.Phone == phone {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// FindByPhoneSuffix retrieves every user whose canonical phone ends with
// the given digits. Used by the login fallback for numbers entered
// without a country code.
func (r *userRepository) FindByPhoneSuffix(_ context.Context, digits string) ([]model.User, error) {
	if digits == "" {
		return nil, nil
	}
	var matches []model.User
	for _, u := range r.users.Snapshot() {
		if strings.HasSuffix(u.Phone, digits) {
			matches = append(matches, u)
		}
	}
	return matches, nil
}

// UpdatePassword replaces the stored credential for the given phone
func (r *userRepository) UpdatePassword(_ context.Context, phone, passwordHash string) error {
	return r.users.Update(func(records []model.User) ([]model.User, error) {
		for i, u := range records {
			if u.Phone == phone {
				records[i].PasswordHash = passwordHash
				return records, nil
			}
		}
		return nil, fmt.Errorf("phone %s: %w", phone, ErrNotFound)
	})
}

// Credit adds amount to the user's point balance and returns the new
// balance. The read-modify-write runs under the collection lock, so
// concurrent credits never lose an update.
func (r *userRepository) Credit(_ context.Context, phone string, amount int) (int, error) {
	var balance int
	err := r.users.Update(func(records []model.User) ([]model.User, error) {
		for i, u := range records {
			if u.Phone == phone {
				if u.Points+amount < 0 {
					return nil, fmt.Errorf("balance for %s would go negative", phone)
				}
				records[i].Points = u.Points + amount
				balance = records[i].Points
				return records, nil
			}
		}
		return nil, fmt.Errorf("phone %s: %w", phone, ErrNotFound)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// All returns every user record
func (r *userRepository) All(_ context.Context) ([]model.User, error) {
	return r.users.Snapshot(), nil
}
