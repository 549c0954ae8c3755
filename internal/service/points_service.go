package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ecoscan/internal/model"
	"ecoscan/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// PointsService is the ledger for member reward points. Balances only
// ever grow in the current scope; the compensating debit inside listing
// creation is not reachable from this interface.
type PointsService interface {
	Credit(ctx context.Context, phone string, amount int) (int, error)
	Balance(ctx context.Context, phone string) (int, error)
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

type pointsService struct {
	userRepo repository.UserRepository
}

// NewPointsService creates a new PointsService
func NewPointsService(userRepo repository.UserRepository) PointsService {
	return &pointsService{userRepo: userRepo}
}

// Credit adds amount to the balance of the given phone and returns the
// new balance. The caller must exist even when it is an authenticated
// session; checked, not assumed.
func (s *pointsService) Credit(ctx context.Context, phone string, amount int) (int, error) {
	balance, err := s.userRepo.Credit(ctx, phone, amount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to credit points: %w", err)
	}
	return balance, nil
}

// Balance returns the current point balance for the given phone
func (s *pointsService) Balance(ctx context.Context, phone string) (int, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return 0, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return user.Points, nil
}

// Leaderboard returns every member sorted by points descending. Ties
// break on name so the ordering is stable across reads.
func (s *pointsService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	users, err := s.userRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	entries := make([]model.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, model.LeaderboardEntry{
			Name:   u.Name,
			Area:   u.Area,
			Points: u.Points,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
