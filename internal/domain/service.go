// Package domain defines the business logic for the roster service.
package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrActivityNotFound is returned when an activity name cannot be resolved.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered indicates the student already holds a signup for the activity.
	ErrAlreadyRegistered = errors.New("student is already signed up")
	// ErrCapacityExceeded indicates the activity has reached max_participants.
	ErrCapacityExceeded = errors.New("activity is full")
	// ErrNotRegistered indicates no signup exists for the (activity, email) pair.
	ErrNotRegistered = errors.New("student is not signed up for this activity")
	// ErrSignupConflict surfaces a storage-level uniqueness violation, i.e. a
	// concurrent signup for the same pair lost the race to the unique constraint.
	ErrSignupConflict = errors.New("signup conflict")
)

// RosterRepository captures persistence operations over activities and signups.
type RosterRepository interface {
	ListActivities(ctx context.Context) ([]ActivityRoster, error)
	FindActivityByName(ctx context.Context, name string) (*Activity, error)
	CountSignups(ctx context.Context, activityID int64) (int, error)
	HasSignup(ctx context.Context, activityID int64, email string) (bool, error)
	AddSignup(ctx context.Context, activityID int64, email string) error
	RemoveSignup(ctx context.Context, activityID int64, email string) error
	SeedIfEmpty(ctx context.Context, seed []SeedActivity) error
}

// Service exposes the user-facing roster operations.
type Service struct {
	repo RosterRepository
}

// NewService constructs a Service.
func NewService(repo RosterRepository) *Service {
	return &Service{repo: repo}
}

// ListActivities returns every activity with its current participants.
func (s *Service) ListActivities(ctx context.Context) ([]ActivityRoster, error) {
	return s.repo.ListActivities(ctx)
}

// Signup enrolls a student in an activity. The check order is part of the
// contract: unknown activity, then duplicate signup, then capacity. The
// capacity check is best-effort under concurrency; the storage unique
// constraint on (activity, email) is the authoritative duplicate guard.
func (s *Service) Signup(ctx context.Context, activityName, email string) (string, error) {
	activity, err := s.repo.FindActivityByName(ctx, activityName)
	if err != nil {
		return "", err
	}
	if activity == nil {
		return "", ErrActivityNotFound
	}

	registered, err := s.repo.HasSignup(ctx, activity.ID, email)
	if err != nil {
		return "", err
	}
	if registered {
		return "", ErrAlreadyRegistered
	}

	if activity.MaxParticipants != nil {
		count, err := s.repo.CountSignups(ctx, activity.ID)
		if err != nil {
			return "", err
		}
		if count >= int(*activity.MaxParticipants) {
			return "", ErrCapacityExceeded
		}
	}

	if err := s.repo.AddSignup(ctx, activity.ID, email); err != nil {
		return "", err
	}

	return fmt.Sprintf("Signed up %s for %s", email, activityName), nil
}

// Unregister removes a student's signup from an activity.
func (s *Service) Unregister(ctx context.Context, activityName, email string) (string, error) {
	activity, err := s.repo.FindActivityByName(ctx, activityName)
	if err != nil {
		return "", err
	}
	if activity == nil {
		return "", ErrActivityNotFound
	}

	registered, err := s.repo.HasSignup(ctx, activity.ID, email)
	if err != nil {
		return "", err
	}
	if !registered {
		return "", ErrNotRegistered
	}

	if err := s.repo.RemoveSignup(ctx, activity.ID, email); err != nil {
		return "", err
	}

	return fmt.Sprintf("Unregistered %s from %s", email, activityName), nil
}

// Initialize seeds an empty store with the provided catalog. It runs once at
// process startup and never from a request path.
func Initialize(ctx context.Context, repo RosterRepository, seed []SeedActivity) error {
	return repo.SeedIfEmpty(ctx, seed)
}
