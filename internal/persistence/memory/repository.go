// Package memory provides an in-memory roster store for local development
// and unit tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"example.com/roster/internal/domain"
)

// Repository stores activities and signups in memory. It enforces the same
// uniqueness guarantees as the Postgres schema so callers observe identical
// error behaviour.
type Repository struct {
	mu         sync.RWMutex
	nextID     int64
	activities map[int64]domain.Activity
	signups    map[int64][]domain.Signup
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		nextID:     1,
		activities: make(map[int64]domain.Activity),
		signups:    make(map[int64][]domain.Signup),
	}
}

// ListActivities returns all activities ordered by name with their
// participants in enrollment order.
func (r *Repository) ListActivities(ctx context.Context) ([]domain.ActivityRoster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rosters := make([]domain.ActivityRoster, 0, len(r.activities))
	for id, activity := range r.activities {
		entries := r.signups[id]
		participants := make([]string, 0, len(entries))
		for _, signup := range entries {
			participants = append(participants, signup.Email)
		}
		rosters = append(rosters, domain.ActivityRoster{
			Activity:     activity,
			Participants: participants,
		})
	}

	sort.Slice(rosters, func(i, j int) bool {
		return rosters[i].Activity.Name < rosters[j].Activity.Name
	})
	return rosters, nil
}

// FindActivityByName resolves an activity by its unique name, nil when absent.
func (r *Repository) FindActivityByName(ctx context.Context, name string) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, activity := range r.activities {
		if activity.Name == name {
			found := activity
			return &found, nil
		}
	}
	return nil, nil
}

// CountSignups returns the number of current signups for the activity.
func (r *Repository) CountSignups(ctx context.Context, activityID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.signups[activityID]), nil
}

// HasSignup reports whether the (activity, email) pair exists.
func (r *Repository) HasSignup(ctx context.Context, activityID int64, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.hasSignupLocked(activityID, email), nil
}

func (r *Repository) hasSignupLocked(activityID int64, email string) bool {
	for _, signup := range r.signups[activityID] {
		if signup.Email == email {
			return true
		}
	}
	return false
}

// AddSignup inserts a signup. A duplicate pair fails with ErrSignupConflict,
// mirroring the Postgres unique constraint.
func (r *Repository) AddSignup(ctx context.Context, activityID int64, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activities[activityID]; !ok {
		return domain.ErrActivityNotFound
	}
	if r.hasSignupLocked(activityID, email) {
		return domain.ErrSignupConflict
	}

	signup := domain.Signup{
		ID:         r.nextID,
		ActivityID: activityID,
		Email:      email,
		CreatedAt:  time.Now().UTC(),
	}
	r.nextID++
	r.signups[activityID] = append(r.signups[activityID], signup)
	return nil
}

// RemoveSignup deletes the matching signup, ErrNotRegistered when absent.
func (r *Repository) RemoveSignup(ctx context.Context, activityID int64, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.signups[activityID]
	for i, signup := range entries {
		if signup.Email == email {
			r.signups[activityID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotRegistered
}

// SeedIfEmpty populates an empty store with the catalog. Running against a
// non-empty store is a no-op.
func (r *Repository) SeedIfEmpty(ctx context.Context, seed []domain.SeedActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.activities) > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, entry := range seed {
		activity := domain.Activity{
			ID:              r.nextID,
			Name:            entry.Name,
			Description:     entry.Description,
			Schedule:        entry.Schedule,
			MaxParticipants: entry.MaxParticipants,
			CreatedAt:       now,
		}
		r.nextID++
		r.activities[activity.ID] = activity

		for _, email := range entry.Participants {
			signup := domain.Signup{
				ID:         r.nextID,
				ActivityID: activity.ID,
				Email:      email,
				CreatedAt:  now,
			}
			r.nextID++
			r.signups[activity.ID] = append(r.signups[activity.ID], signup)
		}
	}
	return nil
}
