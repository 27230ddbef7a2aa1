package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"example.com/roster/internal/domain"
	"example.com/roster/internal/persistence/memory"
)

func seededService(t *testing.T) (*domain.Service, domain.RosterRepository) {
	t.Helper()
	repo := memory.NewRepository()
	if err := domain.Initialize(context.Background(), repo, domain.SeedCatalog()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return domain.NewService(repo), repo
}

func participantCount(t *testing.T, repo domain.RosterRepository, name string) int {
	t.Helper()
	activity, err := repo.FindActivityByName(context.Background(), name)
	if err != nil {
		t.Fatalf("find activity: %v", err)
	}
	if activity == nil {
		t.Fatalf("activity %q missing", name)
	}
	count, err := repo.CountSignups(context.Background(), activity.ID)
	if err != nil {
		t.Fatalf("count signups: %v", err)
	}
	return count
}

func TestSignupUnregisterRoundTrip(t *testing.T) {
	service, repo := seededService(t)
	ctx := context.Background()

	if got := participantCount(t, repo, "Chess Club"); got != 2 {
		t.Fatalf("expected 2 seeded participants, got %d", got)
	}

	msg, err := service.Signup(ctx, "Chess Club", "x@y.edu")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if msg != "Signed up x@y.edu for Chess Club" {
		t.Fatalf("unexpected confirmation %q", msg)
	}
	if got := participantCount(t, repo, "Chess Club"); got != 3 {
		t.Fatalf("expected 3 participants after signup, got %d", got)
	}

	if _, err := service.Signup(ctx, "Chess Club", "x@y.edu"); !errors.Is(err, domain.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if got := participantCount(t, repo, "Chess Club"); got != 3 {
		t.Fatalf("duplicate signup mutated roster: %d participants", got)
	}

	msg, err = service.Unregister(ctx, "Chess Club", "x@y.edu")
	if err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	if msg != "Unregistered x@y.edu from Chess Club" {
		t.Fatalf("unexpected confirmation %q", msg)
	}
	if got := participantCount(t, repo, "Chess Club"); got != 2 {
		t.Fatalf("expected 2 participants after unregister, got %d", got)
	}

	if _, err := service.Unregister(ctx, "Chess Club", "x@y.edu"); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if got := participantCount(t, repo, "Chess Club"); got != 2 {
		t.Fatalf("failed unregister mutated roster: %d participants", got)
	}
}

func TestSignupUnknownActivity(t *testing.T) {
	service, _ := seededService(t)

	if _, err := service.Signup(context.Background(), "Knitting Circle", "x@y.edu"); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
	if _, err := service.Unregister(context.Background(), "Knitting Circle", "x@y.edu"); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
}

func TestSignupCapacityExceeded(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()

	one := int32(1)
	seed := []domain.SeedActivity{{
		Name:            "Robotics Lab",
		Description:     "Build and program robots",
		Schedule:        "Mondays, 3:30 PM - 5:00 PM",
		MaxParticipants: &one,
		Participants:    []string{"first@mergington.edu"},
	}}
	if err := domain.Initialize(ctx, repo, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	service := domain.NewService(repo)
	if _, err := service.Signup(ctx, "Robotics Lab", "late@mergington.edu"); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if got := participantCount(t, repo, "Robotics Lab"); got != 1 {
		t.Fatalf("rejected signup mutated roster: %d participants", got)
	}
}

func TestCapacityNeverExceededBySequence(t *testing.T) {
	service, repo := seededService(t)
	ctx := context.Background()

	// Math Club seeds 2 of 10; fill it past the cap and verify the cap holds.
	for i := 0; i < 20; i++ {
		_, err := service.Signup(ctx, "Math Club", fmt.Sprintf("student%02d@mergington.edu", i))
		if err != nil && !errors.Is(err, domain.ErrCapacityExceeded) {
			t.Fatalf("unexpected signup error: %v", err)
		}
	}
	if got := participantCount(t, repo, "Math Club"); got != 10 {
		t.Fatalf("expected exactly 10 participants at cap, got %d", got)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()

	if err := domain.Initialize(ctx, repo, domain.SeedCatalog()); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	if err := domain.Initialize(ctx, repo, domain.SeedCatalog()); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	rosters, err := repo.ListActivities(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rosters) != 9 {
		t.Fatalf("expected 9 activities after repeated seed, got %d", len(rosters))
	}
	for _, roster := range rosters {
		if len(roster.Participants) != 2 {
			t.Fatalf("activity %q expected 2 seeded participants, got %d", roster.Activity.Name, len(roster.Participants))
		}
	}
}

func TestListActivitiesOrderedByName(t *testing.T) {
	service, _ := seededService(t)

	rosters, err := service.ListActivities(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for i := 1; i < len(rosters); i++ {
		if rosters[i-1].Activity.Name >= rosters[i].Activity.Name {
			t.Fatalf("activities out of order: %q before %q", rosters[i-1].Activity.Name, rosters[i].Activity.Name)
		}
	}
}
