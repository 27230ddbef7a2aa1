// Package postgres provides the Postgres-backed roster store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/roster/internal/domain"
	"example.com/roster/internal/events"
	"example.com/roster/internal/observability"
)

const uniqueViolationCode = "23505"

// Repository provides Postgres-backed persistence for activities, signups,
// and outbox events. Every operation runs in its own transaction scope,
// released on all exit paths.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActivities returns all activities ordered by name, each with its
// participants in enrollment order.
func (r *Repository) ListActivities(ctx context.Context) ([]domain.ActivityRoster, error) {
	const query = `SELECT a.activity_id, a.name, a.description, a.schedule, a.max_participants, a.created_at, s.email
        FROM activities a
        LEFT JOIN signups s ON s.activity_id = a.activity_id
        ORDER BY a.name, s.created_at, s.email`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rosters := make([]domain.ActivityRoster, 0)
	for rows.Next() {
		var activity domain.Activity
		var email *string
		if err := rows.Scan(&activity.ID, &activity.Name, &activity.Description, &activity.Schedule, &activity.MaxParticipants, &activity.CreatedAt, &email); err != nil {
			return nil, err
		}

		if len(rosters) == 0 || rosters[len(rosters)-1].Activity.ID != activity.ID {
			rosters = append(rosters, domain.ActivityRoster{
				Activity:     activity,
				Participants: make([]string, 0),
			})
		}
		if email != nil {
			last := &rosters[len(rosters)-1]
			last.Participants = append(last.Participants, *email)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rosters, nil
}

// FindActivityByName resolves an activity by its unique name, nil when absent.
func (r *Repository) FindActivityByName(ctx context.Context, name string) (*domain.Activity, error) {
	const query = `SELECT activity_id, name, description, schedule, max_participants, created_at
        FROM activities WHERE name=$1`

	row := r.pool.QueryRow(ctx, query, name)
	var activity domain.Activity
	if err := row.Scan(&activity.ID, &activity.Name, &activity.Description, &activity.Schedule, &activity.MaxParticipants, &activity.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// CountSignups returns the number of current signups for the activity.
func (r *Repository) CountSignups(ctx context.Context, activityID int64) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM signups WHERE activity_id=$1`, activityID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// HasSignup reports whether the (activity, email) pair exists.
func (r *Repository) HasSignup(ctx context.Context, activityID int64, email string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM signups WHERE activity_id=$1 AND email=$2)`, activityID, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// AddSignup inserts the signup row and its outbox event inside a single
// transaction. The unique constraint on (activity_id, email) is the
// authoritative duplicate guard; a violation maps to ErrSignupConflict.
func (r *Repository) AddSignup(ctx context.Context, activityID int64, email string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var activityName string
	if err = tx.QueryRow(ctx, `SELECT name FROM activities WHERE activity_id=$1`, activityID).Scan(&activityName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrActivityNotFound
		}
		return err
	}

	now := time.Now().UTC()
	var signupID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO signups (activity_id, email, created_at) VALUES ($1,$2,$3) RETURNING signup_id`,
		activityID, email, now,
	).Scan(&signupID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			err = fmt.Errorf("%w: %s already enrolled in %s", domain.ErrSignupConflict, email, activityName)
		}
		return err
	}

	if err = insertOutbox(ctx, tx, "roster.signup_recorded", activityName, events.SignupRecorded{
		SignupID:   fmt.Sprintf("%d", signupID),
		ActivityID: activityID,
		Activity:   activityName,
		Email:      email,
		OccurredAt: now,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordSignupPersisted(now)
	return nil
}

// RemoveSignup deletes the matching signup and records its outbox event in a
// single transaction. ErrNotRegistered when no row matched.
func (r *Repository) RemoveSignup(ctx context.Context, activityID int64, email string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var activityName string
	if err = tx.QueryRow(ctx, `SELECT name FROM activities WHERE activity_id=$1`, activityID).Scan(&activityName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrActivityNotFound
		}
		return err
	}

	tag, execErr := tx.Exec(ctx, `DELETE FROM signups WHERE activity_id=$1 AND email=$2`, activityID, email)
	if execErr != nil {
		err = execErr
		return err
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrNotRegistered
		return err
	}

	now := time.Now().UTC()
	if err = insertOutbox(ctx, tx, "roster.signup_removed", activityName, events.SignupRemoved{
		ActivityID: activityID,
		Activity:   activityName,
		Email:      email,
		OccurredAt: now,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordSignupRemoved(now)
	return nil
}

// SeedIfEmpty populates an empty store with the catalog atomically. It is a
// no-op against a non-empty store, so repeated startups are safe.
func (r *Repository) SeedIfEmpty(ctx context.Context, seed []domain.SeedActivity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var count int
	if err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		err = tx.Commit(ctx)
		return err
	}

	now := time.Now().UTC()
	for _, entry := range seed {
		var activityID int64
		err = tx.QueryRow(ctx,
			`INSERT INTO activities (name, description, schedule, max_participants, created_at)
	             VALUES ($1,$2,$3,$4,$5) RETURNING activity_id`,
			entry.Name, entry.Description, entry.Schedule, entry.MaxParticipants, now,
		).Scan(&activityID)
		if err != nil {
			return err
		}

		for _, email := range entry.Participants {
			if _, err = tx.Exec(ctx,
				`INSERT INTO signups (activity_id, email, created_at) VALUES ($1,$2,$3)`,
				activityID, email, now,
			); err != nil {
				return err
			}
		}
	}

	err = tx.Commit(ctx)
	return err
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, activityName string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"roster",
		activityName,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		activityName,
		body,
		uuid.NewString(),
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"roster.signup_recorded": {
		Topic:         "roster_events",
		SchemaSubject: "roster_events-signup_recorded-value",
	},
	"roster.signup_removed": {
		Topic:         "roster_events",
		SchemaSubject: "roster_events-signup_removed-value",
	},
}
