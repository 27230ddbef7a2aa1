//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/roster/internal/domain"
)

func TestSeedIfEmptyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	seed := domain.SeedCatalog()
	require.NoError(t, repo.SeedIfEmpty(ctx, seed))
	require.NoError(t, repo.SeedIfEmpty(ctx, seed))

	rosters, err := repo.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, rosters, len(seed))

	chess, err := repo.FindActivityByName(ctx, "Chess Club")
	require.NoError(t, err)
	require.NotNil(t, chess)

	count, err := repo.CountSignups(ctx, chess.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var outboxRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&outboxRows))
	require.Zero(t, outboxRows, "seeding should not emit events")
}

func TestAddSignupWritesOutboxEvent(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	require.NoError(t, repo.SeedIfEmpty(ctx, domain.SeedCatalog()))

	chess, err := repo.FindActivityByName(ctx, "Chess Club")
	require.NoError(t, err)
	require.NotNil(t, chess)

	require.NoError(t, repo.AddSignup(ctx, chess.ID, "newstudent@mergington.edu"))

	exists, err := repo.HasSignup(ctx, chess.ID, "newstudent@mergington.edu")
	require.NoError(t, err)
	require.True(t, exists)

	var eventType, partitionKey string
	row := pool.QueryRow(ctx,
		`SELECT event_type, partition_key FROM outbox WHERE aggregate_id = $1 ORDER BY event_id DESC LIMIT 1`,
		"Chess Club",
	)
	require.NoError(t, row.Scan(&eventType, &partitionKey))
	require.Equal(t, "roster.signup_recorded", eventType)
	require.Equal(t, "Chess Club", partitionKey)
}

func TestAddSignupDuplicateReturnsConflict(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	require.NoError(t, repo.SeedIfEmpty(ctx, domain.SeedCatalog()))

	chess, err := repo.FindActivityByName(ctx, "Chess Club")
	require.NoError(t, err)
	require.NotNil(t, chess)

	err = repo.AddSignup(ctx, chess.ID, "michael@mergington.edu")
	require.ErrorIs(t, err, domain.ErrSignupConflict)
}

func TestAddSignupMissingActivityReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	err := repo.AddSignup(ctx, 9999, "ghost@mergington.edu")
	require.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func TestRemoveSignupRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	require.NoError(t, repo.SeedIfEmpty(ctx, domain.SeedCatalog()))

	chess, err := repo.FindActivityByName(ctx, "Chess Club")
	require.NoError(t, err)
	require.NotNil(t, chess)

	require.NoError(t, repo.RemoveSignup(ctx, chess.ID, "michael@mergington.edu"))

	exists, err := repo.HasSignup(ctx, chess.ID, "michael@mergington.edu")
	require.NoError(t, err)
	require.False(t, exists)

	err = repo.RemoveSignup(ctx, chess.ID, "michael@mergington.edu")
	require.ErrorIs(t, err, domain.ErrNotRegistered)

	var eventType string
	row := pool.QueryRow(ctx,
		`SELECT event_type FROM outbox WHERE aggregate_id = $1 ORDER BY event_id DESC LIMIT 1`,
		"Chess Club",
	)
	require.NoError(t, row.Scan(&eventType))
	require.Equal(t, "roster.signup_removed", eventType)
}

func TestListActivitiesOrderedByName(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	require.NoError(t, repo.SeedIfEmpty(ctx, domain.SeedCatalog()))

	rosters, err := repo.ListActivities(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(rosters))
	for _, roster := range rosters {
		names = append(names, roster.Activity.Name)
		require.Len(t, roster.Participants, 2)
	}
	require.True(t, sort.StringsAreSorted(names), "activities should be ordered by name: %v", names)
}

func TestFindActivityByNameMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	activity, err := repo.FindActivityByName(ctx, "Knitting Circle")
	require.NoError(t, err)
	require.Nil(t, activity)
}

func setupRepository(t *testing.T, ctx context.Context) (*Repository, *pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("roster"),
		postgrescontainer.WithUsername("roster"),
		postgrescontainer.WithPassword("roster"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return NewRepository(pool), pool, cleanup
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	migrationsDir := resolvePath(t, "../../../db/postgres/migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "expected at least one migration .up.sql file")

	sort.Strings(files)

	for _, file := range files {
		contents, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read migration %s", file)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoErrorf(t, execErr, "execute migration %s", file)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
