package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/studypilot/studypilot/internal/platform/database"
	"github.com/studypilot/studypilot/internal/state"
)

func startPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("study"),
		tcpostgres.WithUsername("study"),
		tcpostgres.WithPassword("study"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	db := startPostgres(t)

	store, err := state.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Load(ctx, "alice")
	if !errors.Is(err, state.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	snap := fixtureSnapshot(t)
	if err := store.Save(ctx, "alice", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Topics) != 2 || loaded.Plan == nil {
		t.Errorf("unexpected snapshot: %d topics, plan=%v", len(loaded.Topics), loaded.Plan != nil)
	}

	// Upsert replaces the row.
	snap.Statuses["derivatives"] = "mastered"
	if err := store.Save(ctx, "alice", snap); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	loaded, err = store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if loaded.Statuses["derivatives"] != "mastered" {
		t.Error("upsert did not replace snapshot")
	}
}

func TestNewPostgresStoreNilPool(t *testing.T) {
	if _, err := state.NewPostgresStore(nil); err == nil {
		t.Error("expected error for nil pool")
	}
}
