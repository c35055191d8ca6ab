package river_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	_ "modernc.org/sqlite"

	riveradapter "github.com/neomorfeo/partnerflow/internal/adapter/river"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func startClient(t *testing.T, logger *zap.Logger) (*riveradapter.Client, <-chan *goriver.Event) {
	t.Helper()
	ctx := context.Background()

	client, err := riveradapter.Setup(ctx, setupTestDB(t), logger)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe to job completions before starting so we don't miss events.
	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	t.Cleanup(subscribeCancel)

	if err := client.Start(ctx); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})

	return client, subscribeChan
}

func waitForJob(t *testing.T, ch <-chan *goriver.Event) *goriver.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
		return nil
	}
}

func TestPublisher_Publish_EnqueuesJob(t *testing.T) {
	client, done := startClient(t, zaptest.NewLogger(t))
	pub := riveradapter.NewPublisher(client)

	err := pub.Publish(context.Background(), domain.Notification{
		Event:      domain.EventCompanyTransition,
		EntityKind: domain.EntityCompany,
		EntityID:   "c-1",
		Actor:      "admin-1",
		Success:    true,
		At:         time.Now(),
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	event := waitForJob(t, done)
	if event.Job.Kind != "notification.published" {
		t.Errorf("job kind = %q, want %q", event.Job.Kind, "notification.published")
	}
}

func TestPublisher_Publish_PreservesNotification(t *testing.T) {
	client, done := startClient(t, zaptest.NewLogger(t))
	pub := riveradapter.NewPublisher(client)

	err := pub.Publish(context.Background(), domain.Notification{
		Event:      domain.EventOfferRedeemed,
		EntityKind: domain.EntityMembership,
		EntityID:   "client-42",
		Actor:      "client-42",
		Success:    false,
		Detail:     "client client-42 has 100 points, 150 required",
		At:         time.Now(),
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// The args are stored as JSON; verify key fields are present.
	args := string(waitForJob(t, done).Job.EncodedArgs)
	for _, want := range []string{
		`"event":"offer_redeemed"`,
		`"entity_kind":"membership"`,
		`"entity_id":"client-42"`,
		`"success":false`,
		`150 required`,
	} {
		if !strings.Contains(args, want) {
			t.Errorf("encoded args missing %s, got: %s", want, args)
		}
	}
}
