package river

import (
	"context"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotificationWorker_LogLevelFollowsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := &NotificationWorker{logger: zap.New(core)}

	for _, success := range []bool{true, false} {
		job := &river.Job[NotificationJobArgs]{
			JobRow: &rivertype.JobRow{ID: 7, Attempt: 1},
			Args:   NotificationJobArgs{Event: "company_transition", EntityID: "c-1", Success: success},
		}
		if err := w.Work(context.Background(), job); err != nil {
			t.Fatalf("Work failed: %v", err)
		}
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Errorf("success logged at %s, want info", entries[0].Level)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Errorf("failure logged at %s, want warn", entries[1].Level)
	}
	if got := entries[0].ContextMap()["entity_id"]; got != "c-1" {
		t.Errorf("entity_id = %v, want c-1", got)
	}
}
