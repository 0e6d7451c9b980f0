package auditlog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/memoria/internal/app/store/audit"
	"github.com/dalemusser/memoria/internal/app/system/auditlog"
	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/memoria/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleEntry() models.Entry {
	return models.Entry{
		ID:           primitive.NewObjectID(),
		Department:   models.College,
		SchoolYearID: primitive.NewObjectID(),
		Status:       models.StatusRejected,
		FullName:     "Ana Cruz",
		Email:        "ana@example.com",
	}
}

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.Log(ctx, models.AuditLogEntry{Action: "test"})
	logger.EntryCreated(ctx, "u1", sampleEntry(), "")
	logger.StatusChanged(ctx, "admin", sampleEntry(), models.StatusPending, models.StatusApproved, nil, "")
	if logger.Mode() != auditlog.ModeOff {
		t.Errorf("nil Mode = %q", logger.Mode())
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), "off", nil)
	e := sampleEntry()
	logger.EntryCreated(ctx, "u1", e, "")

	n, err := store.Count(ctx, audit.QueryFilter{TargetID: e.ID.Hex()})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(store, zap.New(core), "db", nil)
	e := sampleEntry()
	logger.EntryCreated(ctx, "u1", e, "batch-1")

	events, err := store.ListByTarget(ctx, audit.TargetEntry, e.ID.Hex(), 10)
	if err != nil {
		t.Fatalf("ListByTarget failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Details["batch_id"] != "batch-1" {
		t.Errorf("batch_id = %v", events[0].Details["batch_id"])
	}
	if logs.FilterMessage("audit event").Len() != 0 {
		t.Error("db mode should not log to zap")
	}
}

func TestLogger_Log_ConfigAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(store, zap.New(core), "all", nil)
	e := sampleEntry()
	logger.StatusChanged(ctx, "admin1", e, models.StatusPending, models.StatusRejected, []string{"r1"}, "blurry")

	events, err := store.ListByTarget(ctx, audit.TargetEntry, e.ID.Hex(), 10)
	if err != nil {
		t.Fatalf("ListByTarget failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Action != audit.ActionStatusChanged || got.UserID != "admin1" {
		t.Errorf("event = %+v", got)
	}
	if got.Details["from"] != "pending" || got.Details["to"] != "rejected" || got.Details["custom_reason"] != "blurry" {
		t.Errorf("details = %+v", got.Details)
	}
	if logs.FilterMessage("audit event").Len() != 1 {
		t.Error("all mode should also log to zap")
	}
}

func TestLogger_LogModeSkipsStore(t *testing.T) {
	w := &failingWriter{}
	logger := auditlog.New(w, zap.NewNop(), "log", nil)
	logger.EntryDeleted(context.Background(), "u1", sampleEntry())
	if w.calls != 0 {
		t.Errorf("log mode wrote to the store %d times", w.calls)
	}
}

type failingWriter struct{ calls int }

func (w *failingWriter) Log(context.Context, models.AuditLogEntry) error {
	w.calls++
	return errors.New("write concern timeout")
}

func TestLogger_WriteFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := &failingWriter{}
	logger := auditlog.New(w, zap.New(core), "db", metrics.New())

	logger.EntryUpdated(context.Background(), "u1", sampleEntry(), []string{"motto"}, models.StatusApproved, "")

	if w.calls != 1 {
		t.Fatalf("expected one write attempt, got %d", w.calls)
	}
	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected failure to be logged")
	}
}

func TestNew_UnknownModeMeansAll(t *testing.T) {
	if got := auditlog.New(nil, nil, "verbose", nil).Mode(); got != auditlog.ModeAll {
		t.Errorf("Mode = %q, want all", got)
	}
	if got := auditlog.New(nil, nil, " DB ", nil).Mode(); got != auditlog.ModeDB {
		t.Errorf("Mode = %q, want db", got)
	}
}
