// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"sort"
	"strings"

	"github.com/dalemusser/memoria/internal/app/store/audit"
	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for audit events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Writer persists audit entries. *audit.Store satisfies it.
type Writer interface {
	Log(ctx context.Context, e models.AuditLogEntry) error
}

// Logger records audit events. Writes are best-effort: a failed write is
// logged and counted, never returned to the caller.
type Logger struct {
	store   Writer
	zapLog  *zap.Logger
	mode    string
	metrics *metrics.Metrics
}

// New creates a Logger. An unrecognised mode behaves like ModeAll.
func New(store Writer, zapLog *zap.Logger, mode string, m *metrics.Metrics) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case ModeAll, ModeDB, ModeLog, ModeOff:
	default:
		mode = ModeAll
	}
	return &Logger{store: store, zapLog: zapLog, mode: mode, metrics: m}
}

// Mode returns the effective destination mode.
func (l *Logger) Mode() string {
	if l == nil {
		return ModeOff
	}
	return l.mode
}

func (l *Logger) logToZap(e models.AuditLogEntry) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("action", e.Action),
		zap.String("target_type", e.TargetType),
		zap.String("target_id", e.TargetID),
		zap.String("user_id", e.UserID),
	}
	if e.SchoolYearID != nil {
		fields = append(fields, zap.String("school_year_id", e.SchoolYearID.Hex()))
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any("detail_"+k, e.Details[k]))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records e according to the configured mode. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, e models.AuditLogEntry) {
	if l == nil || l.mode == ModeOff {
		return
	}

	if l.mode == ModeAll || l.mode == ModeLog {
		l.logToZap(e)
	}

	if (l.mode == ModeAll || l.mode == ModeDB) && l.store != nil {
		// the primary write already happened; don't lose the record
		// because the request is finishing
		wctx, cancel := timeouts.WithTimeout(context.WithoutCancel(ctx), timeouts.Short(), l.zapLog, "audit.write")
		defer cancel()
		if err := l.store.Log(wctx, e); err != nil {
			l.metrics.AuditFailure()
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("action", e.Action),
				zap.String("target_id", e.TargetID))
		}
	}
}

func entryEvent(actorID, action string, e models.Entry, details map[string]any) models.AuditLogEntry {
	if details == nil {
		details = map[string]any{}
	}
	details["department"] = string(e.Department)
	sy := e.SchoolYearID
	return models.AuditLogEntry{
		UserID:       actorID,
		Action:       action,
		TargetType:   audit.TargetEntry,
		TargetID:     e.ID.Hex(),
		Details:      details,
		SchoolYearID: &sy,
	}
}

func withBatch(details map[string]any, batchID string) map[string]any {
	if batchID != "" {
		details["batch_id"] = batchID
	}
	return details
}

// --- Entry events ---

// EntryCreated logs a new entry. batchID is empty outside bulk runs.
func (l *Logger) EntryCreated(ctx context.Context, actorID string, e models.Entry, batchID string) {
	l.Log(ctx, entryEvent(actorID, audit.ActionCreated, e, withBatch(map[string]any{
		"full_name": e.FullName,
		"owned_by":  e.OwnedBy,
	}, batchID)))
}

// EntryUpdated logs an edit. When the edit sent the entry back for review,
// prevStatus is the status it had before.
func (l *Logger) EntryUpdated(ctx context.Context, actorID string, e models.Entry, changed []string, prevStatus models.Status, batchID string) {
	details := map[string]any{"fields_changed": changed}
	if prevStatus != "" && prevStatus != e.Status {
		details["from"] = string(prevStatus)
		details["to"] = string(e.Status)
	}
	l.Log(ctx, entryEvent(actorID, audit.ActionUpdated, e, withBatch(details, batchID)))
}

// EntryDeleted logs a hard delete.
func (l *Logger) EntryDeleted(ctx context.Context, actorID string, e models.Entry) {
	l.Log(ctx, entryEvent(actorID, audit.ActionDeleted, e, map[string]any{
		"full_name": e.FullName,
		"email":     e.Email,
		"status":    string(e.Status),
	}))
}

// StatusChanged logs a lifecycle transition.
func (l *Logger) StatusChanged(ctx context.Context, actorID string, e models.Entry, from, to models.Status, reasonIDs []string, customReason string) {
	details := map[string]any{
		"from": string(from),
		"to":   string(to),
	}
	if to == models.StatusRejected {
		details["rejection_reasons"] = reasonIDs
		details["custom_reason"] = customReason
	}
	l.Log(ctx, entryEvent(actorID, audit.ActionStatusChanged, e, details))
}

// --- School year events ---

func (l *Logger) SchoolYearCreated(ctx context.Context, actorID string, sy models.SchoolYear) {
	id := sy.ID
	l.Log(ctx, models.AuditLogEntry{
		UserID:       actorID,
		Action:       audit.ActionSchoolYearCreated,
		TargetType:   audit.TargetSchoolYear,
		TargetID:     sy.ID.Hex(),
		SchoolYearID: &id,
		Details:      map[string]any{"year_label": sy.YearLabel},
	})
}

func (l *Logger) SchoolYearActivated(ctx context.Context, actorID string, sy models.SchoolYear) {
	id := sy.ID
	l.Log(ctx, models.AuditLogEntry{
		UserID:       actorID,
		Action:       audit.ActionSchoolYearActivated,
		TargetType:   audit.TargetSchoolYear,
		TargetID:     sy.ID.Hex(),
		SchoolYearID: &id,
		Details:      map[string]any{"year_label": sy.YearLabel},
	})
}

// --- Rejection reason events ---

func (l *Logger) ReasonCreated(ctx context.Context, actorID string, rr models.RejectionReason) {
	l.Log(ctx, models.AuditLogEntry{
		UserID:       actorID,
		Action:       audit.ActionReasonCreated,
		TargetType:   audit.TargetRejectionReason,
		TargetID:     rr.ID.Hex(),
		SchoolYearID: rr.SchoolYearID,
		Details:      map[string]any{"reason": rr.Reason, "category": rr.Category},
	})
}

func (l *Logger) ReasonDeactivated(ctx context.Context, actorID string, id primitive.ObjectID) {
	l.Log(ctx, models.AuditLogEntry{
		UserID:     actorID,
		Action:     audit.ActionReasonDeactivated,
		TargetType: audit.TargetRejectionReason,
		TargetID:   id.Hex(),
	})
}
