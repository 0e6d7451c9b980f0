// Package notify tells entry owners that an administrator reviewed their
// yearbook entry. Delivery is best-effort: the lifecycle never fails because a
// notification could not be sent.
package notify

import (
	"bytes"
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/dalemusser/memoria/internal/domain/models"
	"go.uber.org/zap"
)

// StatusChanged describes one review decision.
type StatusChanged struct {
	EntryID      string
	Department   models.Department
	SchoolYear   string
	FullName     string
	OwnedBy      string
	From         models.Status
	To           models.Status
	ReviewedBy   string
	Reasons      []string // resolved reason text, not ids
	CustomReason string
	At           time.Time
}

// Notifier delivers status-change notices.
type Notifier interface {
	StatusChanged(ctx context.Context, ev StatusChanged) error
}

// Message is a rendered notice.
type Message struct {
	To      string
	Subject string
	Body    string
}

// BuildStatusMessage renders the notice an owner receives.
func BuildStatusMessage(ev StatusChanged) Message {
	var buf bytes.Buffer
	_ = statusTmpl.Execute(&buf, ev)
	return Message{
		To:      ev.OwnedBy,
		Subject: "Your " + ev.SchoolYear + " yearbook entry was " + string(ev.To),
		Body:    buf.String(),
	}
}

var statusTmpl = template.Must(template.New("status").Funcs(template.FuncMap{
	"label": func(d models.Department) string { return d.Label() },
	"join":  func(s []string) string { return strings.Join(s, "; ") },
}).Parse(`Hello {{.FullName}},

Your {{label .Department}} yearbook entry for {{.SchoolYear}} is now {{.To}} (was {{.From}}).
{{- if .Reasons}}

Reasons: {{join .Reasons}}
{{- end}}
{{- if .CustomReason}}

Note from the reviewer: {{.CustomReason}}
{{- end}}
{{- if eq (print .To) "rejected"}}

Please update your entry and it will be reviewed again.
{{- end}}
`))

// Log writes notices to a zap logger. It is the default until a mail or push
// channel is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{log: logger}
}

// StatusChanged implements Notifier.
func (n *Log) StatusChanged(_ context.Context, ev StatusChanged) error {
	if ev.OwnedBy == "" {
		return nil
	}
	msg := BuildStatusMessage(ev)
	n.log.Info("entry status notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("entry_id", ev.EntryID),
		zap.String("department", string(ev.Department)),
		zap.String("from", string(ev.From)),
		zap.String("status", string(ev.To)))
	return nil
}

// Nop discards every notice.
type Nop struct{}

func (Nop) StatusChanged(context.Context, StatusChanged) error { return nil }
