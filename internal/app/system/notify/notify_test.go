package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/dalemusser/memoria/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildStatusMessage_Rejected(t *testing.T) {
	msg := BuildStatusMessage(StatusChanged{
		Department:   models.College,
		SchoolYear:   "2024-2025",
		FullName:     "Ana Cruz",
		OwnedBy:      "u1",
		From:         models.StatusPending,
		To:           models.StatusRejected,
		Reasons:      []string{"Blurry photo", "Missing motto"},
		CustomReason: "Please use a formal photo",
	})

	if msg.To != "u1" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Subject != "Your 2024-2025 yearbook entry was rejected" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	for _, want := range []string{"Hello Ana Cruz", "College", "Blurry photo; Missing motto", "formal photo", "reviewed again"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestBuildStatusMessage_ApprovedHasNoReasons(t *testing.T) {
	msg := BuildStatusMessage(StatusChanged{
		Department: models.Alumni,
		SchoolYear: "2024-2025",
		FullName:   "Ben",
		From:       models.StatusPending,
		To:         models.StatusApproved,
	})
	if strings.Contains(msg.Body, "Reasons") || strings.Contains(msg.Body, "reviewed again") {
		t.Errorf("approved body should not mention reasons:\n%s", msg.Body)
	}
}

func TestLog_SkipsUnownedEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLog(zap.New(core))

	_ = n.StatusChanged(context.Background(), StatusChanged{To: models.StatusApproved})
	if logs.Len() != 0 {
		t.Fatalf("expected no log for unowned entry, got %d", logs.Len())
	}

	_ = n.StatusChanged(context.Background(), StatusChanged{OwnedBy: "u1", To: models.StatusApproved, SchoolYear: "2024-2025"})
	if logs.FilterMessage("entry status notification").Len() != 1 {
		t.Errorf("expected one notification log")
	}
}
