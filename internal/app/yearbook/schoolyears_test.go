package yearbook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/memoria/internal/app/store/audit"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func yearInput(label string) SchoolYearInput {
	return SchoolYearInput{
		YearLabel: label,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateSchoolYear_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateSchoolYear(ctx, ownerA, yearInput("2025-2026"))
	requireCode(t, err, apperr.ErrForbidden)

	for _, label := range []string{"2025-2027", "2025/2026", "25-26"} {
		_, err := h.svc.CreateSchoolYear(ctx, admin, yearInput(label))
		requireCode(t, err, apperr.ErrValidation)
		var ae *apperr.Error
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, []string{"year_label"}, ae.Fields.Invalid, label)
	}

	in := yearInput("2025-2026")
	in.EndDate = in.StartDate.Add(-24 * time.Hour)
	_, err = h.svc.CreateSchoolYear(ctx, admin, in)
	requireCode(t, err, apperr.ErrValidation)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"end_date"}, ae.Fields.Invalid)

	_, err = h.svc.CreateSchoolYear(ctx, admin, yearInput("2024-2025"))
	requireCode(t, err, apperr.ErrConflict)
}

func TestCreateSchoolYear_ActivateIsExclusive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.GetActiveSchoolYear(ctx)
	requireCode(t, err, apperr.ErrNotFound)

	_, err = h.svc.ActivateSchoolYear(ctx, admin, h.sy.ID)
	require.NoError(t, err)

	in := yearInput("2025-2026")
	in.Activate = true
	next, err := h.svc.CreateSchoolYear(ctx, admin, in)
	require.NoError(t, err)
	assert.True(t, next.IsActive)

	active, err := h.svc.GetActiveSchoolYear(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, active.ID)

	all, err := h.svc.ListSchoolYears(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	activeCount := 0
	for _, sy := range all {
		if sy.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
	assert.Equal(t, "2025-2026", all[0].YearLabel)

	assert.Len(t, h.audit.byAction(audit.ActionSchoolYearActivated), 2)

	_, err = h.svc.ActivateSchoolYear(ctx, admin, primitive.NewObjectID())
	requireCode(t, err, apperr.ErrNotFound)
}

func TestRejectionReasons(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateRejectionReason(ctx, ownerA, RejectionReasonInput{Reason: "Blurry"})
	requireCode(t, err, apperr.ErrForbidden)

	_, err = h.svc.CreateRejectionReason(ctx, admin, RejectionReasonInput{Reason: "   "})
	requireCode(t, err, apperr.ErrValidation)

	missing := primitive.NewObjectID()
	_, err = h.svc.CreateRejectionReason(ctx, admin, RejectionReasonInput{Reason: "Blurry", SchoolYearID: &missing})
	requireCode(t, err, apperr.ErrUnknownSchoolYear)

	global, err := h.svc.CreateRejectionReason(ctx, admin, RejectionReasonInput{Reason: " <b>Blurry photo</b> ", Category: " Photo "})
	require.NoError(t, err)
	assert.Equal(t, "Blurry photo", global.Reason)
	assert.Equal(t, "photo", global.Category)
	assert.True(t, global.IsActive)

	scoped, err := h.svc.CreateRejectionReason(ctx, admin, RejectionReasonInput{Reason: "Missing motto", SchoolYearID: &h.sy.ID})
	require.NoError(t, err)

	list, err := h.svc.ListRejectionReasons(ctx, &h.sy.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = h.svc.ListRejectionReasons(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, h.svc.DeactivateRejectionReason(ctx, admin, scoped.ID))
	list, err = h.svc.ListRejectionReasons(ctx, &h.sy.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, global.ID, list[0].ID)

	err = h.svc.DeactivateRejectionReason(ctx, admin, primitive.NewObjectID())
	requireCode(t, err, apperr.ErrNotFound)

	assert.Len(t, h.audit.byAction(audit.ActionReasonCreated), 2)
	assert.Len(t, h.audit.byAction(audit.ActionReasonDeactivated), 1)
}

func TestPurgeUserAuditTrail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.create(t, ownerA, "Ana Cruz", "ana@example.com")
	h.create(t, ownerB, "Ben Reyes", "ben@example.com")

	_, err := h.svc.PurgeUserAuditTrail(ctx, ownerA, "user-a")
	requireCode(t, err, apperr.ErrForbidden)

	_, err = h.svc.PurgeUserAuditTrail(ctx, admin, " ")
	requireCode(t, err, apperr.ErrValidation)

	n, err := h.svc.PurgeUserAuditTrail(ctx, admin, "user-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, h.audit.byAction(audit.ActionCreated), 1)
}
