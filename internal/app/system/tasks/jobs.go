// Package tasks defines the background jobs memoria runs on a workers.Runner.
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/app/system/workers"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StatsSource is the part of the yearbook service the gauge job reads.
type StatsSource interface {
	Statistics(ctx context.Context, syID *primitive.ObjectID) (map[models.Department]yearbook.DepartmentStats, error)
}

// EntryGaugeJob refreshes the memoria_entries gauge from per-department
// status counts across every school year. A non-positive interval disables it.
func EntryGaugeJob(src StatsSource, m *metrics.Metrics, logger *zap.Logger, interval time.Duration) workers.Job {
	return workers.Job{
		Name:       "entry-gauge-refresh",
		Interval:   interval,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			stats, err := src.Statistics(ctx, nil)
			if err != nil {
				return err
			}
			for dept, st := range stats {
				d := string(dept)
				m.SetEntryCount(d, string(models.StatusPending), st.Pending)
				m.SetEntryCount(d, string(models.StatusApproved), st.Approved)
				m.SetEntryCount(d, string(models.StatusRejected), st.Rejected)
				m.SetEntryCount(d, string(models.StatusArchived), st.Archived)
			}
			logger.Debug("entry gauges refreshed", zap.Int("departments", len(stats)))
			return nil
		},
	}
}
