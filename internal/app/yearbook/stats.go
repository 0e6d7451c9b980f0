package yearbook

import (
	"context"
	"sync"

	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// DepartmentStats are the review counts for one department.
type DepartmentStats struct {
	Total        int64   `json:"total"`
	Pending      int64   `json:"pending"`
	Approved     int64   `json:"approved"`
	Rejected     int64   `json:"rejected"`
	Archived     int64   `json:"archived"`
	ApprovalRate float64 `json:"approval_rate"`
}

// Statistics counts entries by status for every department, optionally
// within one school year. ApprovalRate is Approved/Total, or 0 when empty.
func (s *Service) Statistics(ctx context.Context, syID *primitive.ObjectID) (map[models.Department]DepartmentStats, error) {
	defer s.metrics.Time("entries.statistics")()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "entries.statistics")
	defer cancel()

	depts := s.reg.Departments()
	out := make(map[models.Department]DepartmentStats, len(depts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, dept := range depts {
		g.Go(func() error {
			counts, err := s.entries.CountByStatus(gctx, dept, syID)
			if err != nil {
				return storeErr(err, "count "+string(dept)+" entries")
			}
			st := DepartmentStats{
				Total:    counts.Total(),
				Pending:  counts[models.StatusPending],
				Approved: counts[models.StatusApproved],
				Rejected: counts[models.StatusRejected],
				Archived: counts[models.StatusArchived],
			}
			st.ApprovalRate = approvalRate(st.Approved, st.Total)

			mu.Lock()
			out[dept] = st
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func approvalRate(approved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(approved) / float64(total)
}
