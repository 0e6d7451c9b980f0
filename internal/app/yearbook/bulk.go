package yearbook

import (
	"context"

	"github.com/dalemusser/memoria/internal/app/system/bulk"
	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// BulkPatch is one item of a bulk update.
type BulkPatch struct {
	ID    primitive.ObjectID `json:"id"`
	Patch models.Record      `json:"patch"`
}

// BulkResult is the outcome of one item, at its input position.
type BulkResult struct {
	Index int
	Entry *models.Entry
	Err   error
}

// BulkReport summarizes a bulk run. Results are in input order.
type BulkReport struct {
	BatchID   string
	Results   []BulkResult
	Succeeded int
	Failed    int
}

// BulkCreate creates every record independently: one invalid record does not
// stop the others. Each record names its own school year.
func (s *Service) BulkCreate(ctx context.Context, actor Actor, dept models.Department, records []models.Record) (BulkReport, error) {
	if err := s.checkDepartment(dept); err != nil {
		return BulkReport{}, err
	}
	if err := requireAdmin(actor); err != nil {
		return BulkReport{}, err
	}
	batchID := uuid.NewString()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), s.log, "entries.bulk_create")
	defer cancel()

	results := bulk.Run(ctx, len(records), s.workers, func(ctx context.Context, i int) (models.Entry, error) {
		e, err := s.createEntry(ctx, actor, dept, primitive.NilObjectID, records[i], batchID)
		s.metrics.BulkItem(string(dept), metrics.OpCreate, err)
		return e, err
	})
	return s.report(batchID, dept, "create", results), nil
}

// BulkUpdate applies every patch independently.
func (s *Service) BulkUpdate(ctx context.Context, actor Actor, dept models.Department, patches []BulkPatch) (BulkReport, error) {
	if err := s.checkDepartment(dept); err != nil {
		return BulkReport{}, err
	}
	if err := requireAdmin(actor); err != nil {
		return BulkReport{}, err
	}
	batchID := uuid.NewString()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), s.log, "entries.bulk_update")
	defer cancel()

	results := bulk.Run(ctx, len(patches), s.workers, func(ctx context.Context, i int) (models.Entry, error) {
		e, err := s.updateEntry(ctx, actor, dept, patches[i].ID, patches[i].Patch, batchID)
		s.metrics.BulkItem(string(dept), metrics.OpUpdate, err)
		return e, err
	})
	return s.report(batchID, dept, "update", results), nil
}

func (s *Service) report(batchID string, dept models.Department, op string, results []bulk.Result[models.Entry]) BulkReport {
	rep := BulkReport{BatchID: batchID, Results: make([]BulkResult, len(results))}
	for i, r := range results {
		br := BulkResult{Index: r.Index, Err: r.Err}
		if r.OK() {
			e := r.Value
			br.Entry = &e
		}
		rep.Results[i] = br
	}
	rep.Succeeded, rep.Failed = bulk.Counts(results)

	s.log.Info("bulk operation finished",
		zap.String("batch_id", batchID),
		zap.String("department", string(dept)),
		zap.String("operation", op),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed))
	return rep
}
