package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jgwall/proj-livia/internal/types"
	"github.com/jgwall/proj-livia/pkg/evolve"
	"github.com/jgwall/proj-livia/pkg/storage"
)

// StoreSink keeps a run record and its fitness history current in a store,
// so an interrupted run still leaves its progress behind
type StoreSink struct {
	store  storage.Store
	record types.RunRecord
}

// NewStoreSink creates a sink updating record in store. The record's ID is
// replaced by the event's run id.
func NewStoreSink(store storage.Store, record types.RunRecord) *StoreSink {
	return &StoreSink{store: store, record: record}
}

// Emit saves the fitness history and the updated run record
func (s *StoreSink) Emit(ctx context.Context, ev evolve.Event) error {
	if err := s.store.SaveFitnessHistory(ctx, ev.RunID, ev.State.FitnessHistory); err != nil {
		return fmt.Errorf("failed to save fitness history: %w", err)
	}

	s.record.ID = ev.RunID
	s.record.Generation = ev.Generation
	s.record.FinalFitness = ev.State.MeanFitness()
	s.record.UpdatedAt = time.Now()
	if s.record.CreatedAt.IsZero() {
		s.record.CreatedAt = s.record.UpdatedAt
	}
	if err := s.store.SaveRun(ctx, s.record); err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

// Record returns the run record as last written
func (s *StoreSink) Record() types.RunRecord {
	return s.record
}
