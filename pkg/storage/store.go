package storage

import (
	"context"
	"errors"

	"github.com/jgwall/proj-livia/internal/types"
)

// ErrNotInitialized is returned by store operations called before Init
var ErrNotInitialized = errors.New("store is not initialized")

// Store persists run records and their fitness histories
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run types.RunRecord) error
	GetRun(ctx context.Context, id string) (types.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]types.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
