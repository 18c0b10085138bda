// Package async runs intake jobs on a bounded worker pool.
package async

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/vehicle-intake/internal/intake"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has begun.
var ErrQueueClosed = errors.New("queue is shutting down")

// PhotoProcessor is the work each job runs; *intake.Processor satisfies it.
type PhotoProcessor interface {
	ProcessPhoto(ctx context.Context, job intake.Job) (intake.Outcome, error)
}

// ResultHandler receives every finished job. It is called from worker
// goroutines and must be safe for concurrent use.
type ResultHandler func(intake.Outcome, error)

type Queue interface {
	Enqueue(ctx context.Context, job intake.Job) error
	Shutdown(ctx context.Context)
}
