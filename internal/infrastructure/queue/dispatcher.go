package queue

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/api/metrics"
	"github.com/magmutual/users-api/internal/core/ports"
)

const (
	defaultWorkers = 2
	jobsPerWorker  = 4
)

// ErrStopped is returned for imports submitted after the dispatcher shut down.
var ErrStopped = errors.New("import dispatcher stopped")

type importJob struct {
	ctx   context.Context
	r     io.Reader
	key   string
	reply chan importReply
}

type importReply struct {
	result *ports.ImportResult
	err    error
}

// Dispatcher runs CSV imports on a fixed set of workers so that at most
// numWorkers long transactions are open at once. It satisfies
// ports.ImportService and blocks each caller until its import finishes.
type Dispatcher struct {
	jobs    chan importJob
	stopped chan struct{}
	workers int
	service ports.ImportService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher in front of service.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ImportService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{
		jobs:    make(chan importJob, numWorkers*jobsPerWorker),
		stopped: make(chan struct{}),
		workers: numWorkers,
		service: service,
		log:     log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		go d.runWorker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		close(d.stopped)
	}()
}

// ImportCSV queues the import and waits for its result. The reader must stay
// readable until ImportCSV returns.
func (d *Dispatcher) ImportCSV(ctx context.Context, r io.Reader, idempotencyKey string) (*ports.ImportResult, error) {
	job := importJob{ctx: ctx, r: r, key: idempotencyKey, reply: make(chan importReply, 1)}

	metrics.ImportQueueDepth.Inc()
	select {
	case d.jobs <- job:
	case <-ctx.Done():
		metrics.ImportQueueDepth.Dec()
		return nil, ctx.Err()
	case <-d.stopped:
		metrics.ImportQueueDepth.Dec()
		return nil, ErrStopped
	}

	select {
	case rep := <-job.reply:
		return rep.result, rep.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.stopped:
		return nil, ErrStopped
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			metrics.ImportQueueDepth.Dec()
			job.reply <- d.process(id, job)
		}
	}
}

func (d *Dispatcher) process(id int, job importJob) importReply {
	if err := job.ctx.Err(); err != nil {
		return importReply{err: err}
	}

	start := time.Now()
	res, err := d.service.ImportCSV(job.ctx, job.r, job.key)
	metrics.ImportDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).Int("worker_id", id).Msg("csv import failed")
	case res.Replayed:
		metrics.ImportsTotal.WithLabelValues("replayed").Inc()
	default:
		metrics.ImportsTotal.WithLabelValues("committed").Inc()
		metrics.ImportedRowsTotal.Add(float64(res.Imported))
	}
	return importReply{result: res, err: err}
}
