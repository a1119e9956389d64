package ingest

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
)

// Job is one batch queued for asynchronous processing. Done, if set, is
// invoked with the outcome after the batch finishes.
type Job struct {
	Request BatchRequest
	Done    func(*Result, error)
}

// PoolConfig is the configuration options for the ingestion pool.
type PoolConfig struct {
	// Pipeline processes each queued batch.
	Pipeline *Pipeline

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Pool processes ingestion batches asynchronously. Batches for distinct
// owners run in parallel; batches for the same owner are serialized so an
// owner's sessions and memory writes never interleave.
type Pool struct {
	pipeline *Pipeline
	queue    chan Job
	wg       sync.WaitGroup
	logger   *zap.Logger

	mu     sync.Mutex
	owners map[string]*sync.Mutex
}

// NewPool creates an ingestion pool and starts its worker goroutines.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Pipeline == nil {
		return nil, fmt.Errorf("ingestion pool requires a pipeline")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		pipeline: c.Pipeline,
		queue:    make(chan Job, c.QueueSize),
		logger:   logger,
		owners:   make(map[string]*sync.Mutex),
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a batch for processing. Returns true if enqueued, false
// if the queue is full, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("batch queued",
			zap.String("owner_id", job.Request.OwnerID),
			zap.Int("items", len(job.Request.Items)),
		)
		return true
	default:
		p.logger.Error("batch not queued, queue full, job dropped",
			zap.String("owner_id", job.Request.OwnerID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight batches to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// ownerLock returns the serialization mutex for one owner.
func (p *Pool) ownerLock(ownerID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.owners[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		p.owners[ownerID] = lock
	}
	return lock
}

// worker continuously pulls batches off the queue until it is closed.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()

	for job := range p.queue {
		lock := p.ownerLock(job.Request.OwnerID)
		lock.Lock()
		result, err := p.pipeline.ProcessBatch(context.Background(), job.Request)
		lock.Unlock()

		if err != nil {
			p.logger.Error("batch processing failed",
				zap.Uint("worker", id),
				zap.String("owner_id", job.Request.OwnerID),
				zap.Error(err),
			)
		}
		if job.Done != nil {
			job.Done(result, err)
		}
	}
}
