package meshing

import (
	"context"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshJob asks for one chunk mesh to be built off the tick goroutine.
type MeshJob struct {
	Key        [2]int // chunk coordinate (x, z)
	Origin     mgl64.Vec2
	Size       float64
	Resolution int
	// ResultChan receives the finished mesh
	ResultChan chan MeshResult
}

// MeshResult carries a completed mesh. The mesh is freshly allocated and owned
// by the receiver; no worker touches it after sending.
type MeshResult struct {
	Key  [2]int
	Mesh *Mesh
}

// WorkerPool builds meshes on background goroutines. Installing the results
// into chunks is left to the caller's goroutine.
type WorkerPool struct {
	builder  *Builder
	jobQueue chan MeshJob
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool starts workers goroutines sharing builder.
func NewWorkerPool(builder *Builder, workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		builder:  builder,
		jobQueue: make(chan MeshJob, queueSize),
		workers:  max(workers, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	for range pool.workers {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// SubmitJob queues job without blocking.
// Returns false if the queue is full or the pool is shut down.
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitJobBlocking waits for queue space, ctx cancellation or shutdown.
func (p *WorkerPool) SubmitJobBlocking(ctx context.Context, job MeshJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			mesh := p.builder.Build(job.Origin, job.Size, job.Resolution)
			select {
			case job.ResultChan <- MeshResult{Key: job.Key, Mesh: mesh}:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for them to exit. Queued jobs that
// have not started are dropped.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// GetQueueLength returns the current number of jobs in the queue.
func (p *WorkerPool) GetQueueLength() int {
	return len(p.jobQueue)
}
