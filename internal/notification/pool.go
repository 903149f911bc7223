package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull  = errors.New("notification queue full")
	ErrPoolClosed = errors.New("notification pool closed")
)

// Job is one message plus a callback told how delivery went. AMQP consumers
// ack or nack from Done; in-process callers only log.
type Job struct {
	Message *Message
	Done    func(err error)
}

type DeliverFunc func(ctx context.Context, msg *Message) error

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, process func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker delivering notification", "worker_id", w.ID, "notification_id", job.Message.ID)
				process(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

// Pool hands jobs to a fixed set of workers. Each idle worker parks its job
// channel in workerPool; the dispatcher pairs queued jobs with parked workers.
type Pool struct {
	deliver DeliverFunc
	logger  *slog.Logger

	jobQueue     chan Job
	workerPool   chan chan Job
	maxWorkers   int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	dispatchDone chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewPool(cfg PoolConfig, deliver DeliverFunc, logger *slog.Logger) *Pool {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		deliver:      deliver,
		logger:       logger,
		jobQueue:     make(chan Job, jobQueueSize),
		workerPool:   make(chan chan Job, maxWorkers),
		maxWorkers:   maxWorkers,
		ctx:          ctx,
		cancel:       cancel,
		dispatchDone: make(chan struct{}),
	}

	for i := 0; i < p.maxWorkers; i++ {
		NewWorker(i, p.workerPool, logger).Start(p.ctx, &p.wg, p.process)
	}
	go p.dispatch()

	logger.Info("notification worker pool started",
		"max_workers", p.maxWorkers,
		"queue_size", cap(p.jobQueue))
	return p
}

func (p *Pool) dispatch() {
	defer close(p.dispatchDone)
	for job := range p.jobQueue {
		jobChannel := <-p.workerPool
		jobChannel <- job
	}
}

// process runs with a context detached from the pool's own, so a delivery
// that is already under way completes during Shutdown.
func (p *Pool) process(job Job) {
	err := p.deliver(context.WithoutCancel(p.ctx), job.Message)
	if err != nil {
		p.logger.Error("notification delivery failed",
			"notification_id", job.Message.ID,
			"recipient_id", job.Message.RecipientID,
			"error", err)
	}
	if job.Done != nil {
		job.Done(err)
	}
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobQueue <- job:
		return nil
	default:
		p.logger.Warn("notification queue full", "queue_capacity", cap(p.jobQueue))
		return ErrQueueFull
	}
}

// Enqueue makes the pool usable as an in-process Queue when no broker is
// configured.
func (p *Pool) Enqueue(ctx context.Context, msg *Message) error {
	return p.Submit(Job{Message: msg})
}

// Shutdown stops intake, lets queued jobs finish and then stops the workers.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.logger.Info("shutting down notification worker pool")
	<-p.dispatchDone
	p.cancel()
	p.wg.Wait()
	p.logger.Info("notification worker pool shutdown complete")
}
