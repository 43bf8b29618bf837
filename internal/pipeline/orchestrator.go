package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mkotula/retain/internal/chunk"
	"github.com/mkotula/retain/internal/config"
	"github.com/mkotula/retain/internal/files"
	"github.com/mkotula/retain/internal/store"
)

// Orchestrator manages the book-processing pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	st       *store.Store
	files    *files.Store
	log      *slog.Logger
	cfg      config.Config
	chunkCfg chunk.Config
	notify   Notifier

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call SetNotifier before Start to
// wire outcome messages back to the chat surface.
func NewOrchestrator(cfg config.Config, st *store.Store, fs *files.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		st:    st,
		files: fs,
		log:   log,
		cfg:   cfg,
		chunkCfg: chunk.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
			MinChunk:     64,
		},
	}
}

// SetNotifier wires completion and failure messages to the user surface.
func (o *Orchestrator) SetNotifier(n Notifier) {
	o.notify = n
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.st, o.files, o.log, o.chunkCfg, o.notify)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// ActiveJobs returns unfinished jobs for one Telegram account.
func (o *Orchestrator) ActiveJobs(telegramID string) []JobSnapshot {
	return o.jobs.ActiveFor(telegramID)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
