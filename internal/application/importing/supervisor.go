package importing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

// SupervisorState is the Worker Supervisor's own state machine, distinct
// from the persisted ImportJob.Status.
type SupervisorState string

const (
	StateIdle     SupervisorState = "IDLE"
	StateSpawning SupervisorState = "SPAWNING"
	StateRunning  SupervisorState = "RUNNING"
	StateDraining SupervisorState = "DRAINING"
)

// PathResolver resolves a requested (or default) file path to an absolute,
// existing, regular file — or returns domain.ErrInvalidFilePath.
type PathResolver interface {
	Resolve(requested string) (string, error)
}

// StartRequest is the validated input to Supervisor.Start.
type StartRequest struct {
	FilePath        string
	BatchSize       int
	ProgressEveryMs int
	TotalRows       int64
}

// Supervisor enforces exactly-one active Worker in the process, holding
// only the current worker handle and job id under a mutex; there is no
// other global mutable state.
type Supervisor struct {
	jobs     domain.JobStore
	resolver PathResolver
	worker   *Worker

	defaultBatchSize       int
	defaultProgressEveryMs int
	resumeOverlapBytes     int64

	mu     sync.Mutex
	state  SupervisorState
	jobID  string
	cancel context.CancelFunc
}

// NewSupervisor wires the operator-configured defaults (§6's
// IMPORT_BATCH_SIZE, IMPORT_PROGRESS_EVERY_MS, IMPORT_RESUME_OVERLAP) that
// apply whenever a start request or a boot-time resume leaves the
// corresponding field unset.
func NewSupervisor(jobs domain.JobStore, resolver PathResolver, worker *Worker, defaultBatchSize, defaultProgressEveryMs int, resumeOverlapBytes int64) *Supervisor {
	if defaultBatchSize == 0 {
		defaultBatchSize = DefaultBatchSize
	}
	if defaultProgressEveryMs == 0 {
		defaultProgressEveryMs = DefaultProgressEveryMs
	}
	if resumeOverlapBytes == 0 {
		resumeOverlapBytes = DefaultResumeOverlapBytes
	}

	return &Supervisor{
		jobs:                   jobs,
		resolver:               resolver,
		worker:                 worker,
		defaultBatchSize:       defaultBatchSize,
		defaultProgressEveryMs: defaultProgressEveryMs,
		resumeOverlapBytes:     resumeOverlapBytes,
		state:                  StateIdle,
	}
}

// Start implements the §4.6 pre-checks: resolve the path, look for a
// currently-running job, and either reject as a conflict, resume in place,
// or create a fresh RUNNING job and spawn.
func (s *Supervisor) Start(ctx context.Context, req StartRequest) (*domain.ImportJob, error) {
	path, err := s.resolver.Resolve(req.FilePath)
	if err != nil {
		return nil, err
	}

	running, err := s.jobs.FindLatestRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("check running job: %w", err)
	}

	s.mu.Lock()
	if running != nil && s.state == StateRunning {
		s.mu.Unlock()
		return running, domain.ErrImportConflict
	}
	s.mu.Unlock()

	params := WorkerParams{
		BatchSize:       s.withDefaultBatchSize(req.BatchSize),
		ProgressEveryMs: s.withDefaultProgressEveryMs(req.ProgressEveryMs),
		TotalRows:       req.TotalRows,
	}

	if running != nil {
		params.Resume = &domain.ResumeCursor{
			StartBytes:    running.BytesRead,
			OverlapBytes:  s.resumeOverlapBytes,
			LastRowHash:   running.LastRowHash,
			RowsProcessed: running.RowsProcessed,
			RowsInserted:  running.RowsInserted,
		}
		s.spawn(running, params)
		return running, nil
	}

	job, err := s.jobs.Create(ctx, uuid.NewString(), path)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.spawn(job, params)
	return job, nil
}

// BootResume implements §4.6 boot-time reconciliation: if a RUNNING job
// was left behind by a crash, resume it immediately with the configured
// overlap window.
func (s *Supervisor) BootResume(ctx context.Context) error {
	running, err := s.jobs.FindLatestRunning(ctx)
	if err != nil {
		return fmt.Errorf("boot resume lookup: %w", err)
	}
	if running == nil {
		return nil
	}

	params := WorkerParams{
		BatchSize:       s.defaultBatchSize,
		ProgressEveryMs: s.defaultProgressEveryMs,
		Resume: &domain.ResumeCursor{
			StartBytes:    running.BytesRead,
			OverlapBytes:  s.resumeOverlapBytes,
			LastRowHash:   running.LastRowHash,
			RowsProcessed: running.RowsProcessed,
			RowsInserted:  running.RowsInserted,
		},
	}

	s.spawn(running, params)
	return nil
}

func (s *Supervisor) withDefaultBatchSize(requested int) int {
	if requested == 0 {
		return s.defaultBatchSize
	}
	return requested
}

func (s *Supervisor) withDefaultProgressEveryMs(requested int) int {
	if requested == 0 {
		return s.defaultProgressEveryMs
	}
	return requested
}

func (s *Supervisor) spawn(job *domain.ImportJob, params WorkerParams) {
	s.mu.Lock()
	s.state = StateSpawning
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.jobID = job.ID
	s.state = StateRunning
	s.mu.Unlock()

	go func() {
		s.worker.Run(runCtx, job, params)

		s.mu.Lock()
		s.state = StateDraining
		if s.jobID == job.ID {
			s.jobID = ""
			s.cancel = nil
		}
		s.state = StateIdle
		s.mu.Unlock()
	}()
}

// Shutdown terminates any running worker; the worker's own cleanup marks
// its job FAILED with "application shutdown" once its run loop observes
// the cancellation, per §4.6.
func (s *Supervisor) Shutdown(_ context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Supervisor) State() SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
