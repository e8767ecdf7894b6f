package importing

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

const (
	MinBatchSize     = 100
	MaxBatchSize     = 10000
	DefaultBatchSize = 1000

	MinProgressEveryMs     = 200
	MaxProgressEveryMs     = 30000
	DefaultProgressEveryMs = 1000

	MinTotalRows     = 1
	MaxTotalRows     = 50_000_000
	DefaultTotalRows = 2_000_000

	DefaultResumeOverlapBytes = 1 << 20 // 1 MiB
)

// WorkerParams are the bounded, validated knobs for one run of the Import
// Worker (C4).
type WorkerParams struct {
	BatchSize       int
	ProgressEveryMs int
	TotalRows       int64
	Resume          *domain.ResumeCursor
}

func (p *WorkerParams) applyDefaults() error {
	if p.BatchSize == 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.BatchSize < MinBatchSize || p.BatchSize > MaxBatchSize {
		return domain.ErrInvalidBatchSize
	}

	if p.ProgressEveryMs == 0 {
		p.ProgressEveryMs = DefaultProgressEveryMs
	}
	if p.ProgressEveryMs < MinProgressEveryMs || p.ProgressEveryMs > MaxProgressEveryMs {
		return domain.ErrInvalidProgressMs
	}

	if p.TotalRows == 0 {
		p.TotalRows = DefaultTotalRows
	}
	if p.TotalRows < MinTotalRows || p.TotalRows > MaxTotalRows {
		return domain.ErrInvalidTotalRows
	}

	return nil
}

// Worker owns the end-to-end execution of one import job: read, map,
// batch, commit, persist progress, repeat until end-of-stream or error.
type Worker struct {
	jobs   domain.JobStore
	source domain.RecordSource
	writer domain.BatchWriter
	mapper *Mapper
	broker *Broker
}

func NewWorker(jobs domain.JobStore, source domain.RecordSource, writer domain.BatchWriter, broker *Broker) *Worker {
	return &Worker{
		jobs:   jobs,
		source: source,
		writer: writer,
		mapper: NewMapper(),
		broker: broker,
	}
}

// Run executes job to completion or failure. It never panics across job
// boundaries: any internal error is converted into a durable FAILED
// transition plus a live error event before Run returns.
func (w *Worker) Run(ctx context.Context, job *domain.ImportJob, params WorkerParams) {
	if err := params.applyDefaults(); err != nil {
		w.fail(ctx, job.ID, err.Error())
		return
	}

	if err := w.run(ctx, job, params); err != nil {
		// Terminal bookkeeping must outlive a cancelled run context, or a
		// shutdown-triggered cancellation would race its own FAILED write.
		cleanupCtx := context.Background()
		if errors.Is(err, context.Canceled) {
			w.fail(cleanupCtx, job.ID, "application shutdown")
			return
		}
		w.fail(cleanupCtx, job.ID, err.Error())
		return
	}

	w.complete(context.Background(), job.ID)
}

func (w *Worker) run(ctx context.Context, job *domain.ImportJob, params WorkerParams) error {
	streamStart, seenMarker, baseline := resumeState(params.Resume)

	var header []string
	if streamStart > 0 {
		resolved, err := w.readHeader(ctx, job.FilePath)
		if err != nil {
			return err
		}
		header = resolved
	}

	stream, err := w.source.Open(ctx, job.FilePath, streamStart, header)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer stream.Close()

	rowsProcessed := baseline.RowsProcessed
	rowsInserted := baseline.RowsInserted
	lastRowHash := baseline.LastRowHash

	pending := make([]domain.BatchItem, 0, params.BatchSize)
	lastProgressAt := time.Time{}
	startedAt := job.StartedAt

	flush := func(force bool) error {
		if len(pending) == 0 {
			return w.maybePersistProgress(ctx, job.ID, force, stream.Offset(), rowsProcessed, rowsInserted, lastRowHash, startedAt, baseline.RowsProcessed, &lastProgressAt, params.ProgressEveryMs)
		}

		result, err := w.writer.Flush(ctx, pending)
		if err != nil {
			return fmt.Errorf("flush batch: %w", err)
		}
		rowsInserted += result.Affected
		if result.LastHash != "" {
			lastRowHash = result.LastHash
		}
		pending = pending[:0]

		return w.maybePersistProgress(ctx, job.ID, force, stream.Offset(), rowsProcessed, rowsInserted, lastRowHash, startedAt, baseline.RowsProcessed, &lastProgressAt, params.ProgressEveryMs)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, ok, err := stream.Next(ctx)
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		if !ok {
			break
		}

		customer := w.mapper.Map(record)
		if customer == nil {
			continue
		}

		sourceHash := w.mapper.Hash(*customer)

		if !seenMarker {
			if sourceHash == lastRowHash {
				seenMarker = true
			}
			continue
		}

		rowsProcessed++
		pending = append(pending, domain.BatchItem{Customer: *customer, SourceHash: sourceHash})

		if len(pending) >= params.BatchSize {
			if err := flush(false); err != nil {
				return err
			}
		}
	}

	if err := flush(true); err != nil {
		return err
	}

	return nil
}

// readHeader re-opens the file at offset zero solely to recover the header
// row, since column names are assumed stable for the lifetime of a job but
// are not themselves persisted in the checkpoint.
func (w *Worker) readHeader(ctx context.Context, path string) ([]string, error) {
	probe, err := w.source.Open(ctx, path, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	defer probe.Close()
	return probe.Header(), nil
}

func resumeState(resume *domain.ResumeCursor) (streamStart int64, seenMarker bool, baseline domain.CheckpointUpdate) {
	if resume == nil {
		return 0, true, domain.CheckpointUpdate{}
	}

	start := resume.StartBytes - resume.OverlapBytes
	if start < 0 {
		start = 0
	}

	return start, resume.LastRowHash == "", domain.CheckpointUpdate{
		RowsProcessed: resume.RowsProcessed,
		RowsInserted:  resume.RowsInserted,
		LastRowHash:   resume.LastRowHash,
	}
}

// maybePersistProgress is rate-limited by progressEveryMs unless force is
// set (only the end-of-stream checkpoint is forced).
func (w *Worker) maybePersistProgress(
	ctx context.Context,
	jobID string,
	force bool,
	bytesRead int64,
	rowsProcessed int64,
	rowsInserted int64,
	lastRowHash string,
	startedAt time.Time,
	baselineRowsProcessed int64,
	lastProgressAt *time.Time,
	progressEveryMs int,
) error {
	now := time.Now().UTC()
	if !force && !lastProgressAt.IsZero() && now.Sub(*lastProgressAt) < time.Duration(progressEveryMs)*time.Millisecond {
		return nil
	}
	*lastProgressAt = now

	checkpoint := domain.CheckpointUpdate{
		BytesRead:     bytesRead,
		RowsProcessed: rowsProcessed,
		RowsInserted:  rowsInserted,
		LastRowHash:   lastRowHash,
	}
	if err := w.jobs.UpdateProgress(ctx, jobID, checkpoint); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}

	elapsed := now.Sub(startedAt).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}
	rate := float64(rowsProcessed-baselineRowsProcessed) / elapsed

	if w.broker != nil {
		w.broker.Publish(Event{
			Type:          EventProgress,
			JobID:         jobID,
			RowsProcessed: rowsProcessed,
			RowsInserted:  rowsInserted,
			BytesRead:     bytesRead,
			Rate:          rate,
			ElapsedSec:    elapsed,
			LastRowHash:   lastRowHash,
			Timestamp:     now,
		})
	}

	return nil
}

func (w *Worker) complete(ctx context.Context, jobID string) {
	now := time.Now().UTC()
	_ = w.jobs.MarkCompleted(ctx, jobID)
	if w.broker != nil {
		w.broker.Publish(Event{Type: EventDone, JobID: jobID, Timestamp: now})
	}
}

// fail is best-effort: a secondary write failure must never suppress the
// live error event.
func (w *Worker) fail(ctx context.Context, jobID string, reason string) {
	now := time.Now().UTC()
	_ = w.jobs.MarkFailed(ctx, jobID, reason)
	if w.broker != nil {
		w.broker.Publish(Event{Type: EventError, JobID: jobID, Error: reason, Timestamp: now})
	}
}
