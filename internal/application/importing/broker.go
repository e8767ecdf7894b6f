package importing

import (
	"context"
	"math"
	"sync"
	"time"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

// DefaultSubscriberBuffer bounds the per-subscriber channel. Under pressure
// a new frame displaces the oldest buffered one, so a terminal frame always
// reaches a live subscriber's buffer; the sticky last-terminal-event field
// replays it to subscribers that join later.
const DefaultSubscriberBuffer = 32

// Broker is the Progress Broker (C7): it computes snapshots on demand and
// multiplexes live worker events to any number of observers, grounded on
// the same ring-buffer-plus-fan-out shape used for live usage events
// elsewhere in this codebase's ancestry.
type Broker struct {
	jobs      domain.JobStore
	customers domain.CustomerReader

	mu           sync.Mutex
	subs         map[uint64]chan Event
	nextSubID    uint64
	lastTerminal *Event
}

func NewBroker(jobs domain.JobStore, customers domain.CustomerReader) *Broker {
	return &Broker{
		jobs:      jobs,
		customers: customers,
		subs:      make(map[uint64]chan Event),
	}
}

// Snapshot computes a derived Progress view of the single most relevant
// ImportJob, per §3/§4.7.
func (b *Broker) Snapshot(ctx context.Context, totalRows int64, recentLimit int) (domain.Progress, error) {
	if totalRows <= 0 {
		totalRows = 2_000_000
	}
	if recentLimit <= 0 {
		recentLimit = 20
	}
	if recentLimit > 200 {
		recentLimit = 200
	}

	job, err := b.jobs.FindLatestRunning(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	if job == nil {
		job, err = b.jobs.FindLatest(ctx)
		if err != nil {
			return domain.Progress{}, err
		}
	}
	if job == nil {
		return domain.IdleProgress(), nil
	}

	return b.snapshotFromJob(ctx, job, totalRows, recentLimit)
}

func (b *Broker) snapshotFromJob(ctx context.Context, job *domain.ImportJob, totalRows int64, recentLimit int) (domain.Progress, error) {
	now := time.Now().UTC()
	elapsed := now.Sub(job.StartedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	var rate float64
	if elapsed > 0 {
		rate = float64(job.RowsProcessed) / elapsed
	}

	percent := 0.0
	if totalRows > 0 {
		percent = (float64(job.RowsProcessed) / float64(totalRows)) * 100
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	var etaSec *float64
	if rate > 0 {
		remaining := float64(totalRows) - float64(job.RowsProcessed)
		if remaining < 0 {
			remaining = 0
		}
		eta := math.Ceil(remaining / rate)
		etaSec = &eta
	}

	progress := domain.Progress{
		JobID:          job.ID,
		Status:         job.Status,
		RowsProcessed:  job.RowsProcessed,
		RowsInserted:   job.RowsInserted,
		BytesRead:      job.BytesRead,
		Percent:        percent,
		RateRowsPerSec: rate,
		ElapsedSec:     elapsed,
		ETASec:         etaSec,
		StartedAt:      &job.StartedAt,
		UpdatedAt:      &job.UpdatedAt,
		CompletedAt:    job.CompletedAt,
		Error:          job.Error,
		DisableSync:    job.Status == domain.JobRunning,
	}

	if job.Status == domain.JobRunning || job.Status == domain.JobCompleted {
		since := job.StartedAt
		recent, err := b.customers.RecentSince(ctx, since, recentLimit)
		if err != nil {
			return domain.Progress{}, err
		}
		progress.RecentCustomers = recent
	}

	return progress, nil
}

// Publish broadcasts one event to every live subscriber, non-blocking.
// Terminal events also become the sticky "last terminal" frame so a
// subscriber joining after completion still observes it.
func (b *Broker) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if event.terminal() {
		e := event
		b.lastTerminal = &e
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropOldestLocked(ch, event)
		}
	}
}

// dropOldestLocked makes room for an event by discarding the oldest
// buffered frame for this subscriber, then retries once.
func (b *Broker) dropOldestLocked(ch chan Event, event Event) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- event:
	default:
	}
}

// Subscription is a live handle to the broker's fan-out. The initial
// snapshot is returned by Subscribe itself; Events() yields a merged
// sequence of live worker events (including a replayed terminal frame) and
// heartbeats until the context is cancelled.
type Subscription struct {
	broker    *Broker
	id        uint64
	ch        chan Event
	heartbeat time.Duration
}

func (b *Broker) Subscribe(ctx context.Context, totalRows int64, recentLimit int, heartbeat time.Duration) (*Subscription, domain.Progress, error) {
	snapshot, err := b.Snapshot(ctx, totalRows, recentLimit)
	if err != nil {
		return nil, domain.Progress{}, err
	}

	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	ch := make(chan Event, DefaultSubscriberBuffer)
	b.subs[id] = ch
	sticky := b.lastTerminal
	b.mu.Unlock()

	if sticky != nil && sticky.JobID == snapshot.JobID {
		// A terminal frame for the current job already happened; replay it
		// immediately so a late joiner still observes the terminal state.
		select {
		case ch <- *sticky:
		default:
		}
	}

	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}

	return &Subscription{broker: b, id: id, ch: ch, heartbeat: heartbeat}, snapshot, nil
}

// Events streams live frames plus periodic heartbeats until ctx is done.
// The returned channel is closed when the subscription ends.
func (s *Subscription) Events(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		defer s.broker.unsubscribe(s.id)

		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-s.ch:
				if !ok {
					return
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			case <-ticker.C:
				heartbeat := Event{Type: EventHeartbeat, Timestamp: time.Now().UTC()}
				select {
				case out <- heartbeat:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}
