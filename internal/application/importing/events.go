package importing

import (
	"time"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

// EventType discriminates the frames multiplexed to progress observers.
type EventType string

const (
	EventSnapshot  EventType = "snapshot"
	EventProgress  EventType = "progress"
	EventDone      EventType = "done"
	EventError     EventType = "error"
	EventHeartbeat EventType = "heartbeat"
)

// Event is one frame published by the Worker/Supervisor and multicast to
// every live subscriber of the Progress Broker.
type Event struct {
	Type          EventType
	JobID         string
	RowsProcessed int64
	RowsInserted  int64
	BytesRead     int64
	Rate          float64
	ElapsedSec    float64
	LastRowHash   string
	Error         string
	Timestamp     time.Time
	Snapshot      *domain.Progress
}

func (e Event) terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
