package echo

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	app "github.com/acme-corp/customer-import/internal/application/importing"
	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

type ProgressHandler struct {
	broker        *app.Broker
	defaultTotal  int64
	defaultRecent int
	heartbeatMs   int
}

func NewProgressHandler(broker *app.Broker, defaultTotal int64, defaultRecent int, heartbeatMs int) *ProgressHandler {
	return &ProgressHandler{
		broker:        broker,
		defaultTotal:  defaultTotal,
		defaultRecent: defaultRecent,
		heartbeatMs:   heartbeatMs,
	}
}

func (h *ProgressHandler) Snapshot(c echo.Context) error {
	totalRows := h.queryInt64(c, "totalRows", h.defaultTotal)
	recentLimit := h.queryInt(c, "recentLimit", h.defaultRecent)

	snapshot, err := h.broker.Snapshot(c.Request().Context(), totalRows, recentLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to compute progress snapshot",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: toSnapshotPayload(snapshot)})
}

// Stream implements the text/event-stream surface: a snapshot frame, then
// a live tail of progress/done/error events, then heartbeats until the
// client disconnects.
func (h *ProgressHandler) Stream(c echo.Context) error {
	totalRows := h.queryInt64(c, "totalRows", h.defaultTotal)
	recentLimit := h.queryInt(c, "recentLimit", h.defaultRecent)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return nil
	}

	ctx := c.Request().Context()
	sub, snapshot, err := h.broker.Subscribe(ctx, totalRows, recentLimit, time.Duration(h.heartbeatMs)*time.Millisecond)
	if err != nil {
		return err
	}

	if err := writeSSEFrame(resp, "snapshot", toSnapshotPayload(snapshot)); err != nil {
		return nil
	}
	flusher.Flush()

	for event := range sub.Events(ctx) {
		payload, eventName := toEventPayload(event)
		if err := writeSSEFrame(resp, eventName, payload); err != nil {
			return nil
		}
		flusher.Flush()
	}

	return nil
}

func (h *ProgressHandler) queryInt64(c echo.Context, key string, fallback int64) int64 {
	raw := c.QueryParam(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func (h *ProgressHandler) queryInt(c echo.Context, key string, fallback int) int {
	raw := c.QueryParam(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

type snapshotPayload struct {
	Type            string    `json:"type"`
	JobID           string    `json:"jobId,omitempty"`
	Status          string    `json:"status"`
	RowsProcessed   string    `json:"rowsProcessed"`
	RowsInserted    string    `json:"rowsInserted"`
	BytesRead       string    `json:"bytesRead"`
	Percent         float64   `json:"percent"`
	RateRowsPerSec  float64   `json:"rateRowsPerSec"`
	ElapsedSec      float64   `json:"elapsedSec"`
	ETASec          *float64  `json:"etaSec"`
	Error           string    `json:"error,omitempty"`
	DisableSync     bool      `json:"disableSync"`
	RecentCustomers []any     `json:"recentCustomers"`
}

func toSnapshotPayload(p domain.Progress) snapshotPayload {
	recent := make([]any, 0, len(p.RecentCustomers))
	for _, c := range p.RecentCustomers {
		recent = append(recent, customerPayload(c))
	}

	return snapshotPayload{
		Type:            "snapshot",
		JobID:           p.JobID,
		Status:          string(p.Status),
		RowsProcessed:   strconv.FormatInt(p.RowsProcessed, 10),
		RowsInserted:    strconv.FormatInt(p.RowsInserted, 10),
		BytesRead:       strconv.FormatInt(p.BytesRead, 10),
		Percent:         p.Percent,
		RateRowsPerSec:  p.RateRowsPerSec,
		ElapsedSec:      p.ElapsedSec,
		ETASec:          p.ETASec,
		Error:           p.Error,
		DisableSync:     p.DisableSync,
		RecentCustomers: recent,
	}
}

func toEventPayload(event app.Event) (any, string) {
	switch event.Type {
	case app.EventProgress:
		return map[string]any{
			"type":          "progress",
			"jobId":         event.JobID,
			"rowsProcessed": strconv.FormatInt(event.RowsProcessed, 10),
			"rowsInserted":  strconv.FormatInt(event.RowsInserted, 10),
			"bytesRead":     strconv.FormatInt(event.BytesRead, 10),
			"rate":          event.Rate,
			"elapsedSec":    event.ElapsedSec,
			"lastRowHash":   event.LastRowHash,
		}, "progress"
	case app.EventDone:
		return map[string]any{"type": "done", "jobId": event.JobID}, "done"
	case app.EventError:
		return map[string]any{"type": "error", "jobId": event.JobID, "error": event.Error}, "error"
	default:
		return map[string]any{"type": "heartbeat", "ts": event.Timestamp.Format(time.RFC3339)}, "heartbeat"
	}
}

func writeSSEFrame(resp *echo.Response, event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := resp.Write([]byte("event: " + event + "\ndata: ")); err != nil {
		return err
	}
	if _, err := resp.Write(body); err != nil {
		return err
	}
	_, err = resp.Write([]byte("\n\n"))
	return err
}
