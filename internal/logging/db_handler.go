package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dbBatchSize = 50

// DBHandler is an slog.Handler that batches ERROR+ records and security
// events into the system_logs table.
type DBHandler struct {
	db     *gorm.DB
	state  *dbState
	attrs  []slog.Attr
	ticker *time.Ticker
}

type dbState struct {
	mu       sync.Mutex
	buffer   []models.SystemLog
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	flushes  sync.WaitGroup
}

func NewDBHandler(db *gorm.DB, interval time.Duration) *DBHandler {
	h := &DBHandler{
		db: db,
		state: &dbState{
			buffer:  make([]models.SystemLog, 0, dbBatchSize),
			done:    make(chan struct{}),
			stopped: make(chan struct{}),
		},
		ticker: time.NewTicker(interval),
	}
	go h.flushLoop()
	return h
}

func (h *DBHandler) flushLoop() {
	defer close(h.state.stopped)
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.state.done:
			h.ticker.Stop()
			h.state.flushes.Wait()
			h.flush()
			return
		}
	}
}

func (h *DBHandler) flush() {
	h.state.mu.Lock()
	if len(h.state.buffer) == 0 {
		h.state.mu.Unlock()
		return
	}
	batch := h.state.buffer
	h.state.buffer = make([]models.SystemLog, 0, dbBatchSize)
	h.state.mu.Unlock()

	if err := h.db.CreateInBatches(batch, dbBatchSize).Error; err != nil {
		// the default logger may include this handler
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

// Stop flushes pending records and waits for the background loop to exit.
func (h *DBHandler) Stop() {
	h.state.stopOnce.Do(func() { close(h.state.done) })
	<-h.state.stopped
}

// Enabled admits WARN so security events can be inspected in Handle.
func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.NewString(),
		Timestamp: record.Time.UTC(),
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]any)
	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "category":
			entry.Category = a.Value.String()
		case "event":
			entry.Event = a.Value.String()
		case "request_id":
			entry.RequestID = a.Value.String()
		case "ip", "client_ip":
			entry.ClientIP = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	record.Attrs(collect)

	if record.Level < slog.LevelError && entry.Category != CategorySecurity {
		return nil
	}

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.state.mu.Lock()
	h.state.buffer = append(h.state.buffer, entry)
	needFlush := len(h.state.buffer) >= dbBatchSize
	if needFlush {
		h.state.flushes.Add(1)
	}
	h.state.mu.Unlock()

	if needFlush {
		go func() {
			defer h.state.flushes.Done()
			h.flush()
		}()
	}
	return nil
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *DBHandler) WithGroup(string) slog.Handler {
	return h
}
