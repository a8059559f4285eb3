package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/wonny/ygscore/internal/collector"
	"github.com/wonny/ygscore/pkg/database"
	"github.com/wonny/ygscore/pkg/logger"
)

// StatusHandler reports collection loop and database status.
// ⭐ SSOT: 상태 API 핸들러는 이 구조체에서만
type StatusHandler struct {
	db     *database.DB
	logger *logger.Logger

	mu    sync.RWMutex
	loops []*collector.Loop
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *database.DB, log *logger.Logger) *StatusHandler {
	return &StatusHandler{db: db, logger: log}
}

// Track registers a running loop for status reporting.
func (h *StatusHandler) Track(loop *collector.Loop) {
	h.mu.Lock()
	h.loops = append(h.loops, loop)
	h.mu.Unlock()
}

// statusResponse is the /api/v1/status payload.
type statusResponse struct {
	Database *database.HealthStatus `json:"database"`
	Pool     database.PoolStats     `json:"pool"`
	Loops    []collector.Snapshot   `json:"loops"`
}

// GetStatus returns the process status snapshot
// GET /api/v1/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health, err := h.db.HealthCheck(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Database health check failed")
	}

	h.mu.RLock()
	snapshots := make([]collector.Snapshot, 0, len(h.loops))
	for _, loop := range h.loops {
		snapshots = append(snapshots, loop.Status())
	}
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		Database: health,
		Pool:     h.db.Stats(),
		Loops:    snapshots,
	})
}
