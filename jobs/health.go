package jobs

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
)

// QueueHealth is the queue snapshot served by /jobs/health.
type QueueHealth struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

// QueueHealthFrom converts asynq queue info. A nil info reports an empty queue.
func QueueHealthFrom(queue string, info *asynq.QueueInfo) QueueHealth {
	health := QueueHealth{Queue: queue}
	if info == nil {
		return health
	}
	health.Queue = info.Queue
	health.Pending = int(info.Pending)
	health.Active = int(info.Active)
	health.Scheduled = int(info.Scheduled)
	health.Retry = int(info.Retry)
	return health
}

// Handler exposes the queue state over HTTP.
type Handler struct {
	inspector *asynq.Inspector
	queue     string
	logger    *slog.Logger
}

// NewHandler constructs the jobs HTTP handler. A nil inspector reports an
// empty queue.
func NewHandler(inspector *asynq.Inspector, queue string, logger *slog.Logger) *Handler {
	if queue == "" {
		queue = QueueDefault
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, queue: queue, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	var info *asynq.QueueInfo
	if h.inspector != nil {
		var err error
		info, err = h.inspector.GetQueueInfo(h.queue)
		if err != nil {
			h.logger.Warn("jobs health", slog.String("queue", h.queue), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(QueueHealthFrom(h.queue, info))
}
