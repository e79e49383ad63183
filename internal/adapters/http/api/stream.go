package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/aqframes/pkg/logger"
)

const defaultKeepAlive = 15 * time.Second

// StreamHandler pushes frames as server-sent events.
type StreamHandler struct {
	deps      Dependencies
	logger    logger.Logger
	keepAlive time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps Dependencies, l logger.Logger, keepAlive time.Duration) *StreamHandler {
	return &StreamHandler{deps: deps, logger: l, keepAlive: keepAlive}
}

// HandleStream handles GET /stream and GET /charts/{id}/stream. Each frame
// is sent as a "frame" event whose id is the frame sequence number.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", ErrStreamUnsupported)
		return
	}
	sub, err := h.deps.Subscribe(chartID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer func() { _ = h.deps.Unsubscribe(sub.ID) }()

	ctx := r.Context()
	h.logger.Debug(ctx, "stream opened", logger.String("subscriber", sub.ID), logger.String("chart", sub.Chart))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, ": subscribed %s\n\n", sub.ID)
	flusher.Flush()

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug(ctx, "stream closed", logger.String("subscriber", sub.ID))
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case f, ok := <-sub.Frames:
			if !ok {
				return
			}
			data, err := json.Marshal(f)
			if err != nil {
				h.logger.Error(ctx, "encode frame", logger.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: frame\ndata: %s\n\n", f.Seq, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
