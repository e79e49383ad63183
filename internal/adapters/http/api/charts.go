package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/okian/aqframes/pkg/logger"
)

const maxSelectBody = 1 << 16

// ChartsHandler serves chart reads and playback commands.
type ChartsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewChartsHandler creates a new charts handler.
func NewChartsHandler(deps Dependencies, l logger.Logger) *ChartsHandler {
	return &ChartsHandler{deps: deps, logger: l}
}

func chartID(r *http.Request) string { return mux.Vars(r)["id"] }

// HandleList handles GET /charts.
func (h *ChartsHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Charts())
}

// HandleGet handles GET /charts/{id}.
func (h *ChartsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.Chart(chartID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleFrame handles GET /charts/{id}/frame.
func (h *ChartsHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	f, err := h.deps.Frame(r.Context(), chartID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleFrames handles GET /charts/{id}/frames?limit=N.
func (h *ChartsHandler) HandleFrames(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	frames, err := h.deps.History(r.Context(), chartID(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, frames)
}

// HandlePlay handles POST /charts/{id}/play.
func (h *ChartsHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	id := chartID(r)
	if err := h.deps.Play(id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.logger.Info(r.Context(), "chart playing", logger.String("chart", id))
	h.writeStatus(w, id)
}

// HandlePause handles POST /charts/{id}/pause.
func (h *ChartsHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	id := chartID(r)
	if err := h.deps.Pause(id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.logger.Info(r.Context(), "chart paused", logger.String("chart", id))
	h.writeStatus(w, id)
}

// HandleToggle handles POST /charts/{id}/toggle.
func (h *ChartsHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id := chartID(r)
	state, err := h.deps.Toggle(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.logger.Info(r.Context(), "chart toggled", logger.String("chart", id), logger.String("state", state.String()))
	h.writeStatus(w, id)
}

// HandleStep handles POST /charts/{id}/step.
func (h *ChartsHandler) HandleStep(w http.ResponseWriter, r *http.Request) {
	id := chartID(r)
	if err := h.deps.Step(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeFrame(w, r, id)
}

// HandleJump handles POST /charts/{id}/jump?period=KEY.
func (h *ChartsHandler) HandleJump(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("period"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing period", ErrBadRequest))
		return
	}
	id := chartID(r)
	if err := h.deps.Jump(r.Context(), id, key); err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeFrame(w, r, id)
}

// HandleSelect handles POST /charts/{id}/select. An empty entity list
// clears the selection.
func (h *ChartsHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSelectBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	keys, err := req.keys()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	id := chartID(r)
	if err := h.deps.Select(r.Context(), id, keys); err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeFrame(w, r, id)
}

func (h *ChartsHandler) writeStatus(w http.ResponseWriter, id string) {
	info, err := h.deps.Chart(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info.Status)
}

func (h *ChartsHandler) writeFrame(w http.ResponseWriter, r *http.Request, id string) {
	f, err := h.deps.Frame(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
