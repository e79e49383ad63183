package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/aqframes/internal/domain/model"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 1000
)

// parseLimit reads ?limit=, defaulting when absent.
func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxHistoryLimit {
		return 0, fmt.Errorf("%w: limit must be in 1..%d", ErrBadRequest, maxHistoryLimit)
	}
	return n, nil
}

// selectRequest is the body of POST /charts/{id}/select. Each entity is
// either a single name or the list of a composite key's parts.
type selectRequest struct {
	Entities []json.RawMessage `json:"entities"`
}

func (s selectRequest) keys() ([]model.Key, error) {
	keys := make([]model.Key, 0, len(s.Entities))
	for i, raw := range s.Entities {
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			keys = append(keys, model.Key{one})
			continue
		}
		var parts []string
		if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
			return nil, fmt.Errorf("%w: entity %d must be a string or a list of strings", ErrBadRequest, i)
		}
		keys = append(keys, model.Key(parts))
	}
	return keys, nil
}
