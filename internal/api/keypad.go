package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-keypad/internal/journal"
	"github.com/nerrad567/gray-logic-keypad/internal/keypad"
)

// submitTimeout bounds how long a control request waits for the controller loop.
const submitTimeout = 5 * time.Second

// healthCheckTimeout bounds each component check on /health.
const healthCheckTimeout = 2 * time.Second

// ControlResponse is returned when a control request has been queued.
type ControlResponse struct {
	Index   int                    `json:"index"`
	Actions []keypad.ControlAction `json:"actions"`
	Status  string                 `json:"status"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: s.version}
	status := http.StatusOK

	if len(s.checks) > 0 {
		resp.Components = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := check.HealthCheck(ctx)
			cancel()
			if err != nil {
				resp.Components[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleGetKeypad(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.keypad.Snapshot())
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	index, ok := parseKeyIndex(w, r)
	if !ok {
		return
	}
	key, found := s.keypad.Snapshot().Key(index)
	if !found {
		writeNotFound(w, fmt.Sprintf("key %d does not exist", index))
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (s *Server) handleControlKey(w http.ResponseWriter, r *http.Request) {
	index, ok := parseKeyIndex(w, r)
	if !ok {
		return
	}
	if _, _, exists := keypad.Position(index); !exists {
		writeNotFound(w, fmt.Sprintf("key %d does not exist", index))
		return
	}

	var pkt keypad.ControlPacket
	if err := json.NewDecoder(r.Body).Decode(&pkt); err != nil {
		writeBadRequest(w, "invalid control packet: "+err.Error())
		return
	}
	if len(pkt.Actions) == 0 {
		writeBadRequest(w, "actions must not be empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	if err := s.keypad.Submit(ctx, index, pkt.Actions); err != nil {
		if errors.Is(err, keypad.ErrKeyOutOfRange) {
			writeNotFound(w, err.Error())
			return
		}
		s.logger.Warn("control request not accepted", "key", index, "error", err)
		writeUnavailable(w, "keypad controller is not accepting commands")
		return
	}

	writeJSON(w, http.StatusAccepted, ControlResponse{
		Index:   index,
		Actions: pkt.Actions,
		Status:  "accepted",
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "event journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{Kind: keypad.KeyEventKind(q.Get("kind"))}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeBadRequest(w, p.name+" must be a non-negative integer")
				return
			}
			*p.dst = n
		}
	}
	if v := q.Get("key"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "key must be an integer")
			return
		}
		filter.Key = &n
	}
	switch filter.Kind {
	case "", keypad.KeyEventPress, keypad.KeyEventRelease, keypad.KeyEventControl:
	default:
		writeBadRequest(w, "kind must be press, release or control")
		return
	}

	res, err := s.history.History(r.Context(), filter)
	if err != nil {
		s.logger.Error("querying key event history", "error", err)
		writeInternalError(w, "failed to query event history")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func parseKeyIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeBadRequest(w, fmt.Sprintf("key index %q is not an integer", raw))
		return 0, false
	}
	return index, true
}
