package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/reflex/internal/errors"
	"github.com/vango-dev/reflex/pkg/reactive"
)

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	var (
		html string
		err  error
	)
	s.app.View(func() {
		html, err = s.renderer.RenderToString(s.doc.Root)
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "render document failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !s.opts.DisableClient {
		html = injectClient(html)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r, func() (Message, bool) {
		msg := s.snapshot()
		return msg, len(msg.Nodes) > 0
	})
}

func (s *Server) handleListState(w http.ResponseWriter, r *http.Request) {
	roots := s.app.Graph().Roots()
	out := make([]any, 0, len(roots))
	for _, v := range roots {
		out = append(out, v.Plain())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, obj.Snapshot())
}

// handleMergeState merges a JSON object into the entity. The write marks
// the entity dirty; the response carries the merged snapshot.
func (s *Server) handleMergeState(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var values map[string]any
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.CodeNotReactiveValue).WithDetail("request body must be a JSON object").Wrap(err))
		return
	}
	if values == nil {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.CodeNotReactiveValue).WithDetail("request body must be a JSON object"))
		return
	}
	// The id is the binding key; it cannot be changed through the API.
	delete(values, reactive.IDKey)

	obj.Merge(values)
	s.logger.DebugContext(r.Context(), "state merged", "id", obj.ID(), "keys", len(values))
	writeJSON(w, http.StatusOK, obj.Snapshot())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*reactive.Object, bool) {
	entityID := chi.URLParam(r, "id")
	obj, ok := s.app.Find(entityID)
	if !ok {
		writeError(w, http.StatusNotFound,
			errors.New(errors.CodeBindingNotFound).WithDetailf("no entity with id %q", entityID))
		return nil, false
	}
	return obj, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.Error) {
	writeJSON(w, status, map[string]any{"error": err})
}
