// CLAUDE:SUMMARY HTTP surface on chi: run research, list and search past sessions, save history, health.
package recherche

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/recherche/kit"
)

// ResearchRequest is the body of POST /api/research and the arguments of
// the recherche_research MCP tool.
type ResearchRequest struct {
	Query      string `json:"query"`
	Depth      string `json:"depth,omitempty"`
	MaxSources int    `json:"max_sources,omitempty"`
	News       bool   `json:"news,omitempty"`
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"per_page,omitempty"`
}

// DefaultMaxSources is used when a request leaves max_sources unset.
const DefaultMaxSources = 5

func (svc *Service) run(ctx context.Context, req *ResearchRequest) (*Session, error) {
	depth, maxSources := Depth(req.Depth), req.MaxSources
	if maxSources == 0 {
		maxSources = DefaultMaxSources
	}
	opts := []ResearchOption{WithPage(req.Page, req.PerPage)}
	if req.News {
		opts = append(opts, WithNews())
	}
	return svc.Research(ctx, req.Query, depth, maxSources, opts...)
}

// researchEndpoint serves POST /api/research and the recherche_research tool.
func (svc *Service) researchEndpoint() kit.Endpoint {
	return kit.Logging(svc.logger, "recherche_research")(func(ctx context.Context, r any) (any, error) {
		sess, err := svc.run(ctx, r.(*ResearchRequest))
		if err != nil {
			return nil, err
		}
		return normalized(sess), nil
	})
}

// RegisterHTTP mounts the research API on r.
func (svc *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"backend": string(svc.Backend()),
		})
	})

	r.Post("/api/research", func(w http.ResponseWriter, r *http.Request) {
		var req ResearchRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), middleware.GetReqID(r.Context()))
		sess, err := svc.researchEndpoint()(ctx, &req)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	})

	r.Get("/api/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, normalizedAll(svc.History()))
	})

	r.Get("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 20)
		if q := r.URL.Query().Get("q"); q != "" {
			hits, err := svc.SearchArchive(r.Context(), q, limit)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, hits)
			return
		}
		entries, err := svc.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Archived(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if sess == nil {
			writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}
		writeJSON(w, http.StatusOK, sess)
	})

	r.Post("/api/sessions/save", func(w http.ResponseWriter, r *http.Request) {
		// Only the auto-generated name is accepted over HTTP.
		path, err := svc.SaveResearch("")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"path": path, "sessions": len(svc.History())})
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoArchive):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func normalizedAll(in []*Session) []*Session {
	out := make([]*Session, 0, len(in))
	for _, s := range in {
		out = append(out, normalized(s))
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
