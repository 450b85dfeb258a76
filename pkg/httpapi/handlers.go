package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/compose"
	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/graph"
	"github.com/mimic-ai/mimic/pkg/registry"
)

// StatusResponse describes the snapshot currently being served.
type StatusResponse struct {
	Generation         uint64         `json:"generation"`
	Fragments          int            `json:"fragments"`
	ByCategory         map[string]int `json:"by_category"`
	WatchedDirectories []string       `json:"watched_directories"`
	Problems           []string       `json:"problems"`
}

// ComposeResponse is the body returned by POST /api/compose.
type ComposeResponse struct {
	Prompt string `json:"prompt"`
	HTML   string `json:"html,omitempty"`
}

// handleListFragments handles GET /api/fragments
func (s *Server) handleListFragments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := registry.Filter{Tag: query.Get("tag"), Group: query.Get("group")}
	if c := query.Get("category"); c != "" {
		cat, ok := fragments.ParseCategory(c)
		if !ok {
			s.writeErrorResponse(w, r, http.StatusBadRequest, "unknown category '"+c+"'", nil)
			return
		}
		filter.Category = cat
	}

	s.writeJSONResponse(w, r, s.store.Current().List(filter))
}

// handleGetFragment handles GET /api/fragments/{category}/{name}
func (s *Server) handleGetFragment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cat, ok := fragments.ParseCategory(vars["category"])
	if !ok {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "unknown category '"+vars["category"]+"'", nil)
		return
	}

	f, err := s.store.Current().MustGet(cat, vars["name"])
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusNotFound, "fragment not found", err)
		return
	}
	s.writeJSONResponse(w, r, f)
}

// handleListTags handles GET /api/tags
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, r, s.store.Current().AllTags())
}

// handleListGroups handles GET /api/groups
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, r, s.store.Current().AllGroups())
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()

	resp := StatusResponse{
		Generation:         s.store.Generation(),
		Fragments:          snap.Len(),
		ByCategory:         map[string]int{},
		WatchedDirectories: snap.WatchedDirectories(),
		Problems:           []string{},
	}
	for cat, n := range snap.CountByCategory() {
		resp.ByCategory[string(cat)] = n
	}
	if merr, ok := snap.Problems().(interface{ WrappedErrors() []error }); ok {
		for _, err := range merr.WrappedErrors() {
			resp.Problems = append(resp.Problems, err.Error())
		}
	}

	s.writeJSONResponse(w, r, resp)
}

// handleCompose handles POST /api/compose. ?format=html adds a rendered copy.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req compose.Request
	if err := decodeBody(w, r, &req); err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "failed to compose prompt", err)
		return
	}
	if req.Persona == "" {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "persona is required", nil)
		return
	}

	prompt, err := compose.Compose(s.store.Current(), req)
	if err != nil {
		s.writeErrorResponse(w, r, statusFor(err), "failed to compose prompt", err)
		return
	}

	resp := ComposeResponse{Prompt: prompt}
	if r.URL.Query().Get("format") == "html" {
		html, err := compose.RenderHTML(prompt)
		if err != nil {
			s.writeErrorResponse(w, r, http.StatusInternalServerError, "failed to render prompt", err)
			return
		}
		resp.HTML = html
	}
	s.writeJSONResponse(w, r, resp)
}

// handleRecommend handles POST /api/recommend
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var q graph.RecommendQuery
	if err := decodeBody(w, r, &q); err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "failed to recommend", err)
		return
	}

	recs, err := graph.Recommend(s.store.Current(), q)
	if err != nil {
		s.writeErrorResponse(w, r, statusFor(err), "failed to recommend", err)
		return
	}
	s.writeJSONResponse(w, r, recs)
}

// handleResolve handles POST /api/resolve
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var q graph.Query
	if err := decodeBody(w, r, &q); err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "failed to resolve graph", err)
		return
	}

	result, err := graph.Resolve(r.Context(), s.store.Current(), q)
	if err != nil {
		s.writeErrorResponse(w, r, statusFor(err), "failed to resolve graph", err)
		return
	}
	s.writeJSONResponse(w, r, result)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, r, map[string]any{
		"status":     "ok",
		"generation": s.store.Generation(),
	})
}

func statusFor(err error) int {
	if errors.Is(err, fragments.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
