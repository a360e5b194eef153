package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/eventstore"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/preview"
	"git.home.luguber.info/inful/campus/internal/site"
)

const (
	maxDraftBytes      = 4 << 20
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	defaultBuildsLimit = 20
)

func previewTarget(r *http.Request) (content.Kind, string, error) {
	kind, err := content.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", "", err
	}
	return kind, chi.URLParam(r, "id"), nil
}

func (s *Server) handleSubmitPreview(w http.ResponseWriter, r *http.Request) {
	kind, id, err := previewTarget(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDraftBytes))
	if err != nil {
		s.Error(w, r, ferrors.ValidationError("read request body").WithCause(err).Build())
		return
	}
	var draft preview.Draft
	if err := json.Unmarshal(body, &draft); err != nil {
		s.Error(w, r, ferrors.ValidationError("invalid draft").WithCause(err).Build())
		return
	}
	result, err := s.previews.Submit(kind, id, draft)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusAccepted, result)
}

func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	kind, id, err := previewTarget(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	result, ok := s.previews.Get(kind, id)
	if !ok {
		s.Error(w, r, ferrors.NotFoundError("no preview session").
			WithContext("kind", string(kind)).
			WithContext("id", id).
			Build())
		return
	}
	s.Success(w, http.StatusOK, result)
}

func (s *Server) handleDiscardPreview(w http.ResponseWriter, r *http.Request) {
	kind, id, err := previewTarget(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if !s.previews.Discard(kind, id) {
		s.Error(w, r, ferrors.NotFoundError("no preview session").
			WithContext("kind", string(kind)).
			WithContext("id", id).
			Build())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePage returns the page data of a site route, e.g. /page/tag/a/1.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.site == nil {
		s.Error(w, r, ferrors.NotFoundError("page data not served").Build())
		return
	}
	route, err := site.ParseRoute("/" + chi.URLParam(r, "*"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	snap, err := s.site.Load(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	props, err := s.site.Props(r.Context(), snap, route)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, props)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.Error(w, r, ferrors.NotFoundError("no local search index").Build())
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		s.Error(w, r, ferrors.ValidationError("query parameter q is required").Build())
		return
	}
	limit, err := intParam(r, "limit", defaultSearchLimit)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	hits, err := s.index.Search(q, min(limit, maxSearchLimit))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, hits)
}

func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.Error(w, r, ferrors.NotFoundError("build history not configured").Build())
		return
	}
	limit, err := intParam(r, "limit", defaultBuildsLimit)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	builds, err := eventstore.History(r.Context(), s.history, limit)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, builds)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ferrors.ValidationError("invalid "+name).WithContext(name, raw).Build()
	}
	return n, nil
}
