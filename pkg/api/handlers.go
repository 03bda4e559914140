package api

import (
	"net/http"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/pipeline"
	"github.com/matzehuels/catgraph/pkg/store"
)

type listResponse struct {
	store.Page
	Next     *int `json:"next"`
	Previous *int `json:"previous"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", cgerrors.ErrCodeInvalidPage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if page == 0 {
		page = 1
	}
	size, err := queryInt(r, "page_size", cgerrors.ErrCodeInvalidPage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.List(r.Context(), page, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := listResponse{Page: p}
	if p.HasNext() {
		next := p.Page + 1
		resp.Next = &next
	}
	if p.Page > 1 {
		prev := p.Page - 1
		resp.Previous = &prev
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req store.NewCategory
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.store.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	ParentID *category.ID `json:"parent_id"`
}

func (s *Server) moveCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.store.Move(r.Context(), id, req.ParentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ids, err := s.store.Similar(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "similar": ids})
}

type linkRequest struct {
	CategoryID category.ID `json:"category_id"`
}

type linkResponse struct {
	From    category.ID `json:"from"`
	To      category.ID `json:"to"`
	Changed bool        `json:"changed"`
}

func (s *Server) linkTarget(w http.ResponseWriter, r *http.Request) (category.ID, category.ID, bool) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return 0, 0, false
	}
	var req linkRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return 0, 0, false
	}
	if err := cgerrors.ValidateLink(id, req.CategoryID); err != nil {
		s.writeError(w, r, err)
		return 0, 0, false
	}
	return id, req.CategoryID, true
}

func (s *Server) link(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.linkTarget(w, r)
	if !ok {
		return
	}
	created, err := s.store.Link(r.Context(), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, linkResponse{From: from, To: to, Changed: created})
}

func (s *Server) unlink(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.linkTarget(w, r)
	if !ok {
		return
	}
	removed, err := s.store.Unlink(r.Context(), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{From: from, To: to, Changed: removed})
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	data, hit, err := s.runner.TreeJSON(r.Context(), queryBool(r, "refresh"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) analysis(w http.ResponseWriter, r *http.Request) {
	opts := s.opts.Analysis
	opts.Refresh = queryBool(r, "refresh")

	workers, err := queryInt(r, "workers", cgerrors.ErrCodeInvalidInput)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if workers > 0 {
		opts.Workers = workers
	}
	sample, err := queryInt(r, "sample_size", cgerrors.ErrCodeInvalidInput)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sample > 0 {
		opts.SampleSize = sample
	}

	res, err := s.runner.Analyze(r.Context(), pipeline.Options{
		Workers:    opts.Workers,
		SampleSize: opts.SampleSize,
		Refresh:    opts.Refresh,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Run-ID", res.Report.RunID)
	if res.CacheHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeJSON(w, http.StatusOK, res.Report)
}
