package web

import (
	"net/http"
	"strconv"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/service"
)

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.catalog.GetCatalog(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.catalog.GetSections(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sections)
}

func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	ret, err := s.catalog.GetSection(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ret)
}

type sectionRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.catalog.CreateSection(r.Context(), req.Name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRenameSection(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	var req sectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.catalog.RenameSection(r.Context(), id, req.Name); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	if err := s.catalog.DeleteSection(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.catalog.GetClasses(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, classes)
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	ret, err := s.catalog.GetClass(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ret)
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req model.Class
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.catalog.CreateClass(r.Context(), &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	var req model.Class
	if !s.decode(w, r, &req) {
		return
	}
	req.ID = id
	updated, err := s.catalog.UpdateClass(r.Context(), &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	if err := s.catalog.DeleteClass(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCompetitors(w http.ResponseWriter, r *http.Request) {
	if number := r.URL.Query().Get("number"); number != "" {
		s.handleCompetitorByNumber(w, r, number)
		return
	}
	competitors, err := s.competitors.GetCompetitors(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, competitors)
}

func (s *Server) handleGetCompetitor(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	ret, err := s.competitors.GetCompetitor(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ret)
}

func (s *Server) handleCreateCompetitor(w http.ResponseWriter, r *http.Request) {
	var req model.Competitor
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.competitors.CreateCompetitor(r.Context(), &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCompetitor(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	var req model.Competitor
	if !s.decode(w, r, &req) {
		return
	}
	req.ID = id
	updated, err := s.competitors.UpdateCompetitor(r.Context(), &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCompetitor(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	if err := s.competitors.DeleteCompetitor(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Server) handleCompetitorByNumber(
	w http.ResponseWriter, r *http.Request, number string,
) {
	num, err := strconv.Atoi(number)
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	ret, err := s.competitors.GetCompetitorByNumber(r.Context(), num)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ret)
}
