//nolint:whitespace // can't make both editor and linter happy
package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/ohler55/ojg/oj"

	"github.com/trialslog/trial-score-manager-go/log"
	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/service"
)

type errorResponse struct {
	Reason           string   `json:"reason"`
	Message          string   `json:"message"`
	BlockingSections []string `json:"blockingSections,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(oj.JSON(data))); err != nil {
		s.logger.Error("could not write response", log.ErrorField(err))
	}
}

// respondError translates the service error taxonomy to HTTP. The reason
// field is stable and machine readable, clients switch on it.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var blocked *service.BlockedError
	var confErr *service.ConfigurationError
	switch {
	case errors.As(err, &blocked):
		s.respondJSON(w, http.StatusConflict, errorResponse{
			Reason:           "blocked",
			Message:          blocked.Error(),
			BlockingSections: blocked.BlockingSections,
		})
	case errors.Is(err, service.ErrDuplicateAttempt):
		s.respondJSON(w, http.StatusConflict, errorResponse{
			Reason: "duplicate", Message: err.Error(),
		})
	case errors.Is(err, service.ErrCourseComplete):
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Reason: "courseComplete", Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		s.respondJSON(w, http.StatusNotFound, errorResponse{
			Reason: "notFound", Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidOutcome):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Reason: "invalidOutcome", Message: err.Error(),
		})
	case errors.As(err, &confErr):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Reason: "invalidConfiguration", Message: confErr.Reason,
		})
	default:
		s.logger.Error("request failed", log.ErrorField(err))
		s.respondJSON(w, http.StatusInternalServerError, errorResponse{
			Reason: "internal", Message: "internal error",
		})
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = oj.Unmarshal(data, target)
	}
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Reason: "invalidRequest", Message: "invalid JSON body",
		})
		return false
	}
	return true
}

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.FromString(chi.URLParam(r, name))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	boards, err := s.score.GetStandings(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, boards)
}

func (s *Server) handleClassStandings(w http.ResponseWriter, r *http.Request) {
	classID, err := intParam(r, "classId")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	board, err := s.score.GetClassStandings(r.Context(), classID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, board)
}

type attemptRequest struct {
	CompetitorID int           `json:"competitorId"`
	SectionID    int           `json:"sectionId"`
	Outcome      model.Outcome `json:"outcome"`
}

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.score.SubmitAttempt(r.Context(),
		req.CompetitorID, req.SectionID, req.Outcome)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

// handleEvaluateAttempt is the dry run: what would happen if this attempt
// were submitted. Query parameters, no body, nothing is recorded.
func (s *Server) handleEvaluateAttempt(w http.ResponseWriter, r *http.Request) {
	competitorID, err := strconv.Atoi(r.URL.Query().Get("competitorId"))
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Reason: "invalidRequest", Message: "competitorId required",
		})
		return
	}
	sectionID, err := strconv.Atoi(r.URL.Query().Get("sectionId"))
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Reason: "invalidRequest", Message: "sectionId required",
		})
		return
	}
	res, err := s.score.EvaluateAttempt(r.Context(), competitorID, sectionID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.score.GetAttempts(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, attempts)
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	ret, err := s.score.GetAttempt(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ret)
}

func (s *Server) handleCorrectAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	var req struct {
		Outcome model.Outcome `json:"outcome"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	updated, err := s.score.CorrectAttempt(r.Context(), id, req.Outcome)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRemoveAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	if err := s.score.RemoveAttempt(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompetitorAttempts(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.respondError(w, service.ErrNotFound)
		return
	}
	attempts, err := s.score.GetCompetitorAttempts(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, attempts)
}

func (s *Server) handleResetAttempts(w http.ResponseWriter, r *http.Request) {
	num, err := s.admin.ResetAttempts(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"removed": num})
}

func (s *Server) handleResetEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.ResetEvent(r.Context()); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
