package web

import (
	"net/http"
	"strings"
)

// requireJudge guards the scoring endpoints. The admin token is accepted
// too, so a race office terminal can act as a judge.
func (s *Server) requireJudge(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r, s.judgeToken, s.adminToken) {
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{
				Reason: "unauthorized", Message: "judge token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r, s.adminToken) {
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{
				Reason: "unauthorized", Message: "admin token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized checks the bearer token against the accepted secrets.
// No configured secret means the surface is open (local development).
func (s *Server) authorized(r *http.Request, tokens ...string) bool {
	configured := false
	presented := bearerToken(r)
	for _, token := range tokens {
		if token == "" {
			continue
		}
		configured = true
		if presented == token {
			return true
		}
	}
	return !configured
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
