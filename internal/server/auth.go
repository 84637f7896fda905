package server

import (
	"encoding/json"
	"errors"
	"net/http"

	auditdomain "txdash/internal/audit/domain"
	userrepo "txdash/internal/user/repository"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin exchanges credentials for a signed access token. Wrong
// email and wrong password return the same 401.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, _, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.auditLog.Record(r.Context(), user.Email, user.Role, auditdomain.ActionLogin, "", "")
	respondJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// handleMe echoes the authenticated user for the client's bootstrap
// verification.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"user": userFrom(r.Context())})
}
