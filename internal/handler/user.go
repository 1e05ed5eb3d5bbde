package handler

import (
	"net/http"

	"github.com/pkordes/carpool/internal/domain"
)

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body CreateUserRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	roles, err := domain.ParseRoles(body.Roles)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	created, err := s.users.Register(r.Context(), domain.User{Name: body.Name, Email: body.Email, Roles: roles})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(created))
}

// GetMe handles GET /users/me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	u, err := s.users.Get(r.Context(), p.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}

// GrantCredits handles POST /users/{userId}/credits. Admin only.
func (s *Server) GrantCredits(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userId")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body GrantCreditsRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	u, err := s.users.GrantCredits(r.Context(), p, userID, body.Amount)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}
