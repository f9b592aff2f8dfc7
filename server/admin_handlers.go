package server

import (
	"net/http"
)

// TeamListHandler returns the full roster. Admin-gated: the route
// composes RequireAuth then RequireAdmin.
func (s *Server) TeamListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Users.List(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("[TeamListHandler] list users")
			writeError(w, http.StatusInternalServerError, "Could not load the team list.")
			return
		}

		type teamMember struct {
			ID       string `json:"_id"`
			Name     string `json:"name"`
			Title    string `json:"title"`
			Role     string `json:"role"`
			Email    string `json:"email"`
			IsActive bool   `json:"isActive"`
		}

		team := make([]teamMember, 0, len(list))
		for _, user := range list {
			team = append(team, teamMember{
				ID:       user.ID,
				Name:     user.Name,
				Title:    user.Title,
				Role:     string(user.Role),
				Email:    user.Email,
				IsActive: user.IsActive,
			})
		}
		writeJSON(w, http.StatusOK, team)
	}
}

type activateRequest struct {
	IsActive bool `json:"isActive"`
}

// ActivateUserHandler flips an account's active flag.
func (s *Server) ActivateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var req activateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		if err := s.repos.Users.SetActive(r.Context(), id, req.IsActive); err != nil {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}

		message := "User account has been disabled"
		if req.IsActive {
			message = "User account has been activated"
		}
		writeJSON(w, http.StatusCreated, StatusResponse{Status: true, Message: message})
	}
}

// DeleteUserHandler removes an account from the roster.
func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if err := s.repos.Users.Delete(r.Context(), id); err != nil {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}

		writeJSON(w, http.StatusOK, StatusResponse{Status: true, Message: "User deleted successfully"})
	}
}
