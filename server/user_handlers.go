package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/go-task-server/internal/metrics"
	"github.com/taskhub/go-task-server/internal/utils"
	"github.com/taskhub/go-task-server/users"
)

type registerRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Title    string         `json:"title"`
	Role     users.RoleType `json:"role"`
}

type registerResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	User    *users.User `json:"user"`
}

// RegisterHandler creates a new account. Accounts start inactive and
// non-admin; an administrator activates them before first login.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		if fieldErrs := validateRegistration(req); len(fieldErrs) > 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  false,
				"message": "Please check the information you entered.",
				"errors":  fieldErrs,
			})
			return
		}

		if _, err := s.repos.Users.GetByEmail(r.Context(), req.Email); err == nil {
			writeError(w, http.StatusBadRequest, "This email address is already in use.")
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			s.log.Error().Err(err).Msg("[RegisterHandler] hash password")
			writeError(w, http.StatusInternalServerError, "Registration failed. Try again later.")
			return
		}

		user := &users.User{
			Name:         req.Name,
			Email:        req.Email,
			Title:        req.Title,
			Role:         req.Role,
			IsAdmin:      false,
			IsActive:     false, // Inactive until approved
			PasswordHash: hash,
			CreatedAt:    time.Now(),
		}

		if err := s.repos.Users.Upsert(r.Context(), user); err != nil {
			s.log.Error().Err(err).Msg("[RegisterHandler] upsert user")
			writeError(w, http.StatusInternalServerError, "Registration failed. Try again later.")
			return
		}

		writeJSON(w, http.StatusCreated, registerResponse{
			Status:  true,
			Message: "Account created successfully. You can log in after admin approval.",
			User:    user.Sanitized(),
		})
	}
}

func validateRegistration(req registerRequest) map[string]string {
	fieldErrs := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fieldErrs["name"] = "name is required"
	}
	if !strings.Contains(req.Email, "@") {
		fieldErrs["email"] = "a valid email is required"
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		fieldErrs["password"] = err.Error()
	}
	if !req.Role.Valid() {
		fieldErrs["role"] = "role must be one of user, developer, teamLead, admin"
	}
	return fieldErrs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status    bool           `json:"status"`
	Message   string         `json:"message"`
	Token     string         `json:"token"`
	UserID    string         `json:"userId"`
	Role      users.RoleType `json:"role"`
	SessionID string         `json:"sessionId"`
}

// LoginHandler checks credentials and issues a session token. Unknown
// accounts and bad passwords produce the same message.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		user, err := s.repos.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}

		if !user.IsActive {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			writeError(w, http.StatusUnauthorized, "Your account is not active yet. Please wait for admin approval.")
			return
		}

		if !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}

		sessionID := uuid.New().String()
		signed, err := s.tokens.Create(user, sessionID)
		if err != nil {
			s.log.Error().Err(err).Msg("[LoginHandler] sign token")
			writeError(w, http.StatusInternalServerError, "Login failed. Try again later.")
			return
		}

		s.setTokenCookie(w, r, signed)
		metrics.LoginsTotal.WithLabelValues("success").Inc()

		writeJSON(w, http.StatusOK, loginResponse{
			Status:    true,
			Message:   "Login successful",
			Token:     signed,
			UserID:    user.ID,
			Role:      user.Role,
			SessionID: sessionID,
		})
	}
}

// LogoutHandler expires the token cookie. Client-side session teardown
// happens independently; this endpoint exists so cookie-based clients
// lose their credential too.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     s.config.GetCookieName(),
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Expires:  time.Unix(0, 0),
		})
		writeJSON(w, http.StatusOK, StatusResponse{Status: true, Message: "Logout successful"})
	}
}

func (s *Server) setTokenCookie(w http.ResponseWriter, r *http.Request, signed string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetCookieName(),
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetCookieSecure() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.config.GetTokenExpiry()),
	})
}

// ProfileHandler returns the authenticated user's profile sans password.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, notAuthorizedMsg)
			return
		}

		user, err := s.repos.Users.GetByID(r.Context(), identity.UserID)
		if err != nil {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}

		writeJSON(w, http.StatusOK, user.Sanitized())
	}
}

// updateProfileRequest uses pointers so an omitted field is
// distinguishable from an explicit empty value.
type updateProfileRequest struct {
	Name  *string         `json:"name"`
	Title *string         `json:"title"`
	Role  *users.RoleType `json:"role"`
}

// UpdateProfileHandler updates name/title/role. With a path ID it edits
// that user, otherwise the caller's own profile.
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, notAuthorizedMsg)
			return
		}

		targetID := r.PathValue("id")
		if targetID == "" {
			targetID = identity.UserID
		}

		var req updateProfileRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if req.Role != nil && !utils.Value(req.Role).Valid() {
			writeError(w, http.StatusBadRequest, "Unknown role.")
			return
		}

		user, err := s.repos.Users.GetByID(r.Context(), targetID)
		if err != nil {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}

		if req.Name != nil {
			user.Name = utils.Value(req.Name)
		}
		if req.Title != nil {
			user.Title = utils.Value(req.Title)
		}
		if req.Role != nil {
			user.Role = utils.Value(req.Role)
		}
		user.UpdatedAt = time.Now()

		if err := s.repos.Users.Upsert(r.Context(), user); err != nil {
			s.log.Error().Err(err).Msg("[UpdateProfileHandler] upsert user")
			writeError(w, http.StatusInternalServerError, "Update failed. Try again later.")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  true,
			"message": "Profile updated successfully",
			"user":    user.Sanitized(),
		})
	}
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// ChangePasswordHandler replaces the caller's password.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, notAuthorizedMsg)
			return
		}

		var req changePasswordRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		user, err := s.repos.Users.GetByID(r.Context(), identity.UserID)
		if err != nil {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			s.log.Error().Err(err).Msg("[ChangePasswordHandler] hash password")
			writeError(w, http.StatusInternalServerError, "Password change failed. Try again later.")
			return
		}
		user.PasswordHash = hash
		user.UpdatedAt = time.Now()

		if err := s.repos.Users.Upsert(r.Context(), user); err != nil {
			s.log.Error().Err(err).Msg("[ChangePasswordHandler] upsert user")
			writeError(w, http.StatusInternalServerError, "Password change failed. Try again later.")
			return
		}

		writeJSON(w, http.StatusCreated, StatusResponse{Status: true, Message: "Password changed successfully."})
	}
}
