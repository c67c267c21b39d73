package httpapi

import (
	"errors"
	"net/http"
	"time"

	appAuth "github.com/event-market/event-market/internal/application/auth"
	appUser "github.com/event-market/event-market/internal/application/user"
	domainUser "github.com/event-market/event-market/internal/domain/user"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User      *domainUser.User `json:"user"`
	Role      string           `json:"role"`
	Token     string           `json:"token"`
	ExpiresAt string           `json:"expiresAt"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=4,max=32"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=user organizer"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.bind(w, r, &req) {
		return
	}
	res, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, appAuth.ErrInvalidCredentials) || errors.Is(err, appAuth.ErrUserDisabled) {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, loginResponse{
		User:      res.User,
		Role:      res.Role.Name,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Format(time.RFC3339),
	})
}

// register is the self-service signup for requesters and organizers. Other
// roles are provisioned by an admin.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.bind(w, r, &req) {
		return
	}
	u, err := s.userSvc.CreateUser(r.Context(), appUser.CreateInput{
		Username: req.Username,
		Password: req.Password,
		RoleName: req.Role,
		Type:     domainUser.TypeHuman,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, u)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := authUserFromContext(r.Context())
	if u == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
		return
	}
	user, err := s.userSvc.GetUser(r.Context(), u.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"user": user,
		"role": u.RoleName,
	})
}
