package httpapi

import (
	"net/http"

	appUser "github.com/event-market/event-market/internal/application/user"
	domainUser "github.com/event-market/event-market/internal/domain/user"
)

type userCreateRequest struct {
	Username string `json:"username" validate:"required,min=4,max=32"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=user organizer admin agent"`
	Type     string `json:"type" validate:"omitempty,oneof=HUMAN AGENT"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if !s.bind(w, r, &req) {
		return
	}
	u, err := s.userSvc.CreateUser(r.Context(), appUser.CreateInput{
		Username: req.Username,
		Password: req.Password,
		RoleName: req.Role,
		Type:     domainUser.Type(req.Type),
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, u)
}
