package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"onestop/internal/identity/models"
	"onestop/internal/identity/service"
	"onestop/internal/platform/middleware"
	"onestop/internal/token"
	"onestop/internal/transport/http/shared"
	dErrors "onestop/pkg/domain-errors"
	"onestop/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
type Service interface {
	RequestAdminAccess(ctx context.Context, name, department string) (*service.AccessDecision, error)
	ApproveAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error)
	RejectAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error)
	DeleteAdmin(ctx context.Context, id uuid.UUID) error
	DeleteCitizen(ctx context.Context, id uuid.UUID) error
	LoginCitizen(ctx context.Context, fullName, phone string) (*service.CitizenLogin, error)
	LoginService(ctx context.Context, username, password string) (string, error)
	ListAdmins(ctx context.Context) ([]*models.AdminAccount, error)
	ListCitizens(ctx context.Context) ([]*models.CitizenSession, error)
}

// Handler wires the login endpoints and the service-manager registry routes.
type Handler struct {
	identity  Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(identity Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{identity: identity, logger: logger, validator: validator}
}

// Register mounts the identity routes. Login endpoints are public; the
// registry management routes require the SERVICE role.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/admin", h.handleAdminAccess)
	r.Post("/auth/citizen", h.handleCitizenLogin)
	r.Post("/auth/service", h.handleServiceLogin)

	r.Route("/service", func(sr chi.Router) {
		sr.Use(middleware.RequireRole(h.validator, token.RoleService, h.logger))
		sr.Get("/admins", h.handleListAdmins)
		sr.Post("/admins/{id}/approve", h.handleApproveAdmin)
		sr.Post("/admins/{id}/reject", h.handleRejectAdmin)
		sr.Delete("/admins/{id}", h.handleDeleteAdmin)
		sr.Get("/citizens", h.handleListCitizens)
		sr.Delete("/citizens/{id}", h.handleDeleteCitizen)
	})
}

type adminAccessRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

type adminAccessResponse struct {
	Outcome string               `json:"outcome"`
	Message string               `json:"message,omitempty"`
	Token   string               `json:"token,omitempty"`
	Account *models.AdminAccount `json:"account,omitempty"`
}

func (h *Handler) handleAdminAccess(w http.ResponseWriter, r *http.Request) {
	var req adminAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	decision, err := h.identity.RequestAdminAccess(r.Context(), req.Name, req.Department)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, adminAccessResponse{
		Outcome: string(decision.Outcome),
		Message: decision.Message,
		Token:   decision.Token,
		Account: decision.Account,
	})
}

type citizenLoginRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

func (h *Handler) handleCitizenLogin(w http.ResponseWriter, r *http.Request) {
	var req citizenLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	login, err := h.identity.LoginCitizen(r.Context(), req.FullName, req.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"token":   login.Token,
		"session": login.Session,
	})
}

type serviceLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleServiceLogin(w http.ResponseWriter, r *http.Request) {
	var req serviceLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	signed, err := h.identity.LoginService(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"token": signed})
}

func (h *Handler) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.identity.ListAdmins(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"admins": accounts})
}

func (h *Handler) handleApproveAdmin(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.identity.ApproveAdmin)
}

func (h *Handler) handleRejectAdmin(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.identity.RejectAdmin)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*models.AdminAccount, error)) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := op(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"account": account})
}

func (h *Handler) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.identity.DeleteAdmin(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCitizens(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.identity.ListCitizens(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"citizens": sessions})
}

func (h *Handler) handleDeleteCitizen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.identity.DeleteCitizen(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "identity request failed",
		"path", r.URL.Path,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	shared.WriteError(w, err)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	return id, nil
}
