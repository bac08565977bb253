package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"onestop/internal/platform/middleware"
	"onestop/internal/submission/models"
	"onestop/internal/submission/service"
	"onestop/internal/token"
	"onestop/internal/transport/http/shared"
	dErrors "onestop/pkg/domain-errors"
	"onestop/pkg/requestcontext"
)

// Service defines the submission operations the handler needs.
type Service interface {
	Create(ctx context.Context, input service.CreateInput) (*models.Submission, error)
	Open(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Approve(ctx context.Context, id uuid.UUID, department string) (*models.Submission, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Submission, error)
	Move(ctx context.Context, id uuid.UUID, target models.Status) (*models.Submission, error)
	ListMine(ctx context.Context) ([]*models.Submission, error)
	ListInbox(ctx context.Context) ([]*models.Submission, error)
	ListRouted(ctx context.Context, department string) ([]*models.Submission, error)
	Stats(ctx context.Context) (service.Stats, error)
}

// Drafter produces AI-drafted details text for a topic.
type Drafter interface {
	Draft(ctx context.Context, topic string) (string, error)
}

// Handler wires the citizen filing routes and the admin triage/work-queue
// routes.
type Handler struct {
	submissions Service
	drafter     Drafter
	logger      *slog.Logger
	validator   middleware.TokenValidator
}

func New(submissions Service, drafter Drafter, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{submissions: submissions, drafter: drafter, logger: logger, validator: validator}
}

// Register mounts the submission routes, role-gated per surface.
func (h *Handler) Register(r chi.Router) {
	r.Route("/citizen", func(cr chi.Router) {
		cr.Use(middleware.RequireRole(h.validator, token.RoleCitizen, h.logger))
		cr.Post("/submissions", h.handleCreate)
		cr.Get("/submissions", h.handleListMine)
		cr.Post("/submissions/draft", h.handleDraft)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.RequireRole(h.validator, token.RoleAdmin, h.logger))
		ar.Get("/submissions/inbox", h.handleInbox)
		ar.Get("/submissions/routed", h.handleRouted)
		ar.Post("/submissions/{id}/open", h.handleOpen)
		ar.Post("/submissions/{id}/approve", h.handleApprove)
		ar.Post("/submissions/{id}/reject", h.handleReject)
		ar.Post("/submissions/{id}/status", h.handleMove)
	})

	r.Route("/stats", func(sr chi.Router) {
		sr.Use(middleware.RequireRole(h.validator, token.RoleService, h.logger))
		sr.Get("/", h.handleStats)
	})
}

type createRequest struct {
	Title    string `json:"title"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Details  string `json:"details"`
	ImageRef string `json:"imageUrl,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := requestcontext.Actor(r.Context())
	phone := req.Phone
	if phone == "" {
		phone = actor.Phone
	}
	sub, err := h.submissions.Create(r.Context(), service.CreateInput{
		CitizenName:  actor.Name,
		CitizenPhone: phone,
		Title:        req.Title,
		Address:      req.Address,
		Details:      req.Details,
		ImageRef:     req.ImageRef,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"submission": sub})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.ListMine(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

type draftRequest struct {
	Topic string `json:"topic"`
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	text, err := h.drafter.Draft(r.Context(), req.Topic)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"details": text})
}

func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.ListInbox(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (h *Handler) handleRouted(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.ListRouted(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sub, err := h.submissions.Open(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

type approveRequest struct {
	Department string `json:"department"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sub, err := h.submissions.Approve(r.Context(), id, req.Department)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sub, err := h.submissions.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

type moveRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sub, err := h.submissions.Move(r.Context(), id, models.Status(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.submissions.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "submission request failed",
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
