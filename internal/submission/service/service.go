package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"onestop/internal/audit"
	submissionmetrics "onestop/internal/submission/metrics"
	"onestop/internal/submission/models"
	dErrors "onestop/pkg/domain-errors"
	"onestop/pkg/platform/sentinel"
	"onestop/pkg/requestcontext"
)

// Store persists submissions. Implementations guard their own collection;
// legality of mutations is this service's job.
type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Submission) error, mutate func(*models.Submission)) (*models.Submission, error)
	ListByCitizenPhone(ctx context.Context, phone string) ([]*models.Submission, error)
	ListByDepartment(ctx context.Context, department string) ([]*models.Submission, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Submission, error)
	ListInbox(ctx context.Context) ([]*models.Submission, error)
	ListRouted(ctx context.Context, department string) ([]*models.Submission, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

// Committer persists the whole application snapshot after a mutation.
type Committer interface {
	Commit(ctx context.Context) error
}

// AuditPublisher records lifecycle decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the submission lifecycle engine: it owns which status moves are
// legal, which side fields they carry, and persists after every accepted
// mutation.
type Service struct {
	store   Store
	commit  Committer
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *submissionmetrics.Metrics
	tracer  trace.Tracer
}

func New(store Store, commit Committer, auditor AuditPublisher, logger *slog.Logger, m *submissionmetrics.Metrics) *Service {
	return &Service{
		store:   store,
		commit:  commit,
		auditor: auditor,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("onestop/submission"),
	}
}

// CreateInput carries the citizen-supplied fields for a new submission.
type CreateInput struct {
	CitizenName  string
	CitizenPhone string
	Title        string
	Address      string
	Details      string
	ImageRef     string
}

// Create files a new submission: fresh id, status NEW, unread.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create")
	defer span.End()

	sub, err := models.New(uuid.New(), input.CitizenName, input.CitizenPhone, input.Title, input.Address, input.Details, input.ImageRef, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create submission")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}

	s.metrics.Created.Inc()
	span.SetAttributes(attribute.String("submission.id", sub.ID.String()))
	s.emit(ctx, audit.Event{
		Actor:   sub.CitizenName,
		Role:    "CITIZEN",
		Action:  audit.ActionSubmissionCreated,
		Subject: sub.ID.String(),
	})
	s.logger.InfoContext(ctx, "submission created",
		"submission_id", sub.ID,
		"title", sub.Title,
	)
	return sub, nil
}

// Open returns the submission for the admin detail view, setting the read
// flag on first open. Re-opening is a no-op beyond re-display.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	firstRead := false
	sub, err := s.store.Execute(ctx, id,
		func(*models.Submission) error { return nil },
		func(sub *models.Submission) { firstRead = sub.MarkRead() },
	)
	if err != nil {
		return nil, s.translate(err, "failed to open submission")
	}
	if !firstRead {
		return sub, nil
	}

	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}
	s.emit(ctx, audit.Event{
		Actor:   requestcontext.Actor(ctx).Name,
		Role:    "ADMIN",
		Action:  audit.ActionSubmissionRead,
		Subject: id.String(),
	})
	return sub, nil
}

// Approve routes a NEW submission to a department (NEW → RECEIVED). Sets the
// assigned department and clears any prior rejection reason.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, department string) (*models.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "submission.approve",
		trace.WithAttributes(attribute.String("submission.department", department)))
	defer span.End()

	sub, err := s.store.Execute(ctx, id,
		func(sub *models.Submission) error { return sub.CanApprove(department) },
		func(sub *models.Submission) { sub.ApplyApproval(department) },
	)
	if err != nil {
		s.metrics.Refused.WithLabelValues("approve").Inc()
		return nil, s.translate(err, "failed to approve submission")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}

	s.metrics.Transitions.WithLabelValues(string(models.StatusReceived)).Inc()
	s.emit(ctx, audit.Event{
		Actor:    requestcontext.Actor(ctx).Name,
		Role:     "ADMIN",
		Action:   audit.ActionSubmissionApproved,
		Subject:  id.String(),
		Decision: department,
	})
	s.logger.InfoContext(ctx, "submission approved",
		"submission_id", id,
		"department", department,
	)
	return sub, nil
}

// Reject refuses a NEW submission (NEW → REJECTED). The reason is mandatory;
// an empty reason changes nothing and the caller is re-prompted.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "submission.reject")
	defer span.End()

	sub, err := s.store.Execute(ctx, id,
		func(sub *models.Submission) error { return sub.CanReject(reason) },
		func(sub *models.Submission) { sub.ApplyRejection(reason) },
	)
	if err != nil {
		s.metrics.Refused.WithLabelValues("reject").Inc()
		return nil, s.translate(err, "failed to reject submission")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}

	s.metrics.Transitions.WithLabelValues(string(models.StatusRejected)).Inc()
	s.emit(ctx, audit.Event{
		Actor:    requestcontext.Actor(ctx).Name,
		Role:     "ADMIN",
		Action:   audit.ActionSubmissionRejected,
		Subject:  id.String(),
		Reason:   reason,
		Decision: string(models.StatusRejected),
	})
	return sub, nil
}

// Move sets a routed status from the work-queue view. Free movement among
// RECEIVED/PENDING/SUCCESS; no side fields change.
func (s *Service) Move(ctx context.Context, id uuid.UUID, target models.Status) (*models.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "submission.move",
		trace.WithAttributes(attribute.String("submission.target", string(target))))
	defer span.End()

	sub, err := s.store.Execute(ctx, id,
		func(sub *models.Submission) error { return sub.CanMove(target) },
		func(sub *models.Submission) { sub.ApplyMove(target) },
	)
	if err != nil {
		s.metrics.Refused.WithLabelValues("move").Inc()
		return nil, s.translate(err, "failed to move submission")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}

	s.metrics.Transitions.WithLabelValues(string(target)).Inc()
	s.emit(ctx, audit.Event{
		Actor:    requestcontext.Actor(ctx).Name,
		Role:     "ADMIN",
		Action:   audit.ActionSubmissionMoved,
		Subject:  id.String(),
		Decision: string(target),
	})
	return sub, nil
}

// ListMine returns the submissions filed under the actor's phone for the
// citizen history view.
func (s *Service) ListMine(ctx context.Context) ([]*models.Submission, error) {
	phone := requestcontext.Actor(ctx).Phone
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeForbidden, "no citizen phone on session")
	}
	return s.ListByCitizenPhone(ctx, phone)
}

// ListByCitizenPhone is a pure filtered view.
func (s *Service) ListByCitizenPhone(ctx context.Context, phone string) ([]*models.Submission, error) {
	subs, err := s.store.ListByCitizenPhone(ctx, phone)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

// ListByDepartment is a pure filtered view.
func (s *Service) ListByDepartment(ctx context.Context, department string) ([]*models.Submission, error) {
	subs, err := s.store.ListByDepartment(ctx, department)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

// ListByStatus is a pure filtered view.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]*models.Submission, error) {
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status")
	}
	subs, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

// ListInbox returns the admin triage inbox (NEW plus REJECTED).
func (s *Service) ListInbox(ctx context.Context) ([]*models.Submission, error) {
	subs, err := s.store.ListInbox(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inbox")
	}
	return subs, nil
}

// ListRouted returns the department work queue, optionally filtered.
func (s *Service) ListRouted(ctx context.Context, department string) ([]*models.Submission, error) {
	if department != "" && !models.ValidDepartment(department) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown department")
	}
	subs, err := s.store.ListRouted(ctx, department)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list work queue")
	}
	return subs, nil
}

// Stats summarizes the portal for the dashboard header: total submissions,
// in-flight (RECEIVED plus PENDING) and resolved (SUCCESS).
type Stats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Success int `json:"success"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count submissions")
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return Stats{
		Total:   total,
		Pending: counts[models.StatusReceived] + counts[models.StatusPending],
		Success: counts[models.StatusSuccess],
	}, nil
}

func (s *Service) translate(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
