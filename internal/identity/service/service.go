package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"onestop/internal/audit"
	identitymetrics "onestop/internal/identity/metrics"
	"onestop/internal/identity/models"
	"onestop/internal/token"
	dErrors "onestop/pkg/domain-errors"
	"onestop/pkg/platform/sentinel"
	"onestop/pkg/requestcontext"
)

// AdminStore persists admin accounts.
type AdminStore interface {
	Create(ctx context.Context, account *models.AdminAccount) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error)
	FindByPair(ctx context.Context, name, department string) (*models.AdminAccount, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.AdminAccount) error, mutate func(*models.AdminAccount)) (*models.AdminAccount, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.AdminAccount, error)
}

// CitizenStore persists citizen session records.
type CitizenStore interface {
	Create(ctx context.Context, session *models.CitizenSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.CitizenSession, error)
}

// Committer persists the whole application snapshot after a mutation.
type Committer interface {
	Commit(ctx context.Context) error
}

// TokenIssuer signs access tokens for authenticated actors.
type TokenIssuer interface {
	Issue(role token.Role, subject string, claims token.Claims) (string, error)
}

// AuditPublisher records identity decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ServiceCredentials is the static service-manager credential pair. There is
// deliberately no credential store for this role.
type ServiceCredentials struct {
	Username string
	Password string
}

// AccessOutcome classifies the result of an admin login attempt.
type AccessOutcome string

const (
	AccessApproved AccessOutcome = "APPROVED"
	AccessPending  AccessOutcome = "PENDING"
	AccessRejected AccessOutcome = "REJECTED"
	AccessCreated  AccessOutcome = "CREATED"
)

// User-facing outcome messages, kept verbatim from the portal UI.
const (
	msgRejected = "ขออภัย การเข้าสู่ระบบของคุณถูกปฏิเสธ"
	msgPending  = "รอการอนุมัติจากผู้ดูแล Service..."
	msgCreated  = "ส่งคำขอเข้าสู่ระบบแล้ว กรุณารอ Service อนุมัติ"
	msgBadCreds = "รหัสผ่านไม่ถูกต้อง"
)

// AccessDecision is what an admin login attempt resolves to. Token is only
// set on AccessApproved.
type AccessDecision struct {
	Outcome AccessOutcome
	Message string
	Account *models.AdminAccount
	Token   string
}

// Service is the identity registry: admin accounts, citizen sessions and the
// static service-manager credential.
type Service struct {
	admins   AdminStore
	citizens CitizenStore
	commit   Committer
	tokens   TokenIssuer
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *identitymetrics.Metrics
	creds    ServiceCredentials
}

func New(admins AdminStore, citizens CitizenStore, commit Committer, tokens TokenIssuer, auditor AuditPublisher, logger *slog.Logger, m *identitymetrics.Metrics, creds ServiceCredentials) *Service {
	return &Service{
		admins:   admins,
		citizens: citizens,
		commit:   commit,
		tokens:   tokens,
		auditor:  auditor,
		logger:   logger,
		metrics:  m,
		creds:    creds,
	}
}

// RequestAdminAccess resolves an admin login attempt against the registry.
// Lookup precedes creation so the (name, department) pair is never
// duplicated: an existing account resolves to its status, an unknown pair
// creates a PENDING account.
func (s *Service) RequestAdminAccess(ctx context.Context, name, department string) (*AccessDecision, error) {
	name = strings.TrimSpace(name)
	department = strings.TrimSpace(department)
	if name == "" || department == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name and department are required")
	}

	account, err := s.admins.FindByPair(ctx, name, department)
	switch {
	case err == nil:
		return s.resolveExisting(ctx, account)
	case errors.Is(err, sentinel.ErrNotFound):
		return s.createPending(ctx, name, department)
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "admin lookup failed")
	}
}

func (s *Service) resolveExisting(ctx context.Context, account *models.AdminAccount) (*AccessDecision, error) {
	switch account.Status {
	case models.AdminStatusApproved:
		signed, err := s.tokens.Issue(token.RoleAdmin, account.ID.String(), token.Claims{
			Name:       account.Name,
			Department: account.Department,
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
		}
		s.metrics.Logins.WithLabelValues("admin", "approved").Inc()
		s.emit(ctx, audit.Event{
			Actor:    account.Name,
			Role:     string(token.RoleAdmin),
			Action:   audit.ActionAdminAccessRequested,
			Subject:  account.ID.String(),
			Decision: string(AccessApproved),
		})
		return &AccessDecision{Outcome: AccessApproved, Account: account, Token: signed}, nil
	case models.AdminStatusRejected:
		s.metrics.Logins.WithLabelValues("admin", "rejected").Inc()
		return &AccessDecision{Outcome: AccessRejected, Message: msgRejected, Account: account}, nil
	default:
		s.metrics.Logins.WithLabelValues("admin", "pending").Inc()
		return &AccessDecision{Outcome: AccessPending, Message: msgPending, Account: account}, nil
	}
}

func (s *Service) createPending(ctx context.Context, name, department string) (*AccessDecision, error) {
	account := models.NewAdminAccount(uuid.New(), name, department, requestcontext.Now(ctx))
	if err := s.admins.Create(ctx, account); err != nil {
		// A concurrent identical attempt may have created the pair between
		// lookup and create; resolve it as an existing account.
		if errors.Is(err, sentinel.ErrConflict) {
			existing, findErr := s.admins.FindByPair(ctx, name, department)
			if findErr == nil {
				return s.resolveExisting(ctx, existing)
			}
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin request")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}

	s.metrics.AdminRequests.Inc()
	s.emit(ctx, audit.Event{
		Actor:    name,
		Role:     string(token.RoleAdmin),
		Action:   audit.ActionAdminAccessRequested,
		Subject:  account.ID.String(),
		Decision: string(AccessCreated),
	})
	s.logger.InfoContext(ctx, "admin access requested",
		"admin_id", account.ID,
		"department", department,
	)
	return &AccessDecision{Outcome: AccessCreated, Message: msgCreated, Account: account}, nil
}

// ApproveAdmin sets the account status to APPROVED. The override of a
// non-pending account is permitted and audited.
func (s *Service) ApproveAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	return s.decide(ctx, id, models.AdminStatusApproved, audit.ActionAdminApproved)
}

// RejectAdmin sets the account status to REJECTED.
func (s *Service) RejectAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	return s.decide(ctx, id, models.AdminStatusRejected, audit.ActionAdminRejected)
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, status models.AdminStatus, action string) (*models.AdminAccount, error) {
	var previous models.AdminStatus
	account, err := s.admins.Execute(ctx, id,
		func(a *models.AdminAccount) error {
			previous = a.Status
			return nil
		},
		func(a *models.AdminAccount) {
			a.Status = status
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admin account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update admin account")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}

	if previous != models.AdminStatusPending {
		s.logger.WarnContext(ctx, "admin status overridden from non-pending state",
			"admin_id", id,
			"previous", string(previous),
			"status", string(status),
		)
	}
	s.metrics.AdminDecisions.WithLabelValues(string(status)).Inc()
	s.emit(ctx, audit.Event{
		Actor:    requestcontext.Actor(ctx).Name,
		Role:     string(token.RoleService),
		Action:   action,
		Subject:  id.String(),
		Decision: string(status),
		Reason:   "previous=" + string(previous),
	})
	return account, nil
}

// DeleteAdmin removes the account. Irreversible.
func (s *Service) DeleteAdmin(ctx context.Context, id uuid.UUID) error {
	if err := s.admins.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "admin account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete admin account")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}
	s.emit(ctx, audit.Event{
		Role:    string(token.RoleService),
		Action:  audit.ActionAdminDeleted,
		Subject: id.String(),
	})
	return nil
}

// DeleteCitizen removes a citizen session record. Irreversible.
func (s *Service) DeleteCitizen(ctx context.Context, id uuid.UUID) error {
	if err := s.citizens.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "citizen session not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete citizen session")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}
	s.emit(ctx, audit.Event{
		Role:    string(token.RoleService),
		Action:  audit.ActionCitizenDeleted,
		Subject: id.String(),
	})
	return nil
}

// CitizenLogin is the session record plus its access token.
type CitizenLogin struct {
	Session *models.CitizenSession
	Token   string
}

// LoginCitizen always creates a new session record; there is no dedup by
// phone. The device label comes from the request User-Agent.
func (s *Service) LoginCitizen(ctx context.Context, fullName, phone string) (*CitizenLogin, error) {
	fullName = strings.TrimSpace(fullName)
	phone = strings.TrimSpace(phone)
	if fullName == "" || phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "full name and phone are required")
	}

	session := models.NewCitizenSession(uuid.New(), fullName, phone, deviceLabel(requestcontext.UserAgent(ctx)), requestcontext.Now(ctx))
	if err := s.citizens.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create citizen session")
	}
	if err := s.commit.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist state")
	}

	signed, err := s.tokens.Issue(token.RoleCitizen, session.ID.String(), token.Claims{
		Name:  fullName,
		Phone: phone,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.Logins.WithLabelValues("citizen", "ok").Inc()
	s.emit(ctx, audit.Event{
		Actor:   fullName,
		Role:    string(token.RoleCitizen),
		Action:  audit.ActionCitizenLogin,
		Subject: session.ID.String(),
	})
	return &CitizenLogin{Session: session, Token: signed}, nil
}

// LoginService checks the static credential pair and issues a service token
// on an exact match. No lockout, no rate limiting.
func (s *Service) LoginService(ctx context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) == 1
	if !userOK || !passOK {
		s.metrics.Logins.WithLabelValues("service", "denied").Inc()
		s.emit(ctx, audit.Event{
			Actor:    username,
			Role:     string(token.RoleService),
			Action:   audit.ActionServiceLogin,
			Decision: "denied",
		})
		return "", dErrors.New(dErrors.CodeUnauthorized, msgBadCreds)
	}

	signed, err := s.tokens.Issue(token.RoleService, s.creds.Username, token.Claims{Name: "Service Manager"})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	s.metrics.Logins.WithLabelValues("service", "ok").Inc()
	s.emit(ctx, audit.Event{
		Actor:    username,
		Role:     string(token.RoleService),
		Action:   audit.ActionServiceLogin,
		Decision: "ok",
	})
	return signed, nil
}

// ListAdmins returns every admin account for the service dashboard.
func (s *Service) ListAdmins(ctx context.Context) ([]*models.AdminAccount, error) {
	accounts, err := s.admins.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admin accounts")
	}
	return accounts, nil
}

// ListCitizens returns every citizen session for the service dashboard.
func (s *Service) ListCitizens(ctx context.Context) ([]*models.CitizenSession, error) {
	sessions, err := s.citizens.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list citizen sessions")
	}
	return sessions, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// deviceLabel condenses a User-Agent into "Browser x.y (OS)". Empty input
// yields an empty label.
func deviceLabel(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	label := strings.TrimSpace(name + " " + version)
	if os := parsed.OS(); os != "" {
		label = strings.TrimSpace(label + " (" + os + ")")
	}
	return label
}
