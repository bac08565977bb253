package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "onestop/pkg/domain-errors"
)

// Status is the lifecycle state of a submission.
//
// The citizen-visible flow is NEW → RECEIVED → PENDING → SUCCESS, with
// NEW → REJECTED as the refusal branch. REJECTED and SUCCESS are terminal in
// that flow, but admins may move a routed submission freely among RECEIVED,
// PENDING and SUCCESS from the work-queue view. That backward movement is a
// deliberate operator-override capability, gated on the admin role.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusReceived Status = "RECEIVED"
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusReceived, StatusPending, StatusSuccess, StatusRejected:
		return true
	}
	return false
}

// Routed reports whether the submission has been accepted into a department
// work queue.
func (s Status) Routed() bool {
	switch s {
	case StatusReceived, StatusPending, StatusSuccess:
		return true
	}
	return false
}

// CanTransitionTo encodes the legal status moves:
//   - NEW → RECEIVED or REJECTED (triage decision)
//   - free movement among RECEIVED/PENDING/SUCCESS (work queue)
//   - nothing leaves REJECTED
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusNew:
		return target == StatusReceived || target == StatusRejected
	case StatusReceived, StatusPending, StatusSuccess:
		return target.Routed()
	default:
		return false
	}
}

// Departments is the fixed set of municipal offices a submission can be
// routed to.
var Departments = []string{
	"ประชาสัมพันธ์",
	"กองช่าง",
	"สาธารณสุข",
	"สำนักงานปลัด",
	"กองการศึกษา",
	"ไฟฟ้า",
}

// ValidDepartment reports whether d is one of the fixed municipal offices.
func ValidDepartment(d string) bool {
	for _, dept := range Departments {
		if dept == d {
			return true
		}
	}
	return false
}

// Submission is a citizen-filed service request tracked through the status
// lifecycle. Citizens only create; admins only transition status, assignment
// and the read flag. Submissions are never deleted.
//
// Invariant: AssignedDepartment and RejectionReason are mutually exclusive.
// Approval sets the department and clears any prior rejection reason;
// rejection sets the reason and never a department.
type Submission struct {
	ID                 uuid.UUID `json:"id"`
	CitizenName        string    `json:"citizenName"`
	CitizenPhone       string    `json:"citizenPhone"`
	Title              string    `json:"title"`
	Address            string    `json:"address"`
	Details            string    `json:"details"`
	ImageRef           string    `json:"imageUrl,omitempty"`
	Date               time.Time `json:"date"`
	Status             Status    `json:"status"`
	AssignedDepartment string    `json:"assignedDepartment,omitempty"`
	RejectionReason    string    `json:"rejectionReason,omitempty"`
	IsReadByAdmin      bool      `json:"isReadByAdmin"`
}

// New creates a fresh submission: status NEW, unread.
func New(id uuid.UUID, citizenName, citizenPhone, title, address, details, imageRef string, date time.Time) (*Submission, error) {
	if strings.TrimSpace(citizenName) == "" || strings.TrimSpace(citizenPhone) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "citizen name and phone are required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if strings.TrimSpace(address) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	return &Submission{
		ID:            id,
		CitizenName:   citizenName,
		CitizenPhone:  citizenPhone,
		Title:         title,
		Address:       address,
		Details:       details,
		ImageRef:      imageRef,
		Date:          date,
		Status:        StatusNew,
		IsReadByAdmin: false,
	}, nil
}

// CanApprove checks the NEW → RECEIVED transition with the chosen department.
func (s *Submission) CanApprove(department string) error {
	if !ValidDepartment(department) {
		return dErrors.New(dErrors.CodeBadRequest, "unknown department")
	}
	if !s.Status.CanTransitionTo(StatusReceived) {
		return dErrors.New(dErrors.CodeConflict, "submission cannot be approved from status "+string(s.Status))
	}
	return nil
}

// ApplyApproval routes the submission to a department. Clears any prior
// rejection reason so the exclusivity invariant holds after a re-triage.
func (s *Submission) ApplyApproval(department string) {
	s.Status = StatusReceived
	s.AssignedDepartment = department
	s.RejectionReason = ""
}

// CanReject checks the NEW → REJECTED transition. An empty reason is a
// validation error and must leave the submission untouched.
func (s *Submission) CanReject(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
	}
	if !s.Status.CanTransitionTo(StatusRejected) {
		return dErrors.New(dErrors.CodeConflict, "submission cannot be rejected from status "+string(s.Status))
	}
	return nil
}

// ApplyRejection refuses the submission with the mandatory reason.
func (s *Submission) ApplyRejection(reason string) {
	s.Status = StatusRejected
	s.RejectionReason = reason
}

// CanMove checks a work-queue move among the routed statuses.
func (s *Submission) CanMove(target Status) error {
	if !target.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown status")
	}
	if !s.Status.CanTransitionTo(target) || !target.Routed() {
		return dErrors.New(dErrors.CodeConflict, "submission cannot move from "+string(s.Status)+" to "+string(target))
	}
	return nil
}

// ApplyMove sets a routed status. No side fields change.
func (s *Submission) ApplyMove(target Status) {
	s.Status = target
}

// MarkRead sets the read flag. Idempotent: returns true only on the first
// read, and never touches any other field.
func (s *Submission) MarkRead() bool {
	if s.IsReadByAdmin {
		return false
	}
	s.IsReadByAdmin = true
	return true
}
