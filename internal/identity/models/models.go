package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminStatus is the approval state of an admin account.
type AdminStatus string

const (
	AdminStatusPending  AdminStatus = "PENDING"
	AdminStatusApproved AdminStatus = "APPROVED"
	AdminStatusRejected AdminStatus = "REJECTED"
)

// Valid reports whether s is one of the known admin statuses.
func (s AdminStatus) Valid() bool {
	switch s {
	case AdminStatusPending, AdminStatusApproved, AdminStatusRejected:
		return true
	}
	return false
}

// AdminAccount is a departmental staff account. Created on the first login
// attempt by an unrecognized (name, department) pair; only the service
// manager mutates it afterwards.
//
// Invariants:
//   - (Name, Department) identifies the account for login matching; lookup
//     precedes creation so the pair is never duplicated
//   - a fresh account starts PENDING
//
// The service manager may overwrite any status with any other, including
// re-approving a previously rejected account. That override is deliberate
// and audited rather than guarded.
type AdminAccount struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Department  string      `json:"department"`
	Status      AdminStatus `json:"status"`
	RequestedAt time.Time   `json:"requestedAt"`
}

// Matches reports whether the account belongs to the exact (name, department)
// pair used at login.
func (a *AdminAccount) Matches(name, department string) bool {
	return a.Name == name && a.Department == department
}

// NewAdminAccount creates a pending account for the pair.
func NewAdminAccount(id uuid.UUID, name, department string, now time.Time) *AdminAccount {
	return &AdminAccount{
		ID:          id,
		Name:        name,
		Department:  department,
		Status:      AdminStatusPending,
		RequestedAt: now,
	}
}

// CitizenSession records one citizen login. Sessions are append-only: every
// login creates a new record, and only the service manager deletes them.
type CitizenSession struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Phone    string    `json:"phone"`
	LoginAt  time.Time `json:"loginTime"`
	// Device is a human-readable browser/OS label parsed from the client
	// User-Agent, for the usage overview.
	Device string `json:"device,omitempty"`
}

func NewCitizenSession(id uuid.UUID, fullName, phone, device string, now time.Time) *CitizenSession {
	return &CitizenSession{
		ID:       id,
		FullName: fullName,
		Phone:    phone,
		LoginAt:  now,
		Device:   device,
	}
}
