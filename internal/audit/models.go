package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Actions recorded by the portal.
const (
	ActionAdminAccessRequested = "admin.access_requested"
	ActionAdminApproved        = "admin.approved"
	ActionAdminRejected        = "admin.rejected"
	ActionAdminDeleted         = "admin.deleted"
	ActionCitizenLogin         = "citizen.login"
	ActionCitizenDeleted       = "citizen.deleted"
	ActionServiceLogin         = "service.login"
	ActionSubmissionCreated    = "submission.created"
	ActionSubmissionRead       = "submission.read"
	ActionSubmissionApproved   = "submission.approved"
	ActionSubmissionRejected   = "submission.rejected"
	ActionSubmissionMoved      = "submission.moved"
)
