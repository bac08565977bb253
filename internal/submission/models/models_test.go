package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dErrors "onestop/pkg/domain-errors"
)

func newTestSubmission(t *testing.T) *Submission {
	t.Helper()
	sub, err := New(uuid.New(), "สมชาย ใจดี", "0811111111", "ท่อประปาแตก", "123 หมู่ 4", "น้ำรั่วบริเวณหน้าบ้าน", "", time.Now())
	require.NoError(t, err)
	return sub
}

func TestNewSubmissionDefaults(t *testing.T) {
	sub := newTestSubmission(t)
	require.Equal(t, StatusNew, sub.Status)
	require.False(t, sub.IsReadByAdmin)
	require.Empty(t, sub.AssignedDepartment)
	require.Empty(t, sub.RejectionReason)
	require.NotEqual(t, uuid.Nil, sub.ID)
}

func TestNewSubmissionValidation(t *testing.T) {
	cases := []struct {
		name    string
		citizen string
		phone   string
		title   string
		address string
	}{
		{"missing citizen name", "", "0811111111", "title", "addr"},
		{"missing phone", "name", "", "title", "addr"},
		{"missing title", "name", "0811111111", "", "addr"},
		{"missing address", "name", "0811111111", "title", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(uuid.New(), tc.citizen, tc.phone, tc.title, tc.address, "", "", time.Now())
			require.Error(t, err)
			require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusNew, StatusReceived, true},
		{StatusNew, StatusRejected, true},
		{StatusNew, StatusPending, false},
		{StatusNew, StatusSuccess, false},
		{StatusReceived, StatusPending, true},
		{StatusReceived, StatusSuccess, true},
		{StatusReceived, StatusReceived, true},
		{StatusPending, StatusReceived, true},
		{StatusPending, StatusSuccess, true},
		{StatusSuccess, StatusPending, true},
		{StatusSuccess, StatusReceived, true},
		{StatusReceived, StatusRejected, false},
		{StatusPending, StatusRejected, false},
		{StatusSuccess, StatusNew, false},
		{StatusRejected, StatusReceived, false},
		{StatusRejected, StatusNew, false},
		{StatusRejected, StatusSuccess, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestApprovalSetsDepartmentAndClearsReason(t *testing.T) {
	sub := newTestSubmission(t)
	// A prior rejection cycle may have left a reason behind.
	sub.RejectionReason = "ข้อมูลไม่ครบ"

	require.NoError(t, sub.CanApprove("กองช่าง"))
	sub.ApplyApproval("กองช่าง")

	require.Equal(t, StatusReceived, sub.Status)
	require.Equal(t, "กองช่าง", sub.AssignedDepartment)
	require.Empty(t, sub.RejectionReason)
}

func TestApproveRequiresKnownDepartment(t *testing.T) {
	sub := newTestSubmission(t)
	err := sub.CanApprove("กองที่ไม่มีอยู่จริง")
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestRejectWithoutReasonChangesNothing(t *testing.T) {
	sub := newTestSubmission(t)
	before := *sub

	err := sub.CanReject("")
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	require.Equal(t, before, *sub)

	err = sub.CanReject("   ")
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	require.Equal(t, before, *sub)
}

func TestRejectionSetsReason(t *testing.T) {
	sub := newTestSubmission(t)
	require.NoError(t, sub.CanReject("ข้อมูลไม่ครบ"))
	sub.ApplyRejection("ข้อมูลไม่ครบ")

	require.Equal(t, StatusRejected, sub.Status)
	require.Equal(t, "ข้อมูลไม่ครบ", sub.RejectionReason)
	require.Empty(t, sub.AssignedDepartment)
}

func TestMoveStaysInsideRoutedSet(t *testing.T) {
	sub := newTestSubmission(t)
	sub.ApplyApproval("ไฟฟ้า")

	require.NoError(t, sub.CanMove(StatusPending))
	sub.ApplyMove(StatusPending)
	require.Equal(t, StatusPending, sub.Status)

	require.NoError(t, sub.CanMove(StatusSuccess))
	sub.ApplyMove(StatusSuccess)

	// Operator override: moving back down the queue is allowed.
	require.NoError(t, sub.CanMove(StatusReceived))

	// But never out of the routed set.
	err := sub.CanMove(StatusNew)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestMoveRefusedFromNew(t *testing.T) {
	sub := newTestSubmission(t)
	err := sub.CanMove(StatusPending)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestMarkReadIdempotent(t *testing.T) {
	sub := newTestSubmission(t)
	require.True(t, sub.MarkRead())
	require.True(t, sub.IsReadByAdmin)

	before := *sub
	require.False(t, sub.MarkRead())
	require.Equal(t, before, *sub)
}

func TestValidDepartment(t *testing.T) {
	for _, d := range Departments {
		require.True(t, ValidDepartment(d))
	}
	require.False(t, ValidDepartment("บัญชี"))
	require.False(t, ValidDepartment(""))
}
