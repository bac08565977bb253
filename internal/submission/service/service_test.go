package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"onestop/internal/audit"
	submissionmetrics "onestop/internal/submission/metrics"
	"onestop/internal/submission/models"
	"onestop/internal/submission/store"
	dErrors "onestop/pkg/domain-errors"
	"onestop/pkg/requestcontext"
)

type countingCommitter struct {
	commits int
}

func (c *countingCommitter) Commit(context.Context) error {
	c.commits++
	return nil
}

type fixture struct {
	svc     *Service
	commits *countingCommitter
	sink    *audit.MemorySink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	commits := &countingCommitter{}
	sink := audit.NewMemorySink()
	svc := New(store.New(), commits, audit.NewPublisher(sink), slog.New(slog.DiscardHandler), submissionmetrics.New())
	return &fixture{svc: svc, commits: commits, sink: sink}
}

func adminCtx(name string) context.Context {
	return requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{
		Role: "ADMIN",
		Name: name,
	})
}

func TestCreateFilesNewSubmission(t *testing.T) {
	f := newFixture(t)
	filed := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), filed)

	sub, err := f.svc.Create(ctx, CreateInput{
		CitizenName:  "สมชาย ใจดี",
		CitizenPhone: "0811111111",
		Title:        "ท่อประปาแตก",
		Address:      "123 หมู่ 4",
		Details:      "น้ำรั่วหน้าบ้านมาสามวันแล้ว",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusNew, sub.Status)
	require.False(t, sub.IsReadByAdmin)
	require.Equal(t, filed, sub.Date)
	require.Equal(t, 1, f.commits.commits)

	events := f.sink.Events()
	require.Len(t, events, 1)
	require.Equal(t, audit.ActionSubmissionCreated, events[0].Action)
	require.Equal(t, sub.ID.String(), events[0].Subject)
}

func TestCreateRejectsIncompleteInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateInput{
		CitizenName:  "สมชาย ใจดี",
		CitizenPhone: "0811111111",
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	require.Zero(t, f.commits.commits)
}

func TestOpenMarksReadOnce(t *testing.T) {
	f := newFixture(t)
	sub, err := f.svc.Create(context.Background(), CreateInput{
		CitizenName: "สมชาย ใจดี", CitizenPhone: "0811111111", Title: "ท่อประปาแตก", Address: "123 หมู่ 4",
	})
	require.NoError(t, err)
	commitsAfterCreate := f.commits.commits

	opened, err := f.svc.Open(adminCtx("วิชัย"), sub.ID)
	require.NoError(t, err)
	require.True(t, opened.IsReadByAdmin)
	require.Equal(t, commitsAfterCreate+1, f.commits.commits)

	// A second open re-displays but does not persist again.
	_, err = f.svc.Open(adminCtx("วิชัย"), sub.ID)
	require.NoError(t, err)
	require.Equal(t, commitsAfterCreate+1, f.commits.commits)
}

func TestApproveRoutesToDepartment(t *testing.T) {
	f := newFixture(t)
	sub, err := f.svc.Create(context.Background(), CreateInput{
		CitizenName: "สมชาย ใจดี", CitizenPhone: "0811111111", Title: "ท่อประปาแตก", Address: "123 หมู่ 4",
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(adminCtx("วิชัย"), sub.ID, "กองช่าง")
	require.NoError(t, err)
	require.Equal(t, models.StatusReceived, approved.Status)
	require.Equal(t, "กองช่าง", approved.AssignedDepartment)

	events := f.sink.Events()
	last := events[len(events)-1]
	require.Equal(t, audit.ActionSubmissionApproved, last.Action)
	require.Equal(t, "กองช่าง", last.Decision)
	require.Equal(t, "วิชัย", last.Actor)
}

func TestApproveRefusedOnceRouted(t *testing.T) {
	f := newFixture(t)
	sub, err := f.svc.Create(context.Background(), CreateInput{
		CitizenName: "สมชาย ใจดี", CitizenPhone: "0811111111", Title: "ท่อประปาแตก", Address: "123 หมู่ 4",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(adminCtx("วิชัย"), sub.ID, "กองช่าง")
	require.NoError(t, err)

	_, err = f.svc.Approve(adminCtx("วิชัย"), sub.ID, "ไฟฟ้า")
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	sub, err := f.svc.Create(context.Background(), CreateInput{
		CitizenName: "สมชาย ใจดี", CitizenPhone: "0811111111", Title: "ท่อประปาแตก", Address: "123 หมู่ 4",
	})
	require.NoError(t, err)
	commitsAfterCreate := f.commits.commits

	_, err = f.svc.Reject(adminCtx("วิชัย"), sub.ID, "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	require.Equal(t, commitsAfterCreate, f.commits.commits)

	kept, err := f.svc.Open(adminCtx("วิชัย"), sub.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusNew, kept.Status)
}

func TestRejectRecordsReason(t *testing.T) {
	f := newFixture(t)
	sub, err := f.svc.Create(context.Background(), CreateInput{
		CitizenName: "สมชาย ใจดี", CitizenPhone: "0811111111", Title: "ท่อประปาแตก", Address: "123 หมู่ 4",
	})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(adminCtx("วิชัย"), sub.ID, "ข้อมูลไม่ครบ")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, rejected.Status)
	require.Equal(t, "ข้อมูลไม่ครบ", rejected.RejectionReason)

	// Rejected submissions stay visible in the citizen's own history.
	mine, err := f.svc.ListByCitizenPhone(context.Background(), "0811111111")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "ข้อมูลไม่ครบ", mine[0].RejectionReason)
}

func TestMoveThroughWorkQueue(t *testing.T) {
	f := newFixture(t)
	sub, err := f.svc.Create(context.Background(), CreateInput{
		CitizenName: "สมชาย ใจดี", CitizenPhone: "0811111111", Title: "ท่อประปาแตก", Address: "123 หมู่ 4",
	})
	require.NoError(t, err)
	_, err = f.svc.Approve(adminCtx("วิชัย"), sub.ID, "กองช่าง")
	require.NoError(t, err)

	moved, err := f.svc.Move(adminCtx("วิชัย"), sub.ID, models.StatusPending)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, moved.Status)

	moved, err = f.svc.Move(adminCtx("วิชัย"), sub.ID, models.StatusSuccess)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, moved.Status)

	// Department assignment survives every move.
	require.Equal(t, "กองช่าง", moved.AssignedDepartment)

	_, err = f.svc.Move(adminCtx("วิชัย"), sub.ID, models.StatusNew)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestUnknownSubmissionIsNotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	_, err := f.svc.Open(adminCtx("วิชัย"), id)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = f.svc.Approve(adminCtx("วิชัย"), id, "กองช่าง")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = f.svc.Reject(adminCtx("วิชัย"), id, "ข้อมูลไม่ครบ")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListMineRequiresPhoneOnSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListMine(context.Background())
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	ctx := requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{
		Role: "CITIZEN", Name: "สมชาย ใจดี", Phone: "0811111111",
	})
	subs, err := f.svc.ListMine(ctx)
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestListRoutedRejectsUnknownDepartment(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListRouted(context.Background(), "บัญชี")
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]uuid.UUID, 0, 4)
	for _, title := range []string{"ท่อประปาแตก", "ไฟถนนดับ", "ถนนเป็นหลุม", "ขยะไม่เก็บ"} {
		sub, err := f.svc.Create(ctx, CreateInput{
			CitizenName: "สมชาย ใจดี", CitizenPhone: "0811111111", Title: title, Address: "123 หมู่ 4",
		})
		require.NoError(t, err)
		ids = append(ids, sub.ID)
	}

	_, err := f.svc.Approve(adminCtx("วิชัย"), ids[0], "กองช่าง")
	require.NoError(t, err)
	_, err = f.svc.Approve(adminCtx("วิชัย"), ids[1], "ไฟฟ้า")
	require.NoError(t, err)
	_, err = f.svc.Move(adminCtx("วิชัย"), ids[1], models.StatusSuccess)
	require.NoError(t, err)
	_, err = f.svc.Reject(adminCtx("วิชัย"), ids[2], "ข้อมูลไม่ครบ")
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 4, Pending: 1, Success: 1}, stats)
}

// TestComplaintLifecycle walks a submission through the full portal flow the
// way an operator would see it.
func TestComplaintLifecycle(t *testing.T) {
	f := newFixture(t)
	citizen := requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{
		Role: "CITIZEN", Name: "สมชาย ใจดี", Phone: "0811111111",
	})

	sub, err := f.svc.Create(citizen, CreateInput{
		CitizenName:  "สมชาย ใจดี",
		CitizenPhone: "0811111111",
		Title:        "ท่อประปาแตก",
		Address:      "123 หมู่ 4 ต.ในเมือง",
		Details:      "น้ำรั่วหน้าบ้านมาสามวันแล้ว",
	})
	require.NoError(t, err)

	inbox, err := f.svc.ListInbox(citizen)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	admin := adminCtx("วิชัย")
	_, err = f.svc.Open(admin, sub.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(admin, sub.ID, "กองช่าง")
	require.NoError(t, err)

	inbox, err = f.svc.ListInbox(admin)
	require.NoError(t, err)
	require.Empty(t, inbox)

	queue, err := f.svc.ListRouted(admin, "กองช่าง")
	require.NoError(t, err)
	require.Len(t, queue, 1)

	_, err = f.svc.Move(admin, sub.ID, models.StatusPending)
	require.NoError(t, err)
	final, err := f.svc.Move(admin, sub.ID, models.StatusSuccess)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, final.Status)

	mine, err := f.svc.ListMine(citizen)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, models.StatusSuccess, mine[0].Status)
}
