/*
workflow_test.go - Approval state machine behavior

Covers authorization (role/stage match, reporting line), the advance /
approve / reject transitions and their history asymmetry, terminal
refusals, and the compare-and-swap conflict path.
*/
package absence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/absence-engine/absence"
	"github.com/warp/absence-engine/absence/store"
)

// orgFixture seeds a memory store with a full reporting chain and the
// three-stage leave rule, and returns an engine pinned to a fixed clock.
type orgFixture struct {
	store    *store.Memory
	engine   *absence.Engine
	notifier *absence.MemoryNotifier
	now      time.Time
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	employees := []absence.Employee{
		{ID: "emp-1", Name: "Requester", Role: absence.RoleEmployee, SupervisorID: "sup-1",
			HireDate: absence.Date(2020, time.January, 15), ContractType: absence.ContractFixed},
		{ID: "emp-2", Name: "Bystander", Role: absence.RoleEmployee, SupervisorID: "sup-2",
			HireDate: absence.Date(2021, time.June, 1), ContractType: absence.ContractFixed},
		{ID: "sup-1", Name: "Own Supervisor", Role: absence.RoleSupervisor},
		{ID: "sup-2", Name: "Other Supervisor", Role: absence.RoleSupervisor},
		{ID: "hr-1", Name: "HR Manager", Role: absence.RoleHR},
		{ID: "dir-1", Name: "Director", Role: absence.RoleDirector},
	}
	for _, e := range employees {
		if err := mem.SaveEmployee(ctx, e); err != nil {
			t.Fatalf("seed employee %s: %v", e.ID, err)
		}
	}

	rule := absence.PolicyRule{
		Type:               absence.TypeLeave,
		MinAdvanceDays:     30,
		MaxConsecutiveDays: 90,
		RequiresApproval:   true,
		ApprovalLevels:     []absence.Role{absence.RoleSupervisor, absence.RoleHR, absence.RoleDirector},
	}
	if err := mem.SavePolicyRule(ctx, rule); err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	notifier := &absence.MemoryNotifier{}
	now := absence.Date(2026, time.April, 1)
	return &orgFixture{
		store:    mem,
		notifier: notifier,
		now:      now,
		engine: &absence.Engine{
			Store:    mem,
			Notifier: notifier,
			Now:      func() time.Time { return now },
		},
	}
}

// seedLeaveRequest stores a pending leave request at the supervisor stage.
func (f *orgFixture) seedLeaveRequest(t *testing.T, id string) *absence.Request {
	t.Helper()
	r := absence.Request{
		ID:         id,
		EmployeeID: "emp-1",
		Type:       absence.TypeLeave,
		StartDate:  absence.Date(2026, time.June, 1),
		EndDate:    absence.Date(2026, time.June, 30),
		Days:       30,
		Reason:     "Parental leave",
		Category:   absence.CategoryParental,
		Status:     absence.StatusPending,
		Stage:      absence.StageSupervisor,
		RequestDate: f.now,
	}
	if err := f.store.CreateRequest(context.Background(), r); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return &r
}

// =============================================================================
// FULL CHAIN
// =============================================================================

func TestWorkflow_FullApprovalChain(t *testing.T) {
	// GIVEN: a pending leave request and a three-stage approval chain
	// WHEN:  supervisor advances, HR advances, director approves
	// THEN:  intermediate hops leave no history; only the terminal
	//        decision appends one entry

	f := newOrgFixture(t)
	ctx := context.Background()
	f.seedLeaveRequest(t, "req-1")

	r, err := f.engine.Act(ctx, "req-1", "sup-1", absence.ActionAdvance, "")
	if err != nil {
		t.Fatalf("supervisor advance: %v", err)
	}
	if r.Stage != absence.StageHR || r.Status != absence.StatusInReview {
		t.Fatalf("after supervisor: stage=%s status=%s, want hr/in_review", r.Stage, r.Status)
	}
	if len(r.History) != 0 {
		t.Fatalf("advance must not append history, got %d entries", len(r.History))
	}

	r, err = f.engine.Act(ctx, "req-1", "hr-1", absence.ActionAdvance, "")
	if err != nil {
		t.Fatalf("hr advance: %v", err)
	}
	if r.Stage != absence.StageDirector {
		t.Fatalf("after hr: stage=%s, want director", r.Stage)
	}

	r, err = f.engine.Act(ctx, "req-1", "dir-1", absence.ActionApprove, "")
	if err != nil {
		t.Fatalf("director approve: %v", err)
	}
	if r.Status != absence.StatusApproved || r.Stage != absence.StageCompleted {
		t.Fatalf("after approve: status=%s stage=%s, want approved/completed", r.Status, r.Stage)
	}
	if r.ApprovedBy != "dir-1" || !r.ApprovedDate.Equal(f.now) {
		t.Errorf("approval attribution: by=%s date=%v", r.ApprovedBy, r.ApprovedDate)
	}
	if len(r.History) != 1 {
		t.Fatalf("exactly one history entry expected, got %d", len(r.History))
	}
	if r.History[0].Action != absence.HistoryApproved || r.History[0].By != "dir-1" {
		t.Errorf("history entry = %+v", r.History[0])
	}
	if r.Version != 3 {
		t.Errorf("three committed transitions should leave version 3, got %d", r.Version)
	}
}

func TestWorkflow_RejectFreezesStage(t *testing.T) {
	// GIVEN: a request advanced to the HR stage
	// WHEN:  HR rejects with a reason
	// THEN:  the request is terminal, the stage stays hr, and one
	//        history entry records the reason

	f := newOrgFixture(t)
	ctx := context.Background()
	f.seedLeaveRequest(t, "req-1")

	if _, err := f.engine.Act(ctx, "req-1", "sup-1", absence.ActionAdvance, ""); err != nil {
		t.Fatalf("advance: %v", err)
	}
	r, err := f.engine.Act(ctx, "req-1", "hr-1", absence.ActionReject, "headcount freeze")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	if r.Status != absence.StatusRejected {
		t.Errorf("status = %s, want rejected", r.Status)
	}
	if r.Stage != absence.StageHR {
		t.Errorf("stage = %s, want hr (frozen where rejected)", r.Stage)
	}
	if r.RejectionReason != "headcount freeze" {
		t.Errorf("rejection reason = %q", r.RejectionReason)
	}
	if len(r.History) != 1 || r.History[0].Action != absence.HistoryRejected || r.History[0].Reason != "headcount freeze" {
		t.Errorf("history = %+v", r.History)
	}
}

// =============================================================================
// REFUSALS
// =============================================================================

func TestWorkflow_ApproveBeforeFinalStage_Refused(t *testing.T) {
	f := newOrgFixture(t)
	f.seedLeaveRequest(t, "req-1")

	_, err := f.engine.Act(context.Background(), "req-1", "sup-1", absence.ActionApprove, "")
	if !errors.Is(err, absence.ErrInvalidAction) {
		t.Fatalf("approve at supervisor stage: err = %v, want ErrInvalidAction", err)
	}
}

func TestWorkflow_AdvancePastFinalStage_Refused(t *testing.T) {
	f := newOrgFixture(t)
	ctx := context.Background()
	f.seedLeaveRequest(t, "req-1")

	f.engine.Act(ctx, "req-1", "sup-1", absence.ActionAdvance, "")
	f.engine.Act(ctx, "req-1", "hr-1", absence.ActionAdvance, "")

	_, err := f.engine.Act(ctx, "req-1", "dir-1", absence.ActionAdvance, "")
	if !errors.Is(err, absence.ErrInvalidAction) {
		t.Fatalf("advance at final stage: err = %v, want ErrInvalidAction", err)
	}
}

func TestWorkflow_WrongRoleForStage_Refused(t *testing.T) {
	f := newOrgFixture(t)
	f.seedLeaveRequest(t, "req-1")

	_, err := f.engine.Act(context.Background(), "req-1", "hr-1", absence.ActionAdvance, "")
	if !absence.IsAuthorization(err) {
		t.Fatalf("hr acting at supervisor stage: err = %v, want authorization error", err)
	}

	var authErr *absence.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthorizationError, got %T", err)
	}
	if authErr.Stage != absence.StageSupervisor {
		t.Errorf("refusal stage = %s, want supervisor", authErr.Stage)
	}
}

func TestWorkflow_ForeignSupervisor_Refused(t *testing.T) {
	// Supervisors only act on their own direct reports.
	f := newOrgFixture(t)
	f.seedLeaveRequest(t, "req-1")

	_, err := f.engine.Act(context.Background(), "req-1", "sup-2", absence.ActionAdvance, "")
	if !absence.IsAuthorization(err) {
		t.Fatalf("foreign supervisor: err = %v, want authorization error", err)
	}
}

func TestWorkflow_TerminalRequest_Refused(t *testing.T) {
	// GIVEN: a rejected request
	// WHEN:  anyone tries any further action
	// THEN:  the refusal is ErrTerminalRequest and nothing changes

	f := newOrgFixture(t)
	ctx := context.Background()
	f.seedLeaveRequest(t, "req-1")

	if _, err := f.engine.Act(ctx, "req-1", "sup-1", absence.ActionReject, "no"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err := f.engine.Act(ctx, "req-1", "sup-1", absence.ActionAdvance, "")
	if !errors.Is(err, absence.ErrTerminalRequest) {
		t.Fatalf("acting on terminal request: err = %v, want ErrTerminalRequest", err)
	}

	stored, _ := f.store.GetRequest(ctx, "req-1")
	if stored.Status != absence.StatusRejected || len(stored.History) != 1 {
		t.Errorf("terminal request mutated: %+v", stored)
	}
}

func TestWorkflow_RefusalEmitsNoEvent(t *testing.T) {
	f := newOrgFixture(t)
	f.seedLeaveRequest(t, "req-1")

	f.engine.Act(context.Background(), "req-1", "hr-1", absence.ActionAdvance, "")
	if events := f.notifier.Events(); len(events) != 0 {
		t.Errorf("refused action emitted %d events", len(events))
	}
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestWorkflow_LostRace_SurfacesStaleState(t *testing.T) {
	// GIVEN: two actors holding the same version of a request
	// WHEN:  both transitions are applied
	// THEN:  the second write loses with ErrStaleState and the store
	//        keeps the winner's state

	f := newOrgFixture(t)
	ctx := context.Background()
	f.seedLeaveRequest(t, "req-1")

	// The supervisor rejects first.
	if _, err := f.engine.Act(ctx, "req-1", "sup-1", absence.ActionReject, "overlap"); err != nil {
		t.Fatalf("winner: %v", err)
	}

	// A stale write against version 0 loses.
	stale := absence.Request{ID: "req-1", EmployeeID: "emp-1", Type: absence.TypeLeave,
		Status: absence.StatusInReview, Stage: absence.StageHR}
	err := f.store.UpdateRequest(ctx, stale, 0)
	if !errors.Is(err, absence.ErrStaleState) {
		t.Fatalf("stale write: err = %v, want ErrStaleState", err)
	}

	var staleErr *absence.StaleStateError
	if !errors.As(err, &staleErr) {
		t.Fatalf("expected *StaleStateError, got %T", err)
	}
	if staleErr.ExpectedVersion != 0 || staleErr.ActualVersion != 1 {
		t.Errorf("conflict detail = %+v", staleErr)
	}
	if !absence.IsRetryable(err) {
		t.Error("a lost race should be retryable")
	}

	stored, _ := f.store.GetRequest(ctx, "req-1")
	if stored.Status != absence.StatusRejected {
		t.Errorf("winner's state lost: status = %s", stored.Status)
	}
}

// =============================================================================
// EVENTS
// =============================================================================

func TestWorkflow_TransitionsNotifyRequester(t *testing.T) {
	f := newOrgFixture(t)
	ctx := context.Background()
	f.seedLeaveRequest(t, "req-1")

	f.engine.Act(ctx, "req-1", "sup-1", absence.ActionAdvance, "")
	f.engine.Act(ctx, "req-1", "hr-1", absence.ActionAdvance, "")
	f.engine.Act(ctx, "req-1", "dir-1", absence.ActionApprove, "")

	events := f.notifier.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	wantKinds := []absence.EventKind{absence.EventAdvanced, absence.EventAdvanced, absence.EventApproved}
	for i, ev := range events {
		if ev.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %s, want %s", i, ev.Kind, wantKinds[i])
		}
		if ev.UserID != "emp-1" {
			t.Errorf("event %d delivered to %s, want the requester", i, ev.UserID)
		}
	}
}
