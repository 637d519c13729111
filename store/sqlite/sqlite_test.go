/*
sqlite_test.go - SQLite store behavior

Round-trips every aggregate through an in-memory database and checks the
properties the domain relies on: version compare-and-swap, append-only
history, policy level serialization, and the change audit trail.
*/
package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/absence-engine/absence"
	"github.com/warp/absence-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, s *sqlite.Store, id string, role absence.Role, supervisorID string) {
	t.Helper()
	err := s.SaveEmployee(context.Background(), absence.Employee{
		ID:           id,
		Name:         "Employee " + id,
		Email:        id + "@example.com",
		Department:   "Engineering",
		Role:         role,
		SupervisorID: supervisorID,
		HireDate:     absence.Date(2023, time.March, 15),
		ContractType: absence.ContractFixed,
	})
	require.NoError(t, err)
}

func leaveRequest(id, employeeID string) absence.Request {
	return absence.Request{
		ID:          id,
		EmployeeID:  employeeID,
		Type:        absence.TypeLeave,
		StartDate:   absence.Date(2026, time.June, 1),
		EndDate:     absence.Date(2026, time.June, 30),
		Days:        30,
		Reason:      "Parental leave",
		Category:    absence.CategoryParental,
		Status:      absence.StatusPending,
		Stage:       absence.StageSupervisor,
		RequestDate: absence.Date(2026, time.April, 1),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestStore_EmployeeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, s, "sup-1", absence.RoleSupervisor, "")
	seedEmployee(t, s, "emp-1", absence.RoleEmployee, "sup-1")

	got, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Employee emp-1", got.Name)
	assert.Equal(t, absence.RoleEmployee, got.Role)
	assert.Equal(t, "sup-1", got.SupervisorID)
	assert.Equal(t, absence.ContractFixed, got.ContractType)
	assert.True(t, got.HireDate.Equal(absence.Date(2023, time.March, 15)))

	_, err = s.GetEmployee(ctx, "nobody")
	assert.True(t, absence.IsNotFound(err))
}

func TestStore_EmployeeFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, s, "sup-1", absence.RoleSupervisor, "")
	seedEmployee(t, s, "sup-2", absence.RoleSupervisor, "")
	seedEmployee(t, s, "emp-1", absence.RoleEmployee, "sup-1")
	seedEmployee(t, s, "emp-2", absence.RoleEmployee, "sup-1")
	seedEmployee(t, s, "emp-3", absence.RoleEmployee, "sup-2")

	reports, err := s.ListEmployees(ctx, absence.EmployeeFilter{SupervisorID: "sup-1"})
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	supervisors, err := s.ListEmployees(ctx, absence.EmployeeFilter{Role: absence.RoleSupervisor})
	require.NoError(t, err)
	assert.Len(t, supervisors, 2)
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestStore_RequestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, s, "emp-1", absence.RoleEmployee, "")
	require.NoError(t, s.CreateRequest(ctx, leaveRequest("req-1", "emp-1")))

	got, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, absence.TypeLeave, got.Type)
	assert.Equal(t, absence.CategoryParental, got.Category)
	assert.Equal(t, 30, got.Days)
	assert.Equal(t, int64(0), got.Version)
	assert.Empty(t, got.History)
	assert.True(t, got.StartDate.Equal(absence.Date(2026, time.June, 1)))
}

func TestStore_RequestCAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, s, "emp-1", absence.RoleEmployee, "")
	r := leaveRequest("req-1", "emp-1")
	require.NoError(t, s.CreateRequest(ctx, r))

	// Winner moves the request to hr.
	r.Status = absence.StatusInReview
	r.Stage = absence.StageHR
	require.NoError(t, s.UpdateRequest(ctx, r, 0))

	// A second write against the old version loses.
	r.Status = absence.StatusRejected
	err := s.UpdateRequest(ctx, r, 0)
	var stale *absence.StaleStateError
	require.True(t, errors.As(err, &stale), "want *StaleStateError, got %v", err)
	assert.Equal(t, int64(0), stale.ExpectedVersion)
	assert.Equal(t, int64(1), stale.ActualVersion)
	assert.True(t, absence.IsRetryable(err))

	stored, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, absence.StatusInReview, stored.Status)
	assert.Equal(t, int64(1), stored.Version)

	err = s.UpdateRequest(ctx, leaveRequest("ghost", "emp-1"), 0)
	assert.True(t, absence.IsNotFound(err))
}

func TestStore_HistoryAppendOnly(t *testing.T) {
	// GIVEN: a request updated twice, the second time with a history entry
	// THEN:  only the new tail is inserted, and it survives re-reads in order

	s := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, s, "emp-1", absence.RoleEmployee, "")
	r := leaveRequest("req-1", "emp-1")
	require.NoError(t, s.CreateRequest(ctx, r))

	r.Status = absence.StatusInReview
	r.Stage = absence.StageHR
	require.NoError(t, s.UpdateRequest(ctx, r, 0))

	decided := absence.Date(2026, time.April, 10)
	r.Status = absence.StatusRejected
	r.RejectionReason = "headcount freeze"
	r.History = []absence.HistoryEntry{{
		Action: absence.HistoryRejected,
		By:     "hr-1",
		Date:   decided,
		Reason: "headcount freeze",
	}}
	require.NoError(t, s.UpdateRequest(ctx, r, 1))

	stored, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, stored.History, 1)
	assert.Equal(t, absence.HistoryRejected, stored.History[0].Action)
	assert.Equal(t, "hr-1", stored.History[0].By)
	assert.Equal(t, "headcount freeze", stored.History[0].Reason)
	assert.True(t, stored.History[0].Date.Equal(decided))
}

func TestStore_RequestListings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, s, "emp-1", absence.RoleEmployee, "")
	seedEmployee(t, s, "emp-2", absence.RoleEmployee, "")

	a := leaveRequest("req-a", "emp-1")
	a.RequestDate = absence.Date(2026, time.March, 1)
	b := leaveRequest("req-b", "emp-1")
	b.RequestDate = absence.Date(2026, time.April, 1)
	rejected := leaveRequest("req-c", "emp-1")
	rejected.Status = absence.StatusRejected
	other := leaveRequest("req-d", "emp-2")

	for _, r := range []absence.Request{a, b, rejected, other} {
		require.NoError(t, s.CreateRequest(ctx, r))
	}

	visible, err := s.ListRequestsByEmployee(ctx, "emp-1", absence.TypeLeave, false)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "req-b", visible[0].ID, "newest first")

	all, err := s.ListRequestsByEmployee(ctx, "emp-1", "", true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	queue, err := s.ListRequestsByStage(ctx, absence.StageSupervisor)
	require.NoError(t, err)
	assert.Len(t, queue, 3, "rejected requests stay out of stage queues")
}

// =============================================================================
// POLICY RULES AND AUDIT
// =============================================================================

func TestStore_PolicyRuleRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := absence.PolicyRule{
		Type:               absence.TypeLeave,
		MinAdvanceDays:     30,
		MaxConsecutiveDays: 90,
		RequiresApproval:   true,
		ApprovalLevels:     []absence.Role{absence.RoleSupervisor, absence.RoleHR, absence.RoleDirector},
	}
	require.NoError(t, s.SavePolicyRule(ctx, rule))

	got, err := s.GetPolicyRule(ctx, absence.TypeLeave)
	require.NoError(t, err)
	assert.Equal(t, rule.MinAdvanceDays, got.MinAdvanceDays)
	assert.Equal(t, rule.ApprovalLevels, got.ApprovalLevels, "level order must survive the round trip")

	// Saving again replaces, not duplicates.
	rule.MinAdvanceDays = 45
	require.NoError(t, s.SavePolicyRule(ctx, rule))
	got, err = s.GetPolicyRule(ctx, absence.TypeLeave)
	require.NoError(t, err)
	assert.Equal(t, 45, got.MinAdvanceDays)

	_, err = s.GetPolicyRule(ctx, absence.TypeVacation)
	assert.True(t, absence.IsNotFound(err))
}

func TestStore_PolicyChangeTrail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	changed := absence.Date(2026, time.April, 1)
	for i, field := range []string{"minAdvanceDays", "requiresApproval"} {
		require.NoError(t, s.AppendPolicyChange(ctx, absence.PolicyChange{
			ID:    field,
			Type:  absence.TypeVacation,
			Field: field,
			From:  "a",
			To:    "b",
			Actor: "hr-1",
			Date:  changed.AddDate(0, 0, i),
		}))
	}
	require.NoError(t, s.AppendPolicyChange(ctx, absence.PolicyChange{
		ID: "other", Type: absence.TypeLeave, Field: "maxConsecutiveDays",
		Actor: "dir-1", Date: changed,
	}))

	trail, err := s.ListPolicyChanges(ctx, absence.TypeVacation)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "hr-1", trail[0].Actor)
	assert.Equal(t, "minAdvanceDays", trail[0].Field)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func TestStore_Notifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, time.April, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.SaveNotification(ctx, absence.Notification{
		ID: "n-1", UserID: "emp-1", Kind: absence.EventApproved,
		Title: "Request approved", Message: "done", RelatedRequestID: "req-1",
		CreatedAt: created,
	}))
	require.NoError(t, s.SaveNotification(ctx, absence.Notification{
		ID: "n-2", UserID: "emp-2", Kind: absence.EventSubmitted,
		Title: "New request received", CreatedAt: created,
	}))

	mine, err := s.ListNotifications(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, absence.EventApproved, mine[0].Kind)
	assert.Equal(t, "req-1", mine[0].RelatedRequestID)
	assert.False(t, mine[0].Read)

	require.NoError(t, s.MarkNotificationRead(ctx, "n-1"))
	mine, _ = s.ListNotifications(ctx, "emp-1")
	assert.True(t, mine[0].Read)

	err = s.MarkNotificationRead(ctx, "ghost")
	assert.True(t, absence.IsNotFound(err))
}

// =============================================================================
// RESET
// =============================================================================

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, s, "emp-1", absence.RoleEmployee, "")
	require.NoError(t, s.CreateRequest(ctx, leaveRequest("req-1", "emp-1")))
	require.NoError(t, s.Reset(ctx))

	_, err := s.GetEmployee(ctx, "emp-1")
	assert.True(t, absence.IsNotFound(err))
	_, err = s.GetRequest(ctx, "req-1")
	assert.True(t, absence.IsNotFound(err))
}
