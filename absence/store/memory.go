// Package store provides an in-memory implementation of the absence
// store interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps everything behind one RWMutex and maintains the same
// secondary indices the production store builds in SQL: requests by
// employee, requests by (stage, status), employees by supervisor.
type Memory struct {
	mu sync.RWMutex

	employees map[string]absence.Employee
	requests  map[string]absence.Request
	rules     map[absence.RequestType]absence.PolicyRule
	changes   []absence.PolicyChange
	notices   map[string][]absence.Notification // by user ID

	byEmployee   map[string]map[string]struct{} // employee ID -> request IDs
	byStage      map[stageKey]map[string]struct{}
	bySupervisor map[string]map[string]struct{} // supervisor ID -> employee IDs
}

type stageKey struct {
	Stage  absence.Stage
	Status absence.Status
}

func NewMemory() *Memory {
	return &Memory{
		employees:    make(map[string]absence.Employee),
		requests:     make(map[string]absence.Request),
		rules:        make(map[absence.RequestType]absence.PolicyRule),
		notices:      make(map[string][]absence.Notification),
		byEmployee:   make(map[string]map[string]struct{}),
		byStage:      make(map[stageKey]map[string]struct{}),
		bySupervisor: make(map[string]map[string]struct{}),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id string) (*absence.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, &absence.NotFoundError{Kind: "employee", ID: id}
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context, filter absence.EmployeeFilter) ([]absence.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []absence.Employee
	if filter.SupervisorID != "" {
		// Serve reporting-line queries from the supervisor index.
		for id := range m.bySupervisor[filter.SupervisorID] {
			if e := m.employees[id]; filter.Matches(e) {
				out = append(out, e)
			}
		}
	} else {
		for _, e := range m.employees {
			if filter.Matches(e) {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveEmployee(_ context.Context, e absence.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.employees[e.ID]; ok && prev.SupervisorID != "" {
		delete(m.bySupervisor[prev.SupervisorID], e.ID)
	}
	m.employees[e.ID] = e
	if e.SupervisorID != "" {
		if m.bySupervisor[e.SupervisorID] == nil {
			m.bySupervisor[e.SupervisorID] = make(map[string]struct{})
		}
		m.bySupervisor[e.SupervisorID][e.ID] = struct{}{}
	}
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) GetRequest(_ context.Context, id string) (*absence.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, &absence.NotFoundError{Kind: "request", ID: id}
	}
	return cloneRequest(r), nil
}

func (m *Memory) CreateRequest(_ context.Context, r absence.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.Version = 0
	m.requests[r.ID] = *cloneRequest(r)
	m.indexRequest(r)
	return nil
}

// UpdateRequest is the compare-and-swap: the write applies only when the
// stored version still matches expectedVersion.
func (m *Memory) UpdateRequest(_ context.Context, r absence.Request, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.requests[r.ID]
	if !ok {
		return &absence.NotFoundError{Kind: "request", ID: r.ID}
	}
	if current.Version != expectedVersion {
		return &absence.StaleStateError{
			RequestID:       r.ID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   current.Version,
		}
	}

	m.unindexRequest(current)
	r.Version = expectedVersion + 1
	m.requests[r.ID] = *cloneRequest(r)
	m.indexRequest(r)
	return nil
}

func (m *Memory) ListRequestsByEmployee(_ context.Context, employeeID string, typ absence.RequestType, includeRejected bool) ([]absence.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []absence.Request
	for id := range m.byEmployee[employeeID] {
		r := m.requests[id]
		if typ != "" && r.Type != typ {
			continue
		}
		if !includeRejected && r.Status == absence.StatusRejected {
			continue
		}
		out = append(out, *cloneRequest(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].RequestDate.After(out[j].RequestDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListRequestsByStage(_ context.Context, stage absence.Stage) ([]absence.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []absence.Request
	for _, status := range []absence.Status{absence.StatusPending, absence.StatusInReview} {
		for id := range m.byStage[stageKey{Stage: stage, Status: status}] {
			out = append(out, *cloneRequest(m.requests[id]))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].RequestDate.Before(out[j].RequestDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) indexRequest(r absence.Request) {
	if m.byEmployee[r.EmployeeID] == nil {
		m.byEmployee[r.EmployeeID] = make(map[string]struct{})
	}
	m.byEmployee[r.EmployeeID][r.ID] = struct{}{}

	if !r.Status.IsTerminal() {
		k := stageKey{Stage: r.Stage, Status: r.Status}
		if m.byStage[k] == nil {
			m.byStage[k] = make(map[string]struct{})
		}
		m.byStage[k][r.ID] = struct{}{}
	}
}

func (m *Memory) unindexRequest(r absence.Request) {
	if !r.Status.IsTerminal() {
		delete(m.byStage[stageKey{Stage: r.Stage, Status: r.Status}], r.ID)
	}
}

func cloneRequest(r absence.Request) *absence.Request {
	history := make([]absence.HistoryEntry, len(r.History))
	copy(history, r.History)
	r.History = history
	return &r
}

// =============================================================================
// POLICY RULES
// =============================================================================

func (m *Memory) GetPolicyRule(_ context.Context, typ absence.RequestType) (*absence.PolicyRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[typ]
	if !ok {
		return nil, &absence.NotFoundError{Kind: "policy", ID: string(typ)}
	}
	levels := make([]absence.Role, len(rule.ApprovalLevels))
	copy(levels, rule.ApprovalLevels)
	rule.ApprovalLevels = levels
	return &rule, nil
}

func (m *Memory) SavePolicyRule(_ context.Context, rule absence.PolicyRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.Type] = rule
	return nil
}

func (m *Memory) AppendPolicyChange(_ context.Context, change absence.PolicyChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return nil
}

func (m *Memory) ListPolicyChanges(_ context.Context, typ absence.RequestType) ([]absence.PolicyChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []absence.PolicyChange
	for _, c := range m.changes {
		if typ == "" || c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (m *Memory) SaveNotification(_ context.Context, n absence.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices[n.UserID] = append(m.notices[n.UserID], n)
	return nil
}

func (m *Memory) ListNotifications(_ context.Context, userID string) ([]absence.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]absence.Notification, len(m.notices[userID]))
	copy(out, m.notices[userID])
	return out, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, list := range m.notices {
		for i := range list {
			if list[i].ID == id {
				m.notices[userID][i].Read = true
				return nil
			}
		}
	}
	return &absence.NotFoundError{Kind: "notification", ID: id}
}
