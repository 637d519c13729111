/*
Package absence provides the core absence request engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  employee absence requests (vacation, permission, leave) through a
  multi-role approval chain, and for computing how many vacation days
  each employee is entitled to in the current service year.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: Who is requesting, who supervises them, contract terms
  - Request: An absence request with status, stage, and audit history
  - PolicyRule: Per-type rules (advance notice, span limit, approval chain)
  - PolicyChange: Append-only audit record of policy edits

DESIGN PRINCIPLES:
  1. Closed enums: Role, ContractType, RequestType, Status and Stage are
     typed string constants with IsValid checks, never bare strings
  2. Derived counters: used/remaining vacation days are computed from the
     set of non-rejected requests, never stored authoritatively
  3. Terminal immutability: once a request is approved or rejected its
     status, stage and history never change again
  4. Auditability: terminal decisions append to an ordered history trail;
     policy edits append PolicyChange records

SEE ALSO:
  - entitlement.go: Service-year windows and entitled-day computation
  - validator.go: Admission checks for proposed requests
  - workflow.go: Stage progression and terminal transitions
*/
package absence

import (
	"time"
)

// =============================================================================
// ROLES
// =============================================================================

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleSupervisor Role = "supervisor"
	RoleHR         Role = "hr"
	RoleDirector   Role = "director"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleSupervisor, RoleHR, RoleDirector:
		return true
	}
	return false
}

// ApproverRoles lists the roles that may appear in an approval chain.
// Plain employees never approve.
var ApproverRoles = []Role{RoleSupervisor, RoleHR, RoleDirector}

// =============================================================================
// CONTRACT TYPES
// =============================================================================

type ContractType string

const (
	ContractFixed     ContractType = "fixed"
	ContractTemporary ContractType = "temporary"
)

func (c ContractType) IsValid() bool {
	return c == ContractFixed || c == ContractTemporary
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is the subject of absence requests and, depending on role,
// an actor in the approval chain.
//
// SupervisorID is a weak reference used for reporting-line lookups only.
// When set it must name an employee with RoleSupervisor and must not form
// a cycle; ValidateReportingLine enforces both.
type Employee struct {
	ID           string
	Name         string
	Email        string
	Department   string
	Position     string
	Role         Role
	SupervisorID string // empty = no supervisor
	HireDate     time.Time // zero = unknown, entitlement degrades
	ContractType ContractType

	// PasswordHash supports the bare credential check only. Session and
	// token management live outside this module.
	PasswordHash string
}

// EmployeeFilter narrows ListEmployees queries.
// Zero values mean "any".
type EmployeeFilter struct {
	Department   string
	Role         Role
	SupervisorID string
}

// Matches reports whether e satisfies every non-zero filter field.
func (f EmployeeFilter) Matches(e Employee) bool {
	if f.Department != "" && e.Department != f.Department {
		return false
	}
	if f.Role != "" && e.Role != f.Role {
		return false
	}
	if f.SupervisorID != "" && e.SupervisorID != f.SupervisorID {
		return false
	}
	return true
}

// EmployeeLookup resolves an employee by ID. Used by reporting-line
// validation so it works against any store.
type EmployeeLookup func(id string) (*Employee, bool)

// ValidateReportingLine checks the supervisor reference invariant:
// SupervisorID, if present, must name an employee with RoleSupervisor and
// following the chain from e must never revisit e (no self-supervision,
// direct or transitive).
func ValidateReportingLine(e Employee, lookup EmployeeLookup) error {
	if e.SupervisorID == "" {
		return nil
	}
	seen := map[string]bool{e.ID: true}
	currentID := e.SupervisorID
	for currentID != "" {
		sup, ok := lookup(currentID)
		if !ok {
			return &FieldError{Field: "supervisorId", Reason: "references unknown employee " + currentID}
		}
		// Only the first hop needs the role check for e itself; every hop in
		// the chain is somebody's supervisor, so check them all.
		if sup.Role != RoleSupervisor {
			return &FieldError{Field: "supervisorId", Reason: "employee " + sup.ID + " is not a supervisor"}
		}
		if seen[sup.ID] {
			return &FieldError{Field: "supervisorId", Reason: "reporting line forms a cycle through " + sup.ID}
		}
		seen[sup.ID] = true
		currentID = sup.SupervisorID
	}
	return nil
}

// =============================================================================
// REQUEST TYPES, STATUS, STAGE
// =============================================================================

type RequestType string

const (
	TypeVacation   RequestType = "vacation"
	TypePermission RequestType = "permission"
	TypeLeave      RequestType = "leave"
)

func (t RequestType) IsValid() bool {
	switch t {
	case TypeVacation, TypePermission, TypeLeave:
		return true
	}
	return false
}

// RequestTypes lists all request types in a stable order.
var RequestTypes = []RequestType{TypeVacation, TypePermission, TypeLeave}

type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Stage identifies the role currently responsible for a non-terminal
// request. It advances monotonically along the approval chain and never
// regresses.
type Stage string

const (
	StageSupervisor Stage = "supervisor"
	StageHR         Stage = "hr"
	StageDirector   Stage = "director"
	StageCompleted  Stage = "completed"
)

func (s Stage) IsValid() bool {
	switch s {
	case StageSupervisor, StageHR, StageDirector, StageCompleted:
		return true
	}
	return false
}

// StageForRole maps an approver role to the stage it owns.
func StageForRole(r Role) (Stage, bool) {
	switch r {
	case RoleSupervisor:
		return StageSupervisor, true
	case RoleHR:
		return StageHR, true
	case RoleDirector:
		return StageDirector, true
	}
	return "", false
}

// RoleForStage is the inverse of StageForRole. StageCompleted owns no role.
func RoleForStage(s Stage) (Role, bool) {
	switch s {
	case StageSupervisor:
		return RoleSupervisor, true
	case StageHR:
		return RoleHR, true
	case StageDirector:
		return RoleDirector, true
	}
	return "", false
}

// =============================================================================
// REQUEST
// =============================================================================

type HistoryAction string

const (
	HistoryApproved HistoryAction = "approved"
	HistoryRejected HistoryAction = "rejected"
)

// HistoryEntry records a terminal decision. Intermediate stage advances are
// intentionally NOT recorded: only the decision that changes status is
// historically logged.
type HistoryEntry struct {
	Action HistoryAction
	By     string // actor employee ID
	Date   time.Time
	Reason string // set for rejections only
}

// Request is an admitted absence request owned by the approval workflow.
//
// Invariants:
//   - EndDate >= StartDate; Days is the inclusive span EndDate-StartDate+1
//   - Stage is meaningful only while Status is pending or in_review
//   - Once Status is terminal, Status, Stage and History are frozen
//   - History is ordered and append-only
type Request struct {
	ID         string
	EmployeeID string
	Type       RequestType

	StartDate time.Time
	EndDate   time.Time
	Days      int

	Reason         string
	Category       ReasonCategory // permission/leave only
	AttachmentRef  string         // evidence, when the category requires it
	AttachmentSize int64          // bytes
	Urgent         bool

	Status      Status
	Stage       Stage
	RequestDate time.Time

	ApprovedBy      string
	ApprovedDate    time.Time
	RejectionReason string
	History         []HistoryEntry

	// Version is a monotonic counter incremented on every persisted
	// transition. Stores use it as the compare-and-swap token.
	Version int64
}

// IsTerminal reports whether the request accepts no further actions.
func (r *Request) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// =============================================================================
// POLICY RULES
// =============================================================================

// PolicyRule holds the per-type admission and approval rules. It is read
// by the validator and the workflow; edits go through a change operation
// that appends a PolicyChange record.
type PolicyRule struct {
	Type               RequestType
	MinAdvanceDays     int
	MaxConsecutiveDays int
	RequiresApproval   bool
	ApprovalLevels     []Role // ordered stage chain, e.g. supervisor, hr
}

// FirstStage is the stage a freshly admitted request starts in.
func (p PolicyRule) FirstStage() Stage {
	if len(p.ApprovalLevels) == 0 {
		return StageCompleted
	}
	s, _ := StageForRole(p.ApprovalLevels[0])
	return s
}

// StageIndex returns the position of a stage in the approval chain,
// or -1 if the stage is not part of it.
func (p PolicyRule) StageIndex(s Stage) int {
	for i, role := range p.ApprovalLevels {
		if st, ok := StageForRole(role); ok && st == s {
			return i
		}
	}
	return -1
}

// NextStage returns the stage after s in the chain. ok is false when s is
// the last entry (or not in the chain at all).
func (p PolicyRule) NextStage(s Stage) (Stage, bool) {
	i := p.StageIndex(s)
	if i < 0 || i+1 >= len(p.ApprovalLevels) {
		return "", false
	}
	next, _ := StageForRole(p.ApprovalLevels[i+1])
	return next, true
}

// IsFinalStage reports whether s is the last entry of the approval chain.
func (p PolicyRule) IsFinalStage(s Stage) bool {
	i := p.StageIndex(s)
	return i >= 0 && i == len(p.ApprovalLevels)-1
}

// PolicyChange is one append-only audit record of a PolicyRule edit.
// Changes are never mutated or deleted.
type PolicyChange struct {
	ID    string
	Type  RequestType
	Field string
	From  string
	To    string
	Actor string // employee ID of the editor
	Date  time.Time
}

// =============================================================================
// DAY-LEVEL TIME HELPERS
// =============================================================================
// All request dates are day-granular UTC. Date and Day normalize away
// clock components so comparisons behave calendar-wise.

// Date builds a day-granular UTC time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to day granularity in UTC.
func Day(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysInclusive counts the days from start through end, both included.
// A one-day absence has start == end and counts 1.
func DaysInclusive(start, end time.Time) int {
	return int(Day(end).Sub(Day(start)).Hours()/24) + 1
}

// DaysBetween counts whole days from a to b (exclusive of b's day content).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
