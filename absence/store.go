/*
store.go - Persistence interfaces for the absence engine

PURPOSE:
  Defines the interface between the domain logic and the database. The
  engine is written against these interfaces; store/sqlite provides the
  production implementation and absence/store an in-memory one.

COMPARE-AND-SWAP CONTRACT:
  Request rows carry a monotonic version counter. UpdateRequest applies a
  transition only when the stored version still equals expectedVersion,
  bumping it by one; otherwise it fails with ErrStaleState and the caller
  re-fetches. This closes the race where two eligible actors approve the
  same request concurrently.

APPEND-ONLY TABLES:
  Request history entries and policy change records are append-only. No
  implementation may mutate or delete them.

SECONDARY INDICES:
  Implementations index requests by employee and by (stage, status) so
  "requests awaiting actor X" stays cheap, and employees by supervisor for
  reporting-line queries.

SEE ALSO:
  - absence/store/memory.go: In-memory implementation
  - store/sqlite/sqlite.go: Production implementation
*/
package absence

import "context"

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeStore interface {
	// GetEmployee returns the employee or a NotFoundError.
	GetEmployee(ctx context.Context, id string) (*Employee, error)

	// ListEmployees returns employees matching the filter, ordered by ID.
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)

	// SaveEmployee creates or replaces an employee record.
	SaveEmployee(ctx context.Context, e Employee) error
}

// =============================================================================
// REQUESTS
// =============================================================================

type RequestStore interface {
	// GetRequest returns the request or a NotFoundError.
	GetRequest(ctx context.Context, id string) (*Request, error)

	// CreateRequest persists a freshly admitted request at version 0.
	CreateRequest(ctx context.Context, r Request) error

	// UpdateRequest applies a transition iff the stored version still
	// equals expectedVersion, bumping the version by one. Returns
	// ErrStaleState (wrapped) on a lost race, ErrNotFound for unknown ids.
	// New history entries are appended; existing ones are never touched.
	UpdateRequest(ctx context.Context, r Request, expectedVersion int64) error

	// ListRequestsByEmployee returns the employee's requests, newest
	// first. typ narrows by request type when non-empty. Rejected
	// requests are included only when includeRejected is set.
	ListRequestsByEmployee(ctx context.Context, employeeID string, typ RequestType, includeRejected bool) ([]Request, error)

	// ListRequestsByStage returns non-terminal requests sitting at the
	// given stage, oldest first. Backed by the (stage, status) index.
	ListRequestsByStage(ctx context.Context, stage Stage) ([]Request, error)
}

// =============================================================================
// POLICY RULES
// =============================================================================

type PolicyStore interface {
	// GetPolicyRule returns the rule for a type or a NotFoundError.
	GetPolicyRule(ctx context.Context, typ RequestType) (*PolicyRule, error)

	// SavePolicyRule creates or replaces a rule. Audit records are the
	// caller's concern; see Service.UpdatePolicyRule.
	SavePolicyRule(ctx context.Context, rule PolicyRule) error

	// AppendPolicyChange appends one audit record. Append-only.
	AppendPolicyChange(ctx context.Context, change PolicyChange) error

	// ListPolicyChanges returns the audit trail for a type, oldest first.
	// An empty type returns every record.
	ListPolicyChanges(ctx context.Context, typ RequestType) ([]PolicyChange, error)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// NotificationStore backs the StoreNotifier and the notification listing
// endpoints. Not part of the core contract; the engine itself only emits.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, userID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// =============================================================================
// COMBINED
// =============================================================================

// Store is the full persistence surface the service layer wires against.
type Store interface {
	EmployeeStore
	RequestStore
	PolicyStore
	NotificationStore
}
