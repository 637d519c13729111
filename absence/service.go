/*
service.go - Entry points composing the engine

PURPOSE:
  The narrow surface collaborators call into (transport is their concern):

    GetEmployee / ListEmployees / CreateEmployee
    GetNonRejectedRequests
    SubmitRequest          admission through the validator
    ActOnRequest           approval workflow (workflow.go)
    Balance                entitlement/used/remaining view
    PendingForActor        "requests awaiting actor X"
    GetPolicyRule / UpdatePolicyRule (+ policy change audit)

ADMISSION FLOW:
  submit -> validate (entitlement + policy rules) -> admitted request at
  status pending / first stage -> supervisor notified. A request failing
  validation is never partially admitted.

SEE ALSO:
  - validator.go, workflow.go: The logic this file wires together
  - api/: HTTP collaborator calling these entry points
*/
package absence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service wires the validator, the workflow engine and the store.
type Service struct {
	Store     Store
	Validator *Validator
	Notifier  Notifier

	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time

	engine *Engine
}

// NewService builds a service with the default validator configuration.
func NewService(store Store, cfg EntitlementConfig, notifier Notifier) *Service {
	s := &Service{
		Store:     store,
		Validator: NewValidator(cfg),
		Notifier:  notifier,
	}
	s.engine = &Engine{Store: store, Notifier: notifier}
	return s
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) notifier() Notifier {
	if s.Notifier != nil {
		return s.Notifier
	}
	return NopNotifier{}
}

// Engine exposes the workflow engine, sharing the service clock.
func (s *Service) Engine() *Engine {
	if s.engine == nil {
		s.engine = &Engine{Store: s.Store, Notifier: s.Notifier}
	}
	s.engine.Now = s.Now
	return s.engine
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	return s.Store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	return s.Store.ListEmployees(ctx, filter)
}

// CreateEmployee validates the record and its reporting line before
// saving. The supervisor reference must name a supervisor and must not
// close a cycle.
func (s *Service) CreateEmployee(ctx context.Context, e Employee) (*Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if !e.Role.IsValid() {
		return nil, &FieldError{Field: "role", Reason: fmt.Sprintf("unknown role %q", e.Role)}
	}
	if e.ContractType != "" && !e.ContractType.IsValid() {
		return nil, &FieldError{Field: "contractType", Reason: fmt.Sprintf("unknown contract type %q", e.ContractType)}
	}
	lookup := func(id string) (*Employee, bool) {
		if id == e.ID {
			return &e, true
		}
		emp, err := s.Store.GetEmployee(ctx, id)
		if err != nil {
			return nil, false
		}
		return emp, true
	}
	if err := ValidateReportingLine(e, lookup); err != nil {
		return nil, err
	}
	if err := s.Store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// GetNonRejectedRequests returns the employee's requests that still count
// against balances. typ narrows by type when non-empty.
func (s *Service) GetNonRejectedRequests(ctx context.Context, employeeID string, typ RequestType) ([]Request, error) {
	return s.Store.ListRequestsByEmployee(ctx, employeeID, typ, false)
}

// GetRequest returns a single request by id.
func (s *Service) GetRequest(ctx context.Context, id string) (*Request, error) {
	return s.Store.GetRequest(ctx, id)
}

// SubmitRequest validates a proposed request and, if every check passes,
// admits it into the approval workflow. On violations it returns a
// *ValidationError carrying the complete list; no partial admission.
func (s *Service) SubmitRequest(ctx context.Context, draft Request) (*Request, error) {
	employee, err := s.Store.GetEmployee(ctx, draft.EmployeeID)
	if err != nil {
		return nil, err
	}
	rule, err := s.Store.GetPolicyRule(ctx, draft.Type)
	if err != nil {
		return nil, err
	}
	existing, err := s.Store.ListRequestsByEmployee(ctx, draft.EmployeeID, draft.Type, false)
	if err != nil {
		return nil, err
	}

	draft = s.normalize(draft)

	if violations := s.Validator.Validate(draft, *employee, existing, *rule); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	now := s.now()
	draft.ID = uuid.NewString()
	draft.RequestDate = Day(now)
	draft.Version = 0
	draft.History = nil

	if !rule.RequiresApproval || len(rule.ApprovalLevels) == 0 {
		// Nothing to review: the request completes immediately.
		draft.Status = StatusApproved
		draft.Stage = StageCompleted
		draft.ApprovedBy = "system"
		draft.ApprovedDate = now
		draft.History = []HistoryEntry{{Action: HistoryApproved, By: "system", Date: now}}
	} else {
		draft.Status = StatusPending
		draft.Stage = rule.FirstStage()
	}

	if err := s.Store.CreateRequest(ctx, draft); err != nil {
		return nil, err
	}

	if employee.SupervisorID != "" && !draft.IsTerminal() {
		s.notifier().Notify(ctx, employee.SupervisorID, EventSubmitted, Notification{
			Title:            eventTitle(EventSubmitted),
			Message:          fmt.Sprintf("%s requested %d day(s) of %s", employee.Name, draft.Days, draft.Type),
			RelatedRequestID: draft.ID,
		})
	}

	return &draft, nil
}

// normalize truncates dates to day granularity, derives the inclusive day
// count, and enforces the canonical vacation reason (user input is
// discarded for vacation; categories and attachments do not apply).
func (s *Service) normalize(draft Request) Request {
	if !draft.StartDate.IsZero() {
		draft.StartDate = Day(draft.StartDate)
	}
	if !draft.EndDate.IsZero() {
		draft.EndDate = Day(draft.EndDate)
	}
	if !draft.StartDate.IsZero() && !draft.EndDate.IsZero() && !draft.EndDate.Before(draft.StartDate) {
		draft.Days = DaysInclusive(draft.StartDate, draft.EndDate)
	}
	if draft.Type == TypeVacation {
		draft.Reason = CanonicalVacationReason
		draft.Category = ""
		draft.AttachmentRef = ""
		draft.AttachmentSize = 0
	}
	return draft
}

// ActOnRequest applies an actor decision through the workflow engine.
func (s *Service) ActOnRequest(ctx context.Context, requestID, actorID string, action Action, reason string) (*Request, error) {
	return s.Engine().Act(ctx, requestID, actorID, action, reason)
}

// PendingForActor returns the non-terminal requests the actor may act on:
// every request at the actor's stage, narrowed to direct reports for
// supervisors. Plain employees get nothing.
func (s *Service) PendingForActor(ctx context.Context, actorID string) ([]Request, error) {
	actor, err := s.Store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	stage, ok := StageForRole(actor.Role)
	if !ok {
		return nil, nil
	}
	candidates, err := s.Store.ListRequestsByStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	if stage != StageSupervisor {
		return candidates, nil
	}
	var mine []Request
	for _, r := range candidates {
		requester, err := s.Store.GetEmployee(ctx, r.EmployeeID)
		if err != nil {
			continue
		}
		if requester.SupervisorID == actor.ID {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

// =============================================================================
// BALANCE
// =============================================================================

// BalanceView is the employee-facing vacation balance summary. Used days
// are derived from non-rejected vacation requests starting inside the
// current service window, never from a stored counter.
type BalanceView struct {
	EmployeeID string
	Summary    Summary
	UsedDays   int
	Remaining  int
}

// Balance computes the entitlement summary and remaining vacation days.
func (s *Service) Balance(ctx context.Context, employeeID string) (*BalanceView, error) {
	employee, err := s.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	existing, err := s.Store.ListRequestsByEmployee(ctx, employeeID, TypeVacation, false)
	if err != nil {
		return nil, err
	}
	today := Day(s.now())
	summary := s.Validator.Entitlement.Summarize(*employee, today)
	remaining := s.Validator.Remaining(*employee, existing)
	return &BalanceView{
		EmployeeID: employeeID,
		Summary:    summary,
		UsedDays:   summary.EntitlementDays - remaining,
		Remaining:  remaining,
	}, nil
}

// =============================================================================
// POLICY RULES
// =============================================================================

// PolicyPatch carries partial PolicyRule updates. Nil fields are left
// untouched.
type PolicyPatch struct {
	MinAdvanceDays     *int
	MaxConsecutiveDays *int
	RequiresApproval   *bool
	ApprovalLevels     []Role // nil = unchanged
}

func (s *Service) GetPolicyRule(ctx context.Context, typ RequestType) (*PolicyRule, error) {
	return s.Store.GetPolicyRule(ctx, typ)
}

// ListPolicyChanges returns the append-only audit trail for a type.
func (s *Service) ListPolicyChanges(ctx context.Context, typ RequestType) ([]PolicyChange, error) {
	return s.Store.ListPolicyChanges(ctx, typ)
}

// UpdatePolicyRule applies a patch to the rule for a type and appends one
// PolicyChange record per modified field. Only HR and directors may edit
// policy.
func (s *Service) UpdatePolicyRule(ctx context.Context, typ RequestType, patch PolicyPatch, actorID string) (*PolicyRule, error) {
	actor, err := s.Store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleHR && actor.Role != RoleDirector {
		return nil, &AuthorizationError{ActorID: actorID, Reason: "only hr and director may edit policy"}
	}
	rule, err := s.Store.GetPolicyRule(ctx, typ)
	if err != nil {
		return nil, err
	}

	updated := *rule
	var changes []PolicyChange
	record := func(field, from, to string) {
		changes = append(changes, PolicyChange{
			ID:    uuid.NewString(),
			Type:  typ,
			Field: field,
			From:  from,
			To:    to,
			Actor: actorID,
			Date:  s.now(),
		})
	}

	if patch.MinAdvanceDays != nil && *patch.MinAdvanceDays != rule.MinAdvanceDays {
		record("minAdvanceDays", fmt.Sprint(rule.MinAdvanceDays), fmt.Sprint(*patch.MinAdvanceDays))
		updated.MinAdvanceDays = *patch.MinAdvanceDays
	}
	if patch.MaxConsecutiveDays != nil && *patch.MaxConsecutiveDays != rule.MaxConsecutiveDays {
		record("maxConsecutiveDays", fmt.Sprint(rule.MaxConsecutiveDays), fmt.Sprint(*patch.MaxConsecutiveDays))
		updated.MaxConsecutiveDays = *patch.MaxConsecutiveDays
	}
	if patch.RequiresApproval != nil && *patch.RequiresApproval != rule.RequiresApproval {
		record("requiresApproval", fmt.Sprint(rule.RequiresApproval), fmt.Sprint(*patch.RequiresApproval))
		updated.RequiresApproval = *patch.RequiresApproval
	}
	if patch.ApprovalLevels != nil && !equalLevels(patch.ApprovalLevels, rule.ApprovalLevels) {
		for _, role := range patch.ApprovalLevels {
			if st, ok := StageForRole(role); !ok || st == StageCompleted {
				return nil, &FieldError{Field: "approvalLevels", Reason: fmt.Sprintf("role %q cannot approve", role)}
			}
		}
		record("approvalLevels", levelsString(rule.ApprovalLevels), levelsString(patch.ApprovalLevels))
		updated.ApprovalLevels = patch.ApprovalLevels
	}

	if len(changes) == 0 {
		return rule, nil
	}
	if err := s.Store.SavePolicyRule(ctx, updated); err != nil {
		return nil, err
	}
	for _, change := range changes {
		if err := s.Store.AppendPolicyChange(ctx, change); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}

func equalLevels(a, b []Role) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func levelsString(levels []Role) string {
	out := ""
	for i, r := range levels {
		if i > 0 {
			out += ","
		}
		out += string(r)
	}
	return out
}
