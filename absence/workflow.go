/*
workflow.go - Approval state machine

PURPOSE:
  Owns the lifecycle of an admitted request: who may act, how (status,
  stage) moves, what lands in the history trail, and which event the
  notification dispatcher hears about.

STATE SPACE:
  status {pending, in_review} x stage {supervisor, hr, director}
  terminal: approved (stage completed) and rejected (stage frozen)

TRANSITIONS:
  advance  non-final stage -> next stage, status becomes in_review.
           No history entry: only decisions that change status are
           historically logged. That asymmetry is deliberate.
  approve  final stage only -> approved/completed, approvedBy/Date set,
           one history entry appended
  reject   any stage -> rejected, rejectionReason set, one history entry,
           stage frozen where the rejection occurred

AUTHORIZATION:
  A pure predicate, separate from the transition itself: role must match
  the current stage, and supervisors may only act on their own direct
  reports. Terminal requests are invisible for action. An unauthorized
  attempt is a precondition violation - no state change, no event.

CONCURRENCY:
  Transition is pure; Engine.Act applies its result with a store-level
  compare-and-swap on the request version. A lost race surfaces as
  ErrStaleState and the caller re-fetches.

SEE ALSO:
  - store.go: UpdateRequest CAS contract
  - service.go: SubmitRequest admission and balance views
*/
package absence

import (
	"context"
	"time"
)

// =============================================================================
// ACTIONS
// =============================================================================

type Action string

const (
	ActionAdvance Action = "advance"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func (a Action) IsValid() bool {
	return a == ActionAdvance || a == ActionApprove || a == ActionReject
}

// =============================================================================
// AUTHORIZATION - pure predicate over actor and request
// =============================================================================

// CanAct decides whether actor may act on the request at its current
// stage. requester is the request's owner, needed for the reporting-line
// check. Returns nil when the actor is eligible; otherwise a terminal or
// authorization error describing the refusal.
func CanAct(actor Employee, requester Employee, r *Request) error {
	if r.IsTerminal() {
		return ErrTerminalRequest
	}
	role, ok := RoleForStage(r.Stage)
	if !ok {
		return &AuthorizationError{ActorID: actor.ID, RequestID: r.ID, Stage: r.Stage,
			Reason: "stage accepts no actions"}
	}
	if actor.Role != role {
		return &AuthorizationError{ActorID: actor.ID, RequestID: r.ID, Stage: r.Stage,
			Reason: "stage belongs to role " + string(role)}
	}
	if r.Stage == StageSupervisor && requester.SupervisorID != actor.ID {
		return &AuthorizationError{ActorID: actor.ID, RequestID: r.ID, Stage: r.Stage,
			Reason: "requester is not in this supervisor's reporting line"}
	}
	return nil
}

// =============================================================================
// TRANSITION - pure state function
// =============================================================================

// Transition computes the request state after an authorized action. It
// never touches storage; Engine.Act composes it with CanAct and the CAS
// write. The input request is not mutated.
func Transition(r Request, rule PolicyRule, actor Employee, action Action, reason string, now time.Time) (Request, EventKind, error) {
	switch action {
	case ActionAdvance:
		next, ok := rule.NextStage(r.Stage)
		if !ok {
			// Advancing past the final stage is undefined; the final
			// stage decides, it does not forward.
			return r, "", ErrInvalidAction
		}
		r.Stage = next
		r.Status = StatusInReview
		return r, EventAdvanced, nil

	case ActionApprove:
		if !rule.IsFinalStage(r.Stage) {
			return r, "", ErrInvalidAction
		}
		r.Status = StatusApproved
		r.Stage = StageCompleted
		r.ApprovedBy = actor.ID
		r.ApprovedDate = now
		r.History = append(r.History, HistoryEntry{
			Action: HistoryApproved,
			By:     actor.ID,
			Date:   now,
		})
		return r, EventApproved, nil

	case ActionReject:
		r.Status = StatusRejected
		// Stage stays where the rejection occurred.
		r.RejectionReason = reason
		r.History = append(r.History, HistoryEntry{
			Action: HistoryRejected,
			By:     actor.ID,
			Date:   now,
			Reason: reason,
		})
		return r, EventRejected, nil
	}

	return r, "", ErrInvalidAction
}

// =============================================================================
// ENGINE - entry point composing authorization, transition and CAS
// =============================================================================

// Engine applies actor decisions to stored requests.
type Engine struct {
	Store    Store
	Notifier Notifier

	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time
}

func (en *Engine) now() time.Time {
	if en.Now != nil {
		return en.Now()
	}
	return time.Now()
}

func (en *Engine) notifier() Notifier {
	if en.Notifier != nil {
		return en.Notifier
	}
	return NopNotifier{}
}

// Act fetches the request, authorizes the actor, computes the transition
// and applies it with a compare-and-swap on the request version. On
// success the dispatcher is informed; on any failure nothing changes and
// no event is emitted.
func (en *Engine) Act(ctx context.Context, requestID, actorID string, action Action, reason string) (*Request, error) {
	if !action.IsValid() {
		return nil, ErrInvalidAction
	}

	r, err := en.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	actor, err := en.Store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	requester, err := en.Store.GetEmployee(ctx, r.EmployeeID)
	if err != nil {
		return nil, err
	}
	rule, err := en.Store.GetPolicyRule(ctx, r.Type)
	if err != nil {
		return nil, err
	}

	if err := CanAct(*actor, *requester, r); err != nil {
		return nil, err
	}

	next, event, err := Transition(*r, *rule, *actor, action, reason, en.now())
	if err != nil {
		return nil, err
	}

	if err := en.Store.UpdateRequest(ctx, next, r.Version); err != nil {
		return nil, err
	}
	next.Version = r.Version + 1

	en.emit(ctx, &next, event, actor)
	return &next, nil
}

// emit informs the dispatcher about a committed transition. Fire and
// forget: the requester hears about every transition on their request.
func (en *Engine) emit(ctx context.Context, r *Request, event EventKind, actor *Employee) {
	n := Notification{
		Title:            eventTitle(event),
		Message:          eventMessage(event, r, actor),
		RelatedRequestID: r.ID,
	}
	en.notifier().Notify(ctx, r.EmployeeID, event, n)
}

func eventTitle(event EventKind) string {
	switch event {
	case EventAdvanced:
		return "Request moved forward"
	case EventApproved:
		return "Request approved"
	case EventRejected:
		return "Request rejected"
	case EventSubmitted:
		return "New request received"
	}
	return "Request update"
}

func eventMessage(event EventKind, r *Request, actor *Employee) string {
	switch event {
	case EventAdvanced:
		return "Your " + string(r.Type) + " request is now awaiting " + string(r.Stage) + " review"
	case EventApproved:
		return "Your " + string(r.Type) + " request was approved by " + actor.Name
	case EventRejected:
		msg := "Your " + string(r.Type) + " request was rejected by " + actor.Name
		if r.RejectionReason != "" {
			msg += ": " + r.RejectionReason
		}
		return msg
	}
	return ""
}
