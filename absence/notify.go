/*
notify.go - Fire-and-forget notification events

PURPOSE:
  The workflow informs an external dispatcher at every transition. The
  engine never consumes a return value and never blocks on delivery
  failures: notification is strictly best-effort.

EVENTS:
  submitted  -> the requester's supervisor (new work for them)
  advanced   -> the requester (the request moved a stage)
  approved   -> the requester
  rejected   -> the requester

SEE ALSO:
  - workflow.go, service.go: Emit events
  - store.go: NotificationStore used by StoreNotifier
*/
package absence

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EVENTS
// =============================================================================

type EventKind string

const (
	EventSubmitted EventKind = "submitted"
	EventAdvanced  EventKind = "advanced"
	EventApproved  EventKind = "approved"
	EventRejected  EventKind = "rejected"
)

// Notification is the payload handed to the dispatcher. Collaborators may
// persist and list it; the core only produces it.
type Notification struct {
	ID               string
	UserID           string
	Title            string
	Message          string
	Kind             EventKind
	Read             bool
	CreatedAt        time.Time
	RelatedRequestID string
}

// Notifier receives fire-and-forget events. Implementations must not
// panic; errors are theirs to handle.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind EventKind, n Notification)
}

// =============================================================================
// IMPLEMENTATIONS
// =============================================================================

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, EventKind, Notification) {}

// StoreNotifier persists notifications through a NotificationStore so the
// API can list them. Persistence failures are logged and dropped: delivery
// is best-effort by contract and never blocks a transition.
type StoreNotifier struct {
	Store NotificationStore
}

func (sn *StoreNotifier) Notify(ctx context.Context, userID string, kind EventKind, n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.UserID = userID
	n.Kind = kind
	if err := sn.Store.SaveNotification(ctx, n); err != nil {
		log.Printf("notify: failed to save %s notification for %s: %v", kind, userID, err)
	}
}

// MemoryNotifier records events in order. Test helper.
type MemoryNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (mn *MemoryNotifier) Notify(_ context.Context, userID string, kind EventKind, n Notification) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	n.UserID = userID
	n.Kind = kind
	mn.events = append(mn.events, n)
}

// Events returns a copy of everything notified so far.
func (mn *MemoryNotifier) Events() []Notification {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	out := make([]Notification, len(mn.events))
	copy(out, mn.events)
	return out
}
