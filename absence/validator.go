/*
validator.go - Admission checks for proposed absence requests

PURPOSE:
  Decides whether a proposed request may enter the approval workflow.
  Every applicable rule is evaluated; violations are collected rather than
  short-circuited so the caller can show the complete error list. A request
  is admitted whole or not at all.

CHECKS:
  1. Dates present, end >= start
  2. Type-specific reason: permission/leave pick a category from a closed
     list; evidence-required categories (health-related) need an attachment
     reference within the size limit; vacation gets the canonical reason
     string, never user input; free text, when present, meets the floor
  3. Vacation only: both dates inside the legal window (skipped when no
     service window is established)
  4. Vacation only: requested days fit the remaining balance - entitlement
     minus non-rejected vacation days already booked in the service window
  5. Policy advance-notice and consecutive-day limits when the type
     requires approval

SEE ALSO:
  - entitlement.go: Balance and window inputs
  - service.go: Calls Validate before admitting a request
*/
package absence

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// REASON CATEGORIES
// =============================================================================

// ReasonCategory is a closed, per-type list of admissible reasons for
// permission and leave requests. Vacation requests take no category.
type ReasonCategory string

const (
	// Permission categories
	CategoryMedicalAppointment ReasonCategory = "medical_appointment"
	CategoryOfficialErrand     ReasonCategory = "official_errand"
	CategoryFamilyEvent        ReasonCategory = "family_event"
	CategoryPersonalMatter     ReasonCategory = "personal_matter"

	// Leave categories
	CategoryHealth         ReasonCategory = "health"
	CategoryBereavement    ReasonCategory = "bereavement"
	CategoryMarriage       ReasonCategory = "marriage"
	CategoryParental       ReasonCategory = "parental"
	CategoryStudy          ReasonCategory = "study"
	CategoryPersonalUnpaid ReasonCategory = "personal_unpaid"
)

// CanonicalVacationReason is stored on every vacation request in place of
// user input. The spelling is the one the client asked for.
const CanonicalVacationReason = "vacaiones"

// categoryRules maps each request type to its admissible categories and
// flags the ones that demand supporting evidence.
var categoryRules = map[RequestType]map[ReasonCategory]bool{
	TypePermission: {
		CategoryMedicalAppointment: true, // evidence required
		CategoryOfficialErrand:     false,
		CategoryFamilyEvent:        false,
		CategoryPersonalMatter:     false,
	},
	TypeLeave: {
		CategoryHealth:         true, // evidence required
		CategoryBereavement:    false,
		CategoryMarriage:       false,
		CategoryParental:       false,
		CategoryStudy:          false,
		CategoryPersonalUnpaid: false,
	},
}

// Categories returns the admissible categories for a type, in no
// particular order. Vacation returns nil.
func Categories(t RequestType) []ReasonCategory {
	rules := categoryRules[t]
	out := make([]ReasonCategory, 0, len(rules))
	for c := range rules {
		out = append(out, c)
	}
	return out
}

// RequiresEvidence reports whether a category demands an attachment.
func RequiresEvidence(t RequestType, c ReasonCategory) bool {
	return categoryRules[t][c]
}

// =============================================================================
// VIOLATIONS
// =============================================================================

// Violation identifies one failed admission rule.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Violation codes. Stable identifiers for callers; messages are advisory.
const (
	ViolationInvalidType        = "invalid_type"
	ViolationMissingDates       = "missing_dates"
	ViolationEndBeforeStart     = "end_before_start"
	ViolationMissingCategory    = "missing_reason_category"
	ViolationUnknownCategory    = "unknown_reason_category"
	ViolationEvidenceRequired   = "evidence_required"
	ViolationAttachmentTooLarge = "attachment_too_large"
	ViolationReasonTooShort     = "reason_too_short"
	ViolationOutsideLegalWindow = "outside_legal_window"
	ViolationInsufficientDays   = "insufficient_vacation_balance"
	ViolationAdvanceNotice      = "insufficient_advance_notice"
	ViolationConsecutiveDays    = "exceeds_consecutive_days"
)

func violation(code, format string, args ...any) Violation {
	return Violation{Code: code, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator evaluates proposed requests against entitlement and policy.
// It holds no mutable state and is safe for concurrent use; it must not
// block on the approval workflow.
type Validator struct {
	Entitlement EntitlementConfig

	// MinReasonLength is the floor for free-text reasons when present.
	MinReasonLength int

	// MaxAttachmentSize bounds evidence attachments, in bytes.
	MaxAttachmentSize int64

	// Now supplies "today" for window and notice arithmetic.
	// Defaults to time.Now.
	Now func() time.Time
}

// NewValidator returns a validator with the default limits: 5-character
// reason floor, 5 MiB attachment cap.
func NewValidator(cfg EntitlementConfig) *Validator {
	return &Validator{
		Entitlement:       cfg,
		MinReasonLength:   5,
		MaxAttachmentSize: 5 << 20,
		Now:               time.Now,
	}
}

func (v *Validator) today() time.Time {
	if v.Now != nil {
		return Day(v.Now())
	}
	return Day(time.Now())
}

// Remaining computes the employee's unconsumed vacation days as of today:
// entitlement minus the days of every non-rejected vacation request whose
// start date falls inside the current service window. Pending and approved
// requests both count; rejected ones never do.
func (v *Validator) Remaining(e Employee, existing []Request) int {
	today := v.today()
	entitled := v.Entitlement.Entitlement(e, today)
	window, ok := ServiceYearWindow(e, today)
	if !ok {
		return entitled
	}
	used := 0
	for i := range existing {
		r := &existing[i]
		if r.Type != TypeVacation || r.Status == StatusRejected {
			continue
		}
		if window.Contains(r.StartDate) {
			used += r.Days
		}
	}
	return entitled - used
}

// Validate runs every admission check against the proposed request and
// returns the full list of violations. An empty result means the request
// may be admitted. existing must hold the employee's non-rejected requests;
// rejected ones are tolerated and ignored.
func (v *Validator) Validate(draft Request, e Employee, existing []Request, rule PolicyRule) []Violation {
	var violations []Violation

	if !draft.Type.IsValid() {
		violations = append(violations, violation(ViolationInvalidType, "unknown request type %q", draft.Type))
	}

	// 1. Dates
	datesOK := true
	if draft.StartDate.IsZero() || draft.EndDate.IsZero() {
		violations = append(violations, violation(ViolationMissingDates, "start and end dates are required"))
		datesOK = false
	} else if Day(draft.EndDate).Before(Day(draft.StartDate)) {
		violations = append(violations, violation(ViolationEndBeforeStart, "end date precedes start date"))
		datesOK = false
	}

	// 2. Reason requirements
	violations = append(violations, v.checkReason(draft)...)

	if draft.Type == TypeVacation && datesOK {
		today := v.today()

		// 3. Legal window; skipped when no service window is established.
		if window, ok := ServiceYearWindow(e, today); ok {
			legal := v.Entitlement.LegalWindow(window, today)
			start, end := Day(draft.StartDate), Day(draft.EndDate)
			if start.Before(legal.Start) || end.After(legal.End) {
				violations = append(violations, violation(ViolationOutsideLegalWindow,
					"vacation must fall between %s and %s",
					legal.Start.Format("2006-01-02"), legal.End.Format("2006-01-02")))
			}
		}

		// 4. Balance; requesting exactly the remaining days is allowed.
		days := draft.Days
		if days == 0 {
			days = DaysInclusive(draft.StartDate, draft.EndDate)
		}
		if remaining := v.Remaining(e, existing); days > remaining {
			violations = append(violations, violation(ViolationInsufficientDays,
				"%d days requested, %d remaining", days, remaining))
		}
	}

	// 5. Policy limits
	if rule.RequiresApproval && datesOK {
		today := v.today()
		if notice := DaysBetween(today, draft.StartDate); notice < rule.MinAdvanceDays {
			violations = append(violations, violation(ViolationAdvanceNotice,
				"%d days notice given, %d required", notice, rule.MinAdvanceDays))
		}
		days := draft.Days
		if days == 0 {
			days = DaysInclusive(draft.StartDate, draft.EndDate)
		}
		if rule.MaxConsecutiveDays > 0 && days > rule.MaxConsecutiveDays {
			violations = append(violations, violation(ViolationConsecutiveDays,
				"%d consecutive days requested, at most %d allowed", days, rule.MaxConsecutiveDays))
		}
	}

	return violations
}

// checkReason enforces the type-specific reason rules.
func (v *Validator) checkReason(draft Request) []Violation {
	var violations []Violation

	switch draft.Type {
	case TypeVacation:
		// Reason is canonical, not user input; nothing to check here.
		// service.go overwrites whatever the caller sent.

	case TypePermission, TypeLeave:
		rules := categoryRules[draft.Type]
		if draft.Category == "" {
			violations = append(violations, violation(ViolationMissingCategory,
				"%s requests require a reason category", draft.Type))
		} else if _, ok := rules[draft.Category]; !ok {
			violations = append(violations, violation(ViolationUnknownCategory,
				"%q is not an admissible %s category", draft.Category, draft.Type))
		} else if rules[draft.Category] {
			// Evidence-required category.
			if draft.AttachmentRef == "" {
				violations = append(violations, violation(ViolationEvidenceRequired,
					"category %q requires a supporting attachment", draft.Category))
			} else if v.MaxAttachmentSize > 0 && draft.AttachmentSize > v.MaxAttachmentSize {
				violations = append(violations, violation(ViolationAttachmentTooLarge,
					"attachment is %d bytes, limit is %d", draft.AttachmentSize, v.MaxAttachmentSize))
			}
		}

		// Free-text description needs the floor only when present.
		if trimmed := strings.TrimSpace(draft.Reason); trimmed != "" && len(trimmed) < v.MinReasonLength {
			violations = append(violations, violation(ViolationReasonTooShort,
				"reason must be at least %d characters", v.MinReasonLength))
		}
	}

	return violations
}
