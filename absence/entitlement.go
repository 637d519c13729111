/*
entitlement.go - Vacation entitlement calculation

PURPOSE:
  Pure functions of (employee, as-of date, policy constants) that answer
  two questions:
  1. Which one-year service window, anchored to the hire-date anniversary,
     contains the as-of date?
  2. How many vacation days has the employee earned for that window?

CONTRACT TYPES:
  Fixed:
    Base days at year 0, +increment per full year through year 5, then
    +block increment per completed block of years beyond 5. Partial years
    never round up.

	years:  0   1   2   3   4   5   6..9  10  11..14  15
	days:  10  12  14  16  18  20   22    24    24    26   (defaults)

  Temporary:
    Proportional accrual: complete months elapsed since the service-window
    start, times a day-per-month ratio, floored to an integer. A month is
    complete only once the as-of day-of-month reaches the window-start
    day-of-month.

MISSING HIRE DATE:
  No window can be established. Fixed contracts fall back to the raw base;
  temporary contracts fall back to 0. Summary.WindowEstablished tells the
  validator to relax legal-window checks.

SIDE EFFECTS: none. ERRORS: none.

SEE ALSO:
  - validator.go: Consumes Entitlement and ServiceYearWindow
  - config/: Overrides the constants from YAML
*/
package absence

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

// EntitlementConfig holds the vacation accrual constants.
type EntitlementConfig struct {
	// Fixed contracts: base at year 0, early ramp, then periodic bumps.
	BaseDays         int
	IncrementPerYear int // applied per full year through RampYears
	RampYears        int // length of the early ramp (5)
	BlockYears       int // size of each post-ramp block (5)
	BlockIncrement   int // days added per completed block

	// Temporary contracts: days earned per complete month of service.
	// Decimal so fractional ratios (e.g. 1.25 days/month) stay exact.
	MonthlyRatio decimal.Decimal

	// LegalWindowMonths bounds when vacation for a service year must be
	// taken, counted from the window start.
	LegalWindowMonths int
}

// DefaultEntitlementConfig returns the standard constants: 10 base days,
// +2 per year through year 5, +2 per 5-year block after that, 1 day per
// complete month for temporary contracts, 6-month legal window.
func DefaultEntitlementConfig() EntitlementConfig {
	return EntitlementConfig{
		BaseDays:          10,
		IncrementPerYear:  2,
		RampYears:         5,
		BlockYears:        5,
		BlockIncrement:    2,
		MonthlyRatio:      decimal.NewFromInt(1),
		LegalWindowMonths: 6,
	}
}

// =============================================================================
// SERVICE YEAR
// =============================================================================

// ServiceWindow is the [Start, End) one-year interval anchored to a
// hire-date anniversary. End is always exactly one year after Start.
type ServiceWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w ServiceWindow) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.Start) && d.Before(w.End)
}

// SeniorityYears counts full years of service at asOf, anniversary-based:
// a year is counted only once asOf has reached the anniversary month/day.
// Unknown hire date counts as 0.
func SeniorityYears(e Employee, asOf time.Time) int {
	if e.HireDate.IsZero() {
		return 0
	}
	hire := Day(e.HireDate)
	at := Day(asOf)
	years := at.Year() - hire.Year()
	anniversary := Date(at.Year(), hire.Month(), hire.Day())
	if at.Before(anniversary) {
		years--
	}
	return years
}

// ServiceYearWindow returns the service window containing asOf.
// ok is false when no window can be established (unknown hire date).
func ServiceYearWindow(e Employee, asOf time.Time) (ServiceWindow, bool) {
	if e.HireDate.IsZero() {
		return ServiceWindow{}, false
	}
	years := SeniorityYears(e, asOf)
	start := Day(e.HireDate).AddDate(years, 0, 0)
	return ServiceWindow{Start: start, End: start.AddDate(1, 0, 0)}, true
}

// =============================================================================
// ENTITLEMENT
// =============================================================================

// Fixed computes the entitled days for a fixed contract at asOf.
// Falls back to the raw base when the hire date is unknown.
func (c EntitlementConfig) Fixed(e Employee, asOf time.Time) int {
	if e.HireDate.IsZero() {
		return c.BaseDays
	}
	years := SeniorityYears(e, asOf)
	if years <= 0 {
		return c.BaseDays
	}
	if years <= c.RampYears {
		return c.BaseDays + years*c.IncrementPerYear
	}
	blocks := 0
	if c.BlockYears > 0 {
		blocks = (years - c.RampYears) / c.BlockYears
	}
	return c.BaseDays + c.RampYears*c.IncrementPerYear + blocks*c.BlockIncrement
}

// Temporary computes the entitled days for a temporary contract at asOf:
// complete months since the window start, times MonthlyRatio, floored.
// Falls back to 0 when no window is established.
func (c EntitlementConfig) Temporary(e Employee, asOf time.Time) int {
	window, ok := ServiceYearWindow(e, asOf)
	if !ok {
		return 0
	}
	months := completeMonths(window.Start, asOf)
	days := int(decimal.NewFromInt(int64(months)).Mul(c.MonthlyRatio).IntPart())
	if days < 0 {
		return 0
	}
	return days
}

// Entitlement dispatches on the contract type. Employees without a
// contract type are treated as fixed.
func (c EntitlementConfig) Entitlement(e Employee, asOf time.Time) int {
	if e.ContractType == ContractTemporary {
		return c.Temporary(e, asOf)
	}
	return c.Fixed(e, asOf)
}

// completeMonths counts full calendar months from a to b. The last month
// is complete only when b's day-of-month has reached a's day-of-month.
func completeMonths(a, b time.Time) int {
	a, b = Day(a), Day(b)
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the downstream-facing entitlement breakdown. The validator
// keys off WindowEstablished to relax legal-window checks, and collaborators
// display the rest.
type Summary struct {
	ContractType      ContractType
	SeniorityYears    int
	Window            ServiceWindow
	WindowEstablished bool
	EntitlementDays   int
}

// Summarize computes the full entitlement picture for an employee at asOf.
func (c EntitlementConfig) Summarize(e Employee, asOf time.Time) Summary {
	window, ok := ServiceYearWindow(e, asOf)
	return Summary{
		ContractType:      e.ContractType,
		SeniorityYears:    SeniorityYears(e, asOf),
		Window:            window,
		WindowEstablished: ok,
		EntitlementDays:   c.Entitlement(e, asOf),
	}
}

// LegalWindow is the period during which vacation for the current service
// year must start and end: from the later of the window start and today,
// through LegalWindowMonths after the window start.
func (c EntitlementConfig) LegalWindow(window ServiceWindow, today time.Time) ServiceWindow {
	start := window.Start
	if Day(today).After(start) {
		start = Day(today)
	}
	return ServiceWindow{Start: start, End: window.Start.AddDate(0, c.LegalWindowMonths, 0)}
}
