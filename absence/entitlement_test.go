/*
entitlement_test.go - Entitlement calculation behavior

Covers the seniority ramp for fixed contracts, the proportional monthly
accrual for temporary contracts, the anniversary-anchored service window,
and the degraded fallbacks when the hire date is unknown.
*/
package absence_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/absence-engine/absence"
)

func fixedEmployee(hire time.Time) absence.Employee {
	return absence.Employee{
		ID:           "emp-1",
		Name:         "Test Employee",
		Role:         absence.RoleEmployee,
		HireDate:     hire,
		ContractType: absence.ContractFixed,
	}
}

func tempEmployee(hire time.Time) absence.Employee {
	e := fixedEmployee(hire)
	e.ContractType = absence.ContractTemporary
	return e
}

// =============================================================================
// FIXED CONTRACTS
// =============================================================================

func TestFixedEntitlement_SeniorityRamp(t *testing.T) {
	// GIVEN: the default constants (10 base, +2/year through year 5,
	//        then +2 per completed 5-year block)
	// WHEN:  computing entitlement at increasing seniorities
	// THEN:  the ramp holds exactly, with no rounding up of partial years

	cfg := absence.DefaultEntitlementConfig()
	asOf := absence.Date(2026, time.June, 1)

	tests := []struct {
		name  string
		hire  time.Time
		wantD int
	}{
		{"hired today", absence.Date(2026, time.June, 1), 10},
		{"one day short of a year", absence.Date(2025, time.June, 2), 10},
		{"exactly one year", absence.Date(2025, time.June, 1), 12},
		{"two years", absence.Date(2024, time.June, 1), 14},
		{"three years", absence.Date(2023, time.June, 1), 16},
		{"four years", absence.Date(2022, time.June, 1), 18},
		{"five years, ramp tops out", absence.Date(2021, time.June, 1), 20},
		{"six years, inside first block", absence.Date(2020, time.June, 1), 20},
		{"nine years, block not complete", absence.Date(2017, time.June, 1), 20},
		{"ten years, first block complete", absence.Date(2016, time.June, 1), 22},
		{"fourteen years, still one block", absence.Date(2012, time.June, 1), 22},
		{"fifteen years, second block", absence.Date(2011, time.June, 1), 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.Fixed(fixedEmployee(tt.hire), asOf)
			if got != tt.wantD {
				t.Errorf("Fixed(hire=%s) = %d days, want %d",
					tt.hire.Format("2006-01-02"), got, tt.wantD)
			}
		})
	}
}

func TestFixedEntitlement_AnniversaryBoundary(t *testing.T) {
	// GIVEN: an employee hired 2024-03-15
	// WHEN:  computing entitlement the day before, on, and after the
	//        second anniversary
	// THEN:  the bump lands exactly on the anniversary

	cfg := absence.DefaultEntitlementConfig()
	emp := fixedEmployee(absence.Date(2024, time.March, 15))

	if got := cfg.Fixed(emp, absence.Date(2026, time.March, 14)); got != 12 {
		t.Errorf("day before anniversary: got %d, want 12", got)
	}
	if got := cfg.Fixed(emp, absence.Date(2026, time.March, 15)); got != 14 {
		t.Errorf("on anniversary: got %d, want 14", got)
	}
	if got := cfg.Fixed(emp, absence.Date(2026, time.March, 16)); got != 14 {
		t.Errorf("day after anniversary: got %d, want 14", got)
	}
}

func TestFixedEntitlement_UnknownHireDate_FallsBackToBase(t *testing.T) {
	// GIVEN: an employee with no recorded hire date
	// THEN:  the raw base applies, regardless of the as-of date

	cfg := absence.DefaultEntitlementConfig()
	emp := fixedEmployee(time.Time{})

	if got := cfg.Fixed(emp, absence.Date(2026, time.June, 1)); got != cfg.BaseDays {
		t.Errorf("got %d, want base %d", got, cfg.BaseDays)
	}
}

// =============================================================================
// TEMPORARY CONTRACTS
// =============================================================================

func TestTemporaryEntitlement_CompleteMonths(t *testing.T) {
	// GIVEN: a temporary employee hired 2026-01-15, ratio 1 day/month
	// WHEN:  computing entitlement through the service year
	// THEN:  only complete months count; the month completes when the
	//        as-of day-of-month reaches the hire day-of-month

	cfg := absence.DefaultEntitlementConfig()
	emp := tempEmployee(absence.Date(2026, time.January, 15))

	tests := []struct {
		name  string
		asOf  time.Time
		wantD int
	}{
		{"hire day", absence.Date(2026, time.January, 15), 0},
		{"mid first month", absence.Date(2026, time.February, 10), 0},
		{"first month complete", absence.Date(2026, time.February, 15), 1},
		{"day before third month", absence.Date(2026, time.April, 14), 2},
		{"three months", absence.Date(2026, time.April, 15), 3},
		{"eleven months", absence.Date(2026, time.December, 20), 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.Temporary(emp, tt.asOf)
			if got != tt.wantD {
				t.Errorf("Temporary(asOf=%s) = %d, want %d",
					tt.asOf.Format("2006-01-02"), got, tt.wantD)
			}
		})
	}
}

func TestTemporaryEntitlement_FractionalRatioFloors(t *testing.T) {
	// GIVEN: a ratio of 1.25 days per month
	// WHEN:  three months are complete
	// THEN:  3 * 1.25 = 3.75 floors to 3

	cfg := absence.DefaultEntitlementConfig()
	cfg.MonthlyRatio = decimal.RequireFromString("1.25")
	emp := tempEmployee(absence.Date(2026, time.January, 1))

	if got := cfg.Temporary(emp, absence.Date(2026, time.April, 1)); got != 3 {
		t.Errorf("got %d, want 3 (floored)", got)
	}
}

func TestTemporaryEntitlement_UnknownHireDate_FallsBackToZero(t *testing.T) {
	cfg := absence.DefaultEntitlementConfig()
	emp := tempEmployee(time.Time{})

	if got := cfg.Temporary(emp, absence.Date(2026, time.June, 1)); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestTemporaryEntitlement_ResetsEachServiceYear(t *testing.T) {
	// GIVEN: a temporary employee hired 2024-05-01
	// WHEN:  computing entitlement just after the 2026 anniversary
	// THEN:  accrual counts from the current window start, not from hire

	cfg := absence.DefaultEntitlementConfig()
	emp := tempEmployee(absence.Date(2024, time.May, 1))

	if got := cfg.Temporary(emp, absence.Date(2026, time.July, 1)); got != 2 {
		t.Errorf("got %d, want 2 (two months into the current window)", got)
	}
}

// =============================================================================
// SERVICE WINDOW
// =============================================================================

func TestServiceYearWindow_AnchoredToAnniversary(t *testing.T) {
	// GIVEN: an employee hired 2024-03-15
	// WHEN:  asking for the window containing 2026-06-01
	// THEN:  the window runs [2026-03-15, 2027-03-15)

	emp := fixedEmployee(absence.Date(2024, time.March, 15))

	window, ok := absence.ServiceYearWindow(emp, absence.Date(2026, time.June, 1))
	if !ok {
		t.Fatal("expected a window for a known hire date")
	}
	if !window.Start.Equal(absence.Date(2026, time.March, 15)) {
		t.Errorf("window start = %s, want 2026-03-15", window.Start.Format("2006-01-02"))
	}
	if !window.End.Equal(absence.Date(2027, time.March, 15)) {
		t.Errorf("window end = %s, want 2027-03-15", window.End.Format("2006-01-02"))
	}

	// Half-open: the end day belongs to the next window.
	if window.Contains(absence.Date(2027, time.March, 15)) {
		t.Error("window end day must not be contained")
	}
	if !window.Contains(absence.Date(2026, time.March, 15)) {
		t.Error("window start day must be contained")
	}
}

func TestServiceYearWindow_BeforeFirstAnniversary(t *testing.T) {
	// A window exists from day one: it is the hire year itself.
	emp := fixedEmployee(absence.Date(2026, time.February, 1))

	window, ok := absence.ServiceYearWindow(emp, absence.Date(2026, time.July, 1))
	if !ok {
		t.Fatal("expected a window")
	}
	if !window.Start.Equal(absence.Date(2026, time.February, 1)) {
		t.Errorf("window start = %s, want hire date", window.Start.Format("2006-01-02"))
	}
}

func TestServiceYearWindow_UnknownHireDate(t *testing.T) {
	_, ok := absence.ServiceYearWindow(fixedEmployee(time.Time{}), absence.Date(2026, time.June, 1))
	if ok {
		t.Error("no window should be established without a hire date")
	}
}

func TestSummarize_ReportsWindowAndEntitlement(t *testing.T) {
	cfg := absence.DefaultEntitlementConfig()
	emp := fixedEmployee(absence.Date(2023, time.June, 1))

	sum := cfg.Summarize(emp, absence.Date(2026, time.August, 1))
	if sum.SeniorityYears != 3 {
		t.Errorf("seniority = %d, want 3", sum.SeniorityYears)
	}
	if sum.EntitlementDays != 16 {
		t.Errorf("entitlement = %d, want 16", sum.EntitlementDays)
	}
	if !sum.WindowEstablished {
		t.Error("window should be established")
	}
	if !sum.Window.Start.Equal(absence.Date(2026, time.June, 1)) {
		t.Errorf("window start = %s, want 2026-06-01", sum.Window.Start.Format("2006-01-02"))
	}
}

func TestLegalWindow_ClampsPastDates(t *testing.T) {
	// GIVEN: a service window starting 2026-06-01 and a 6-month legal limit
	// WHEN:  today is two months into the window
	// THEN:  the usable interval starts today and still ends at the limit

	cfg := absence.DefaultEntitlementConfig()
	window := absence.ServiceWindow{
		Start: absence.Date(2026, time.June, 1),
		End:   absence.Date(2027, time.June, 1),
	}

	legal := cfg.LegalWindow(window, absence.Date(2026, time.August, 1))
	if !legal.Start.Equal(absence.Date(2026, time.August, 1)) {
		t.Errorf("legal start = %s, want today", legal.Start.Format("2006-01-02"))
	}
	if !legal.End.Equal(absence.Date(2026, time.December, 1)) {
		t.Errorf("legal end = %s, want 2026-12-01", legal.End.Format("2006-01-02"))
	}
}
