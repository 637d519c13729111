/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates an org chart, policy
	rules, and absence requests that demonstrate specific features.

AVAILABLE SCENARIOS:

	small-team:      Four-person reporting chain, no requests yet
	approval-chain:  A leave request mid-way through the three-stage chain
	busy-quarter:    Mixed request types in several workflow states

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed default policy rules
 3. Create the reporting chain (employee -> supervisor -> hr -> director)
 4. Submit and optionally act on requests

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "approval-chain"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/policy.go: Default rule definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/absence-engine/absence"
	"github.com/warp/absence-engine/factory"
)

// Resetter is implemented by stores that can wipe themselves for demo
// reloads. The SQLite store implements it; production stores need not.
type Resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "small-team",
		Name:        "Small Team",
		Description: "Four-person reporting chain with default policy rules",
	},
	{
		ID:          "approval-chain",
		Name:        "Approval Chain",
		Description: "A 30-day leave request advanced to the HR stage",
	},
	{
		ID:          "busy-quarter",
		Name:        "Busy Quarter",
		Description: "Vacation, permission and leave requests in mixed states",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	resetter, ok := h.Store.(Resetter)
	if !ok {
		writeError(w, http.StatusBadRequest, "Store does not support scenario reloads", nil)
		return
	}

	ctx := r.Context()
	if err := resetter.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "small-team":
		err = h.loadSmallTeamScenario(ctx)
	case "approval-chain":
		err = h.loadApprovalChainScenario(ctx)
	case "busy-quarter":
		err = h.loadBusyQuarterScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) clock() time.Time {
	if h.Svc.Now != nil {
		return h.Svc.Now()
	}
	return time.Now()
}

// seedOrg creates the default rules and the four-person reporting chain
// shared by every scenario. Hire dates are anchored to the current clock
// so seniority and service windows stay meaningful.
func (h *Handler) seedOrg(ctx context.Context) error {
	if err := SeedDefaultRules(ctx, h.Store); err != nil {
		return err
	}

	now := h.clock()
	chain := []absence.Employee{
		{
			ID: "emp-diego", Name: "Diego Morales", Email: "diego@example.com",
			Department: "Engineering", Position: "Developer",
			Role: absence.RoleEmployee, SupervisorID: "sup-carla",
			HireDate:     absence.Date(now.Year()-3, now.Month(), 1),
			ContractType: absence.ContractFixed,
		},
		{
			ID: "sup-carla", Name: "Carla Reyes", Email: "carla@example.com",
			Department: "Engineering", Position: "Team Lead",
			Role:         absence.RoleSupervisor,
			HireDate:     absence.Date(now.Year()-6, 3, 15),
			ContractType: absence.ContractFixed,
		},
		{
			ID: "hr-marta", Name: "Marta Silva", Email: "marta@example.com",
			Department: "People", Position: "HR Manager",
			Role:         absence.RoleHR,
			HireDate:     absence.Date(now.Year()-8, 6, 1),
			ContractType: absence.ContractFixed,
		},
		{
			ID: "dir-tomas", Name: "Tomas Ferrer", Email: "tomas@example.com",
			Department: "Executive", Position: "Director",
			Role:         absence.RoleDirector,
			HireDate:     absence.Date(now.Year()-10, 1, 10),
			ContractType: absence.ContractFixed,
		},
	}
	// Managers first so reporting-line checks can resolve them.
	for i := len(chain) - 1; i >= 0; i-- {
		if _, err := h.Svc.CreateEmployee(ctx, chain[i]); err != nil {
			return fmt.Errorf("seed employee %s: %w", chain[i].ID, err)
		}
	}
	return nil
}

func (h *Handler) loadSmallTeamScenario(ctx context.Context) error {
	return h.seedOrg(ctx)
}

func (h *Handler) loadApprovalChainScenario(ctx context.Context) error {
	if err := h.seedOrg(ctx); err != nil {
		return err
	}

	now := h.clock()
	start := absence.Day(now).AddDate(0, 2, 0)
	req, err := h.Svc.SubmitRequest(ctx, absence.Request{
		EmployeeID: "emp-diego",
		Type:       absence.TypeLeave,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 29),
		Reason:     "Parental leave for our second child",
		Category:   absence.CategoryParental,
	})
	if err != nil {
		return fmt.Errorf("submit leave request: %w", err)
	}

	// Supervisor signs off; the request now sits with HR.
	if _, err := h.Svc.ActOnRequest(ctx, req.ID, "sup-carla", absence.ActionAdvance, ""); err != nil {
		return fmt.Errorf("advance to hr: %w", err)
	}
	return nil
}

func (h *Handler) loadBusyQuarterScenario(ctx context.Context) error {
	if err := h.seedOrg(ctx); err != nil {
		return err
	}

	today := absence.Day(h.clock())

	// Vacation, approved end to end.
	vac, err := h.Svc.SubmitRequest(ctx, absence.Request{
		EmployeeID: "emp-diego",
		Type:       absence.TypeVacation,
		StartDate:  today.AddDate(0, 1, 0),
		EndDate:    today.AddDate(0, 1, 4),
	})
	if err != nil {
		return fmt.Errorf("submit vacation: %w", err)
	}
	if _, err := h.Svc.ActOnRequest(ctx, vac.ID, "sup-carla", absence.ActionAdvance, ""); err != nil {
		return err
	}
	if _, err := h.Svc.ActOnRequest(ctx, vac.ID, "hr-marta", absence.ActionApprove, ""); err != nil {
		return err
	}

	// Permission, still waiting on the supervisor.
	if _, err := h.Svc.SubmitRequest(ctx, absence.Request{
		EmployeeID:     "emp-diego",
		Type:           absence.TypePermission,
		StartDate:      today.AddDate(0, 0, 10),
		EndDate:        today.AddDate(0, 0, 10),
		Reason:         "Cardiology check-up at the clinic",
		Category:       absence.CategoryMedicalAppointment,
		AttachmentRef:  "attachments/appointment-confirmation.pdf",
		AttachmentSize: 120 << 10,
	}); err != nil {
		return fmt.Errorf("submit permission: %w", err)
	}

	// Leave, rejected by the supervisor.
	leave, err := h.Svc.SubmitRequest(ctx, absence.Request{
		EmployeeID: "emp-diego",
		Type:       absence.TypeLeave,
		StartDate:  today.AddDate(0, 3, 0),
		EndDate:    today.AddDate(0, 3, 20),
		Reason:     "Unpaid sabbatical to finish my degree",
		Category:   absence.CategoryStudy,
	})
	if err != nil {
		return fmt.Errorf("submit leave: %w", err)
	}
	if _, err := h.Svc.ActOnRequest(ctx, leave.ID, "sup-carla", absence.ActionReject, "Quarter close overlaps the requested dates"); err != nil {
		return err
	}
	return nil
}

// SeedDefaultRules writes the default per-type rules into the store unless
// a rule for the type already exists. cmd/server calls this on startup so
// a fresh database is immediately usable.
func SeedDefaultRules(ctx context.Context, store absence.PolicyStore) error {
	for _, rule := range factory.DefaultRules() {
		existing, err := store.GetPolicyRule(ctx, rule.Type)
		if err != nil && !absence.IsNotFound(err) {
			return err
		}
		if existing != nil {
			continue
		}
		if err := store.SavePolicyRule(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}
