/*
Package factory provides JSON to Go policy-rule conversion.

PURPOSE:
  Converts JSON rule-set definitions into absence.PolicyRule values and an
  absence.EntitlementConfig. This enables policy configuration without
  code changes - HR can define rules in JSON, and the factory creates the
  proper Go structs.

JSON SCHEMA:
  {
    "rules": [
      {
        "type": "vacation",
        "min_advance_days": 15,
        "max_consecutive_days": 10,
        "requires_approval": true,
        "approval_levels": ["supervisor", "hr"]
      }
    ],
    "entitlement": {
      "base_days": 10,
      "increment_per_year": 2,
      "ramp_years": 5,
      "block_years": 5,
      "block_increment": 2,
      "monthly_ratio": "1",
      "legal_window_months": 6
    }
  }

DEFAULTS:
  Types absent from "rules" get the standard defaults below; an absent
  "entitlement" section gets absence.DefaultEntitlementConfig(). The
  monthly ratio is parsed as a decimal string so "1.25" stays exact.

USAGE:
  f := factory.NewRuleFactory()
  rules, entitlement, err := f.ParseRuleSet(jsonString)

  // Or just the defaults
  rules := factory.DefaultRules()

SEE ALSO:
  - absence/types.go: PolicyRule definition
  - cmd/server: Seeds the store from a rule-set file at startup
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleSetJSON is the JSON representation of the full policy configuration.
type RuleSetJSON struct {
	Rules       []RuleJSON       `json:"rules"`
	Entitlement *EntitlementJSON `json:"entitlement,omitempty"`
}

// RuleJSON represents one per-type policy rule.
type RuleJSON struct {
	Type               string   `json:"type"`
	MinAdvanceDays     *int     `json:"min_advance_days,omitempty"`
	MaxConsecutiveDays *int     `json:"max_consecutive_days,omitempty"`
	RequiresApproval   *bool    `json:"requires_approval,omitempty"`
	ApprovalLevels     []string `json:"approval_levels,omitempty"`
}

// EntitlementJSON represents the vacation accrual constants.
type EntitlementJSON struct {
	BaseDays          *int   `json:"base_days,omitempty"`
	IncrementPerYear  *int   `json:"increment_per_year,omitempty"`
	RampYears         *int   `json:"ramp_years,omitempty"`
	BlockYears        *int   `json:"block_years,omitempty"`
	BlockIncrement    *int   `json:"block_increment,omitempty"`
	MonthlyRatio      string `json:"monthly_ratio,omitempty"` // decimal string
	LegalWindowMonths *int   `json:"legal_window_months,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultRules returns the standard per-type rules: generous notice for
// vacation, short notice for permission, long spans for leave.
func DefaultRules() []absence.PolicyRule {
	return []absence.PolicyRule{
		{
			Type:               absence.TypeVacation,
			MinAdvanceDays:     15,
			MaxConsecutiveDays: 10,
			RequiresApproval:   true,
			ApprovalLevels:     []absence.Role{absence.RoleSupervisor, absence.RoleHR},
		},
		{
			Type:               absence.TypePermission,
			MinAdvanceDays:     1,
			MaxConsecutiveDays: 3,
			RequiresApproval:   true,
			ApprovalLevels:     []absence.Role{absence.RoleSupervisor},
		},
		{
			Type:               absence.TypeLeave,
			MinAdvanceDays:     30,
			MaxConsecutiveDays: 90,
			RequiresApproval:   true,
			ApprovalLevels:     []absence.Role{absence.RoleSupervisor, absence.RoleHR, absence.RoleDirector},
		},
	}
}

func defaultRule(typ absence.RequestType) (absence.PolicyRule, bool) {
	for _, r := range DefaultRules() {
		if r.Type == typ {
			return r, true
		}
	}
	return absence.PolicyRule{}, false
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts JSON rule sets to Go structs.
type RuleFactory struct{}

// NewRuleFactory creates a new rule factory.
func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseRuleSet parses a JSON rule set, filling gaps with defaults. Every
// request type gets a rule even when the JSON omits it.
func (f *RuleFactory) ParseRuleSet(jsonStr string) ([]absence.PolicyRule, absence.EntitlementConfig, error) {
	var raw RuleSetJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, absence.EntitlementConfig{}, fmt.Errorf("invalid rule set JSON: %w", err)
	}

	byType := make(map[absence.RequestType]absence.PolicyRule)
	for _, rule := range DefaultRules() {
		byType[rule.Type] = rule
	}

	for _, rj := range raw.Rules {
		typ := absence.RequestType(rj.Type)
		if !typ.IsValid() {
			return nil, absence.EntitlementConfig{}, fmt.Errorf("unknown request type %q", rj.Type)
		}
		rule, _ := defaultRule(typ)
		if rj.MinAdvanceDays != nil {
			rule.MinAdvanceDays = *rj.MinAdvanceDays
		}
		if rj.MaxConsecutiveDays != nil {
			rule.MaxConsecutiveDays = *rj.MaxConsecutiveDays
		}
		if rj.RequiresApproval != nil {
			rule.RequiresApproval = *rj.RequiresApproval
		}
		if rj.ApprovalLevels != nil {
			levels, err := parseLevels(rj.ApprovalLevels)
			if err != nil {
				return nil, absence.EntitlementConfig{}, err
			}
			rule.ApprovalLevels = levels
		}
		byType[typ] = rule
	}

	rules := make([]absence.PolicyRule, 0, len(byType))
	for _, typ := range absence.RequestTypes {
		rules = append(rules, byType[typ])
	}

	entitlement, err := f.parseEntitlement(raw.Entitlement)
	if err != nil {
		return nil, absence.EntitlementConfig{}, err
	}
	return rules, entitlement, nil
}

func (f *RuleFactory) parseEntitlement(raw *EntitlementJSON) (absence.EntitlementConfig, error) {
	cfg := absence.DefaultEntitlementConfig()
	if raw == nil {
		return cfg, nil
	}
	if raw.BaseDays != nil {
		cfg.BaseDays = *raw.BaseDays
	}
	if raw.IncrementPerYear != nil {
		cfg.IncrementPerYear = *raw.IncrementPerYear
	}
	if raw.RampYears != nil {
		cfg.RampYears = *raw.RampYears
	}
	if raw.BlockYears != nil {
		cfg.BlockYears = *raw.BlockYears
	}
	if raw.BlockIncrement != nil {
		cfg.BlockIncrement = *raw.BlockIncrement
	}
	if raw.LegalWindowMonths != nil {
		cfg.LegalWindowMonths = *raw.LegalWindowMonths
	}
	if raw.MonthlyRatio != "" {
		ratio, err := decimal.NewFromString(raw.MonthlyRatio)
		if err != nil {
			return cfg, fmt.Errorf("invalid monthly_ratio %q: %w", raw.MonthlyRatio, err)
		}
		cfg.MonthlyRatio = ratio
	}
	return cfg, nil
}

func parseLevels(names []string) ([]absence.Role, error) {
	levels := make([]absence.Role, 0, len(names))
	for _, name := range names {
		role := absence.Role(name)
		if _, ok := absence.StageForRole(role); !ok {
			return nil, fmt.Errorf("role %q cannot appear in an approval chain", name)
		}
		levels = append(levels, role)
	}
	return levels, nil
}
