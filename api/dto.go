/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry validator/v10 struct tags. Handlers run
  validate.Struct before touching domain logic, so malformed input is
  rejected with a 400 before it reaches the service layer. Domain rules
  (balances, notice windows, categories) are still enforced by the
  validator in the absence package; the tags only cover shape.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: RuleJSON type
*/
package api

import (
	"time"

	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses. The password hash
// never leaves the server.
type EmployeeDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Department   string `json:"department,omitempty"`
	Position     string `json:"position,omitempty"`
	Role         string `json:"role"`
	SupervisorID string `json:"supervisor_id,omitempty"`
	HireDate     string `json:"hire_date,omitempty"`
	ContractType string `json:"contract_type"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	Role         string `json:"role" validate:"required,oneof=employee supervisor hr director"`
	SupervisorID string `json:"supervisor_id"`
	HireDate     string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	ContractType string `json:"contract_type" validate:"required,oneof=fixed temporary"`
	Password     string `json:"password" validate:"omitempty,min=8"`
}

// LoginRequest authenticates an employee by email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EntitlementDTO is the accrual summary for an employee.
type EntitlementDTO struct {
	EmployeeID      string  `json:"employee_id"`
	ContractType    string  `json:"contract_type"`
	SeniorityYears  int     `json:"seniority_years"`
	EntitlementDays int     `json:"entitlement_days"`
	UsedDays        int     `json:"used_days"`
	RemainingDays   int     `json:"remaining_days"`
	WindowStart     *string `json:"window_start,omitempty"`
	WindowEnd       *string `json:"window_end,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubmitRequestDTO is the body for submitting an absence request.
type SubmitRequestDTO struct {
	Type           string `json:"type" validate:"required,oneof=vacation permission leave"`
	StartDate      string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason         string `json:"reason"`
	Category       string `json:"category"`
	AttachmentRef  string `json:"attachment_ref"`
	AttachmentSize int64  `json:"attachment_size" validate:"min=0"`
	Urgent         bool   `json:"urgent"`
}

// ActionRequest is the body for acting on a pending request.
type ActionRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
	Action  string `json:"action" validate:"required,oneof=advance approve reject"`
	Reason  string `json:"reason"`
}

// HistoryEntryDTO is one audit entry on a request.
type HistoryEntryDTO struct {
	Action string `json:"action"`
	By     string `json:"by"`
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// RequestDTO represents an absence request in API responses.
type RequestDTO struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	Type            string            `json:"type"`
	StartDate       string            `json:"start_date"`
	EndDate         string            `json:"end_date"`
	Days            int               `json:"days"`
	Reason          string            `json:"reason,omitempty"`
	Category        string            `json:"category,omitempty"`
	AttachmentRef   string            `json:"attachment_ref,omitempty"`
	Urgent          bool              `json:"urgent,omitempty"`
	Status          string            `json:"status"`
	Stage           string            `json:"stage"`
	RequestDate     string            `json:"request_date"`
	ApprovedBy      string            `json:"approved_by,omitempty"`
	ApprovedDate    *string           `json:"approved_date,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Version         int64             `json:"version"`
	History         []HistoryEntryDTO `json:"history"`
}

// ViolationDTO is one admission failure.
type ViolationDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// POLICY TYPES
// =============================================================================

// PolicyRuleDTO represents one request-type rule.
type PolicyRuleDTO struct {
	Type               string   `json:"type"`
	MinAdvanceDays     int      `json:"min_advance_days"`
	MaxConsecutiveDays int      `json:"max_consecutive_days"`
	RequiresApproval   bool     `json:"requires_approval"`
	ApprovalLevels     []string `json:"approval_levels"`
}

// UpdatePolicyRequest carries a partial rule update. Nil fields are left
// untouched.
type UpdatePolicyRequest struct {
	ActorID            string   `json:"actor_id" validate:"required"`
	MinAdvanceDays     *int     `json:"min_advance_days" validate:"omitempty,min=0"`
	MaxConsecutiveDays *int     `json:"max_consecutive_days" validate:"omitempty,min=0"`
	RequiresApproval   *bool    `json:"requires_approval"`
	ApprovalLevels     []string `json:"approval_levels" validate:"omitempty,dive,oneof=supervisor hr director"`
}

// PolicyChangeDTO is one audit record of a rule change.
type PolicyChangeDTO struct {
	ID          string `json:"id"`
	RequestType string `json:"request_type"`
	Field       string `json:"field"`
	OldValue    string `json:"old_value"`
	NewValue    string `json:"new_value"`
	ChangedBy   string `json:"changed_by"`
	ChangedAt   string `json:"changed_at"`
}

// =============================================================================
// NOTIFICATION TYPES
// =============================================================================

// NotificationDTO is one delivered notification.
type NotificationDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// =============================================================================
// MISC
// =============================================================================

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error      string         `json:"error"`
	Details    string         `json:"details,omitempty"`
	Violations []ViolationDTO `json:"violations,omitempty"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

const dayFormat = "2006-01-02"

func toEmployeeDTO(e *absence.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Department:   e.Department,
		Position:     e.Position,
		Role:         string(e.Role),
		SupervisorID: e.SupervisorID,
		ContractType: string(e.ContractType),
	}
	if !e.HireDate.IsZero() {
		dto.HireDate = e.HireDate.Format(dayFormat)
	}
	return dto
}

func toRequestDTO(req *absence.Request) RequestDTO {
	dto := RequestDTO{
		ID:              req.ID,
		EmployeeID:      req.EmployeeID,
		Type:            string(req.Type),
		StartDate:       req.StartDate.Format(dayFormat),
		EndDate:         req.EndDate.Format(dayFormat),
		Days:            req.Days,
		Reason:          req.Reason,
		Category:        string(req.Category),
		AttachmentRef:   req.AttachmentRef,
		Urgent:          req.Urgent,
		Status:          string(req.Status),
		Stage:           string(req.Stage),
		RequestDate:     req.RequestDate.Format(dayFormat),
		ApprovedBy:      req.ApprovedBy,
		RejectionReason: req.RejectionReason,
		Version:         req.Version,
		History:         make([]HistoryEntryDTO, 0, len(req.History)),
	}
	if !req.ApprovedDate.IsZero() {
		s := req.ApprovedDate.Format(time.RFC3339)
		dto.ApprovedDate = &s
	}
	for _, h := range req.History {
		dto.History = append(dto.History, HistoryEntryDTO{
			Action: string(h.Action),
			By:     h.By,
			Date:   h.Date.Format(time.RFC3339),
			Reason: h.Reason,
		})
	}
	return dto
}

func toPolicyRuleDTO(rule *absence.PolicyRule) PolicyRuleDTO {
	levels := make([]string, 0, len(rule.ApprovalLevels))
	for _, l := range rule.ApprovalLevels {
		levels = append(levels, string(l))
	}
	return PolicyRuleDTO{
		Type:               string(rule.Type),
		MinAdvanceDays:     rule.MinAdvanceDays,
		MaxConsecutiveDays: rule.MaxConsecutiveDays,
		RequiresApproval:   rule.RequiresApproval,
		ApprovalLevels:     levels,
	}
}

func toPolicyChangeDTO(c *absence.PolicyChange) PolicyChangeDTO {
	return PolicyChangeDTO{
		ID:          c.ID,
		RequestType: string(c.Type),
		Field:       c.Field,
		OldValue:    c.From,
		NewValue:    c.To,
		ChangedBy:   c.Actor,
		ChangedAt:   c.Date.Format(time.RFC3339),
	}
}

func toNotificationDTO(n *absence.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Message,
		RequestID: n.RelatedRequestID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
