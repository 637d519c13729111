/*
handlers.go - HTTP API handlers for the absence management system

PURPOSE:
  Exposes the absence engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic in the absence package.

ENDPOINTS:
  Employees:
    GET    /api/employees                  List employees (filterable)
    POST   /api/employees                  Create employee
    GET    /api/employees/{id}             Get employee details
    GET    /api/employees/{id}/entitlement Accrual summary and balance
    GET    /api/employees/{id}/requests    Non-rejected requests
    POST   /api/employees/{id}/requests    Submit absence request

  Requests:
    GET    /api/requests/{id}              Get request with history
    GET    /api/requests/pending           Pending queue for an actor
    POST   /api/requests/{id}/action       Advance/approve/reject

  Policies:
    GET    /api/policies                   List rules per request type
    GET    /api/policies/{type}            Get one rule
    PUT    /api/policies/{type}            Update rule (hr/director only)
    GET    /api/policies/{type}/changes    Change audit trail

  Notifications:
    GET    /api/notifications/{userID}     List notifications
    POST   /api/notifications/{id}/read    Mark one read

  Auth:
    POST   /api/auth/login                 Credential check, returns employee

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Bad credentials
  - 403: Actor not authorized for the stage
  - 404: Resource not found
  - 409: Lost optimistic-concurrency race, acting on terminal request
  - 422: Admission failed (violations listed in the body)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Svc   *absence.Service
	Store absence.Store

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler around the service.
func NewHandler(svc *absence.Service, store absence.Store) *Handler {
	return &Handler{
		Svc:      svc,
		Store:    store,
		validate: validator.New(),
	}
}

// decodeAndValidate parses the JSON body into dst and runs struct
// validation. It writes the error response itself and reports whether the
// handler should continue.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Request failed validation", err)
		return false
	}
	return true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns employees, optionally filtered by department, role
// or supervisor.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter := absence.EmployeeFilter{
		Department:   r.URL.Query().Get("department"),
		Role:         absence.Role(r.URL.Query().Get("role")),
		SupervisorID: r.URL.Query().Get("supervisor_id"),
	}

	employees, err := h.Svc.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i := range employees {
		dtos[i] = toEmployeeDTO(&employees[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Svc.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	emp := absence.Employee{
		ID:           req.ID,
		Name:         req.Name,
		Email:        req.Email,
		Department:   req.Department,
		Position:     req.Position,
		Role:         absence.Role(req.Role),
		SupervisorID: req.SupervisorID,
		ContractType: absence.ContractType(req.ContractType),
	}
	if req.HireDate != "" {
		hireDate, err := time.Parse(dayFormat, req.HireDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
			return
		}
		emp.HireDate = hireDate
	}
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
			return
		}
		emp.PasswordHash = hash
	}

	created, err := h.Svc.CreateEmployee(r.Context(), emp)
	if err != nil {
		writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(created))
}

// GetEntitlement returns the accrual summary and remaining balance.
func (h *Handler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.Svc.Balance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to compute entitlement", err)
		return
	}

	dto := EntitlementDTO{
		EmployeeID:      view.EmployeeID,
		ContractType:    string(view.Summary.ContractType),
		SeniorityYears:  view.Summary.SeniorityYears,
		EntitlementDays: view.Summary.EntitlementDays,
		UsedDays:        view.UsedDays,
		RemainingDays:   view.Remaining,
	}
	if view.Summary.WindowEstablished {
		start := view.Summary.Window.Start.Format(dayFormat)
		end := view.Summary.Window.End.Format(dayFormat)
		dto.WindowStart = &start
		dto.WindowEnd = &end
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest admits a new absence request for an employee.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var body SubmitRequestDTO
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	startDate, err := time.Parse(dayFormat, body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	endDate, err := time.Parse(dayFormat, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	draft := absence.Request{
		EmployeeID:     employeeID,
		Type:           absence.RequestType(body.Type),
		StartDate:      startDate,
		EndDate:        endDate,
		Reason:         body.Reason,
		Category:       absence.ReasonCategory(body.Category),
		AttachmentRef:  body.AttachmentRef,
		AttachmentSize: body.AttachmentSize,
		Urgent:         body.Urgent,
	}

	created, err := h.Svc.SubmitRequest(r.Context(), draft)
	if err != nil {
		var verr *absence.ValidationError
		if errors.As(err, &verr) {
			resp := ErrorResponse{Error: "Request not admitted"}
			for _, v := range verr.Violations {
				resp.Violations = append(resp.Violations, ViolationDTO{Code: v.Code, Message: v.Message})
			}
			writeJSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		writeDomainError(w, "Failed to submit request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(created))
}

// GetRequest returns a request with its full history.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Svc.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// ListEmployeeRequests returns an employee's non-rejected requests,
// newest first. Pass ?type= to narrow to one request type.
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	typ := absence.RequestType(r.URL.Query().Get("type"))
	if typ != "" && !typ.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown request type", nil)
		return
	}

	requests, err := h.Svc.GetNonRejectedRequests(r.Context(), employeeID, typ)
	if err != nil {
		writeDomainError(w, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(requests))
	for i := range requests {
		dtos[i] = toRequestDTO(&requests[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPendingRequests returns the queue awaiting the given actor.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get("actor_id")
	if actorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id query parameter required", nil)
		return
	}

	requests, err := h.Svc.PendingForActor(r.Context(), actorID)
	if err != nil {
		writeDomainError(w, "Failed to list pending requests", err)
		return
	}

	dtos := make([]RequestDTO, len(requests))
	for i := range requests {
		dtos[i] = toRequestDTO(&requests[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ActOnRequest applies an approval action (advance, approve, reject) to a
// pending request on behalf of an actor.
func (h *Handler) ActOnRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	var body ActionRequest
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	updated, err := h.Svc.ActOnRequest(r.Context(), requestID, body.ActorID, absence.Action(body.Action), body.Reason)
	if err != nil {
		writeDomainError(w, "Failed to apply action", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(updated))
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns the rule for every known request type.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	types := []absence.RequestType{absence.TypeVacation, absence.TypePermission, absence.TypeLeave}

	dtos := make([]PolicyRuleDTO, 0, len(types))
	for _, typ := range types {
		rule, err := h.Svc.GetPolicyRule(r.Context(), typ)
		if err != nil {
			if absence.IsNotFound(err) {
				continue
			}
			writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
			return
		}
		dtos = append(dtos, toPolicyRuleDTO(rule))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPolicy returns the rule for one request type.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	typ := absence.RequestType(chi.URLParam(r, "type"))
	if !typ.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown request type", nil)
		return
	}

	rule, err := h.Svc.GetPolicyRule(r.Context(), typ)
	if err != nil {
		writeDomainError(w, "Failed to get policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyRuleDTO(rule))
}

// UpdatePolicy applies a partial rule update and records the change trail.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	typ := absence.RequestType(chi.URLParam(r, "type"))
	if !typ.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown request type", nil)
		return
	}

	var body UpdatePolicyRequest
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	patch := absence.PolicyPatch{
		MinAdvanceDays:     body.MinAdvanceDays,
		MaxConsecutiveDays: body.MaxConsecutiveDays,
		RequiresApproval:   body.RequiresApproval,
	}
	if body.ApprovalLevels != nil {
		patch.ApprovalLevels = make([]absence.Role, 0, len(body.ApprovalLevels))
		for _, l := range body.ApprovalLevels {
			patch.ApprovalLevels = append(patch.ApprovalLevels, absence.Role(l))
		}
	}

	rule, err := h.Svc.UpdatePolicyRule(r.Context(), typ, patch, body.ActorID)
	if err != nil {
		writeDomainError(w, "Failed to update policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyRuleDTO(rule))
}

// ListPolicyChanges returns the audit trail for one request type.
func (h *Handler) ListPolicyChanges(w http.ResponseWriter, r *http.Request) {
	typ := absence.RequestType(chi.URLParam(r, "type"))
	if !typ.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown request type", nil)
		return
	}

	changes, err := h.Svc.ListPolicyChanges(r.Context(), typ)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policy changes", err)
		return
	}

	dtos := make([]PolicyChangeDTO, len(changes))
	for i := range changes {
		dtos[i] = toPolicyChangeDTO(&changes[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// NOTIFICATION HANDLERS
// =============================================================================

// ListNotifications returns a user's notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	notices, err := h.Store.ListNotifications(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}

	dtos := make([]NotificationDTO, len(notices))
	for i := range notices {
		dtos[i] = toNotificationDTO(&notices[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkNotificationRead flags one notification as read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.MarkNotificationRead(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to mark notification read", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "read": true})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinels to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case absence.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, absence.ErrStaleState),
		errors.Is(err, absence.ErrTerminalRequest):
		writeError(w, http.StatusConflict, message, err)
	case absence.IsAuthorization(err):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, absence.ErrInvalidAction),
		absence.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
