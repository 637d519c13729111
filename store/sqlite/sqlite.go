/*
Package sqlite provides a SQLite-backed implementation of the absence
store interfaces.

PURPOSE:
  Implements absence.Store (employees, requests, policy rules, policy
  changes, notifications) using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees       Entity records with the supervisor weak reference
  requests        Versioned request rows (the CAS anchor)
  request_history Append-only terminal decision trail
  policy_rules    One row per request type
  policy_changes  Append-only policy audit trail
  notifications   Dispatcher output, listed by the API

OPTIMISTIC CONCURRENCY:
  Every request row carries a version counter. UpdateRequest issues

    UPDATE requests SET ... , version = version + 1
    WHERE id = ? AND version = ?

  and zero affected rows means somebody else won: the caller gets
  absence.ErrStaleState and must re-fetch. History rows for the
  transition are inserted in the same database transaction, so a
  half-applied approval can never be observed.

APPEND-ONLY ENFORCEMENT:
  request_history and policy_changes see INSERTs only. No UPDATE or
  DELETE statements exist for them.

INDEXES:
  idx_requests_employee        balance computation and per-employee lists
  idx_requests_stage_status    "requests awaiting actor X"
  idx_employees_supervisor     reporting-line queries
  idx_notifications_user       per-user notification lists

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time.

USAGE:
  store, err := sqlite.New("./data/absence.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := absence.NewService(store, absence.DefaultEntitlementConfig(), notifier)

SEE ALSO:
  - absence/store.go: Interface definitions and the CAS contract
  - absence/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/absence-engine/absence"
)

const (
	dayFormat = "2006-01-02"
)

// Store implements absence.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		department TEXT,
		position TEXT,
		role TEXT NOT NULL,
		supervisor_id TEXT,
		hire_date TEXT,
		contract_type TEXT,
		password_hash TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_employees_supervisor
		ON employees(supervisor_id);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days INTEGER NOT NULL,
		reason TEXT,
		category TEXT,
		attachment_ref TEXT,
		attachment_size INTEGER NOT NULL DEFAULT 0,
		urgent INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		stage TEXT NOT NULL,
		request_date TEXT NOT NULL,
		approved_by TEXT,
		approved_date TEXT,
		rejection_reason TEXT,
		version INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id, type);
	CREATE INDEX IF NOT EXISTS idx_requests_stage_status
		ON requests(stage, status);

	-- Append-only: terminal decisions, one row per history entry.
	CREATE TABLE IF NOT EXISTS request_history (
		request_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		action TEXT NOT NULL,
		actor TEXT NOT NULL,
		date TEXT NOT NULL,
		reason TEXT,
		PRIMARY KEY (request_id, seq)
	);

	CREATE TABLE IF NOT EXISTS policy_rules (
		type TEXT PRIMARY KEY,
		min_advance_days INTEGER NOT NULL,
		max_consecutive_days INTEGER NOT NULL,
		requires_approval INTEGER NOT NULL,
		approval_levels TEXT NOT NULL
	);

	-- Append-only: policy audit trail.
	CREATE TABLE IF NOT EXISTS policy_changes (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		field TEXT NOT NULL,
		from_value TEXT,
		to_value TEXT,
		actor TEXT NOT NULL,
		date TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_policy_changes_type
		ON policy_changes(type, date);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT,
		message TEXT,
		kind TEXT,
		read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		related_request_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications(user_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id string) (*absence.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, department, position, role, supervisor_id,
		       hire_date, contract_type, password_hash
		FROM employees WHERE id = ?`, id)

	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, &absence.NotFoundError{Kind: "employee", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context, filter absence.EmployeeFilter) ([]absence.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, email, department, position, role, supervisor_id,
		       hire_date, contract_type, password_hash
		FROM employees WHERE 1=1`
	var args []any
	if filter.Department != "" {
		query += " AND department = ?"
		args = append(args, filter.Department)
	}
	if filter.Role != "" {
		query += " AND role = ?"
		args = append(args, string(filter.Role))
	}
	if filter.SupervisorID != "" {
		query += " AND supervisor_id = ?"
		args = append(args, filter.SupervisorID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []absence.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) SaveEmployee(ctx context.Context, e absence.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hireDate := ""
	if !e.HireDate.IsZero() {
		hireDate = e.HireDate.Format(dayFormat)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees
			(id, name, email, department, position, role, supervisor_id,
			 hire_date, contract_type, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			department = excluded.department,
			position = excluded.position,
			role = excluded.role,
			supervisor_id = excluded.supervisor_id,
			hire_date = excluded.hire_date,
			contract_type = excluded.contract_type,
			password_hash = excluded.password_hash`,
		e.ID, e.Name, e.Email, e.Department, e.Position, string(e.Role),
		nullString(e.SupervisorID), nullString(hireDate),
		nullString(string(e.ContractType)), nullString(e.PasswordHash))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*absence.Employee, error) {
	var e absence.Employee
	var role string
	var supervisorID, hireDate, contractType, passwordHash sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.Position,
		&role, &supervisorID, &hireDate, &contractType, &passwordHash); err != nil {
		return nil, err
	}
	e.Role = absence.Role(role)
	e.SupervisorID = supervisorID.String
	e.ContractType = absence.ContractType(contractType.String)
	e.PasswordHash = passwordHash.String
	if hireDate.String != "" {
		t, err := time.Parse(dayFormat, hireDate.String)
		if err != nil {
			return nil, fmt.Errorf("bad hire_date %q: %w", hireDate.String, err)
		}
		e.HireDate = t
	}
	return &e, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*absence.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRequest(ctx, s.db, id)
}

func (s *Store) getRequest(ctx context.Context, db querier, id string) (*absence.Request, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, employee_id, type, start_date, end_date, days, reason,
		       category, attachment_ref, attachment_size, urgent, status,
		       stage, request_date, approved_by, approved_date,
		       rejection_reason, version
		FROM requests WHERE id = ?`, id)

	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, &absence.NotFoundError{Kind: "request", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}

	history, err := loadHistory(ctx, db, id)
	if err != nil {
		return nil, err
	}
	r.History = history
	return r, nil
}

func loadHistory(ctx context.Context, db querier, requestID string) ([]absence.HistoryEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT action, actor, date, reason
		FROM request_history WHERE request_id = ? ORDER BY seq`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var history []absence.HistoryEntry
	for rows.Next() {
		var h absence.HistoryEntry
		var action, date string
		var reason sql.NullString
		if err := rows.Scan(&action, &h.By, &date, &reason); err != nil {
			return nil, err
		}
		h.Action = absence.HistoryAction(action)
		h.Reason = reason.String
		if h.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("bad history date %q: %w", date, err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (s *Store) CreateRequest(ctx context.Context, r absence.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO requests
			(id, employee_id, type, start_date, end_date, days, reason,
			 category, attachment_ref, attachment_size, urgent, status,
			 stage, request_date, approved_by, approved_date,
			 rejection_reason, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		r.ID, r.EmployeeID, string(r.Type),
		r.StartDate.Format(dayFormat), r.EndDate.Format(dayFormat), r.Days,
		r.Reason, nullString(string(r.Category)), nullString(r.AttachmentRef),
		r.AttachmentSize, boolInt(r.Urgent), string(r.Status), string(r.Stage),
		r.RequestDate.Format(dayFormat), nullString(r.ApprovedBy),
		nullTime(r.ApprovedDate), nullString(r.RejectionReason))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if err := appendHistory(ctx, tx, r.ID, 0, r.History); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateRequest applies a transition with a compare-and-swap on the
// version column. History entries beyond the stored count are appended in
// the same database transaction, so a half-applied approval can never be
// observed.
func (s *Store) UpdateRequest(ctx context.Context, r absence.Request, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE requests SET
			status = ?, stage = ?, approved_by = ?, approved_date = ?,
			rejection_reason = ?, urgent = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(r.Status), string(r.Stage), nullString(r.ApprovedBy),
		nullTime(r.ApprovedDate), nullString(r.RejectionReason),
		boolInt(r.Urgent), r.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the id is unknown or the version moved. Disambiguate.
		var actual int64
		err := tx.QueryRowContext(ctx, `SELECT version FROM requests WHERE id = ?`, r.ID).Scan(&actual)
		if err == sql.ErrNoRows {
			return &absence.NotFoundError{Kind: "request", ID: r.ID}
		}
		if err != nil {
			return fmt.Errorf("failed to read request version: %w", err)
		}
		return &absence.StaleStateError{RequestID: r.ID, ExpectedVersion: expectedVersion, ActualVersion: actual}
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM request_history WHERE request_id = ?`, r.ID).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	if len(r.History) > existing {
		if err := appendHistory(ctx, tx, r.ID, existing, r.History[existing:]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func appendHistory(ctx context.Context, tx *sql.Tx, requestID string, startSeq int, entries []absence.HistoryEntry) error {
	for i, h := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO request_history (request_id, seq, action, actor, date, reason)
			VALUES (?, ?, ?, ?, ?, ?)`,
			requestID, startSeq+i, string(h.Action), h.By,
			h.Date.UTC().Format(time.RFC3339), nullString(h.Reason))
		if err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}
	return nil
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, employeeID string, typ absence.RequestType, includeRejected bool) ([]absence.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, type, start_date, end_date, days, reason,
		       category, attachment_ref, attachment_size, urgent, status,
		       stage, request_date, approved_by, approved_date,
		       rejection_reason, version
		FROM requests WHERE employee_id = ?`
	args := []any{employeeID}
	if typ != "" {
		query += " AND type = ?"
		args = append(args, string(typ))
	}
	if !includeRejected {
		query += " AND status != ?"
		args = append(args, string(absence.StatusRejected))
	}
	query += " ORDER BY request_date DESC, id"

	return s.queryRequests(ctx, query, args...)
}

func (s *Store) ListRequestsByStage(ctx context.Context, stage absence.Stage) ([]absence.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx, `
		SELECT id, employee_id, type, start_date, end_date, days, reason,
		       category, attachment_ref, attachment_size, urgent, status,
		       stage, request_date, approved_by, approved_date,
		       rejection_reason, version
		FROM requests WHERE stage = ? AND status IN (?, ?)
		ORDER BY request_date, id`,
		string(stage), string(absence.StatusPending), string(absence.StatusInReview))
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]absence.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var out []absence.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Attach history after the result set is closed; SQLite dislikes
	// nested queries on one connection.
	for i := range out {
		history, err := loadHistory(ctx, s.db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].History = history
	}
	return out, nil
}

func scanRequest(row rowScanner) (*absence.Request, error) {
	var r absence.Request
	var typ, status, stage, startDate, endDate, requestDate string
	var reason, category, attachmentRef, approvedBy, approvedDate, rejectionReason sql.NullString
	var urgent int
	if err := row.Scan(&r.ID, &r.EmployeeID, &typ, &startDate, &endDate, &r.Days,
		&reason, &category, &attachmentRef, &r.AttachmentSize, &urgent,
		&status, &stage, &requestDate, &approvedBy, &approvedDate,
		&rejectionReason, &r.Version); err != nil {
		return nil, err
	}
	r.Type = absence.RequestType(typ)
	r.Status = absence.Status(status)
	r.Stage = absence.Stage(stage)
	r.Reason = reason.String
	r.Category = absence.ReasonCategory(category.String)
	r.AttachmentRef = attachmentRef.String
	r.ApprovedBy = approvedBy.String
	r.RejectionReason = rejectionReason.String
	r.Urgent = urgent != 0

	var err error
	if r.StartDate, err = time.Parse(dayFormat, startDate); err != nil {
		return nil, fmt.Errorf("bad start_date %q: %w", startDate, err)
	}
	if r.EndDate, err = time.Parse(dayFormat, endDate); err != nil {
		return nil, fmt.Errorf("bad end_date %q: %w", endDate, err)
	}
	if r.RequestDate, err = time.Parse(dayFormat, requestDate); err != nil {
		return nil, fmt.Errorf("bad request_date %q: %w", requestDate, err)
	}
	if approvedDate.String != "" {
		if r.ApprovedDate, err = time.Parse(time.RFC3339, approvedDate.String); err != nil {
			return nil, fmt.Errorf("bad approved_date %q: %w", approvedDate.String, err)
		}
	}
	return &r, nil
}

// =============================================================================
// POLICY RULES
// =============================================================================

func (s *Store) GetPolicyRule(ctx context.Context, typ absence.RequestType) (*absence.PolicyRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT type, min_advance_days, max_consecutive_days,
		       requires_approval, approval_levels
		FROM policy_rules WHERE type = ?`, string(typ))

	var rule absence.PolicyRule
	var t, levelsJSON string
	var requires int
	err := row.Scan(&t, &rule.MinAdvanceDays, &rule.MaxConsecutiveDays, &requires, &levelsJSON)
	if err == sql.ErrNoRows {
		return nil, &absence.NotFoundError{Kind: "policy", ID: string(typ)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy rule: %w", err)
	}
	rule.Type = absence.RequestType(t)
	rule.RequiresApproval = requires != 0
	if err := json.Unmarshal([]byte(levelsJSON), &rule.ApprovalLevels); err != nil {
		return nil, fmt.Errorf("bad approval_levels %q: %w", levelsJSON, err)
	}
	return &rule, nil
}

func (s *Store) SavePolicyRule(ctx context.Context, rule absence.PolicyRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	levelsJSON, err := json.Marshal(rule.ApprovalLevels)
	if err != nil {
		return fmt.Errorf("failed to encode approval levels: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policy_rules
			(type, min_advance_days, max_consecutive_days, requires_approval, approval_levels)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(type) DO UPDATE SET
			min_advance_days = excluded.min_advance_days,
			max_consecutive_days = excluded.max_consecutive_days,
			requires_approval = excluded.requires_approval,
			approval_levels = excluded.approval_levels`,
		string(rule.Type), rule.MinAdvanceDays, rule.MaxConsecutiveDays,
		boolInt(rule.RequiresApproval), string(levelsJSON))
	if err != nil {
		return fmt.Errorf("failed to save policy rule: %w", err)
	}
	return nil
}

func (s *Store) AppendPolicyChange(ctx context.Context, change absence.PolicyChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_changes (id, type, field, from_value, to_value, actor, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		change.ID, string(change.Type), change.Field, change.From, change.To,
		change.Actor, change.Date.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to append policy change: %w", err)
	}
	return nil
}

func (s *Store) ListPolicyChanges(ctx context.Context, typ absence.RequestType) ([]absence.PolicyChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, type, field, from_value, to_value, actor, date FROM policy_changes`
	var args []any
	if typ != "" {
		query += " WHERE type = ?"
		args = append(args, string(typ))
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy changes: %w", err)
	}
	defer rows.Close()

	var out []absence.PolicyChange
	for rows.Next() {
		var c absence.PolicyChange
		var t, date string
		var from, to sql.NullString
		if err := rows.Scan(&c.ID, &t, &c.Field, &from, &to, &c.Actor, &date); err != nil {
			return nil, err
		}
		c.Type = absence.RequestType(t)
		c.From = from.String
		c.To = to.String
		if c.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("bad change date %q: %w", date, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (s *Store) SaveNotification(ctx context.Context, n absence.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications
			(id, user_id, title, message, kind, read, created_at, related_request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Kind), boolInt(n.Read),
		n.CreatedAt.UTC().Format(time.RFC3339), nullString(n.RelatedRequestID))
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]absence.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, kind, read, created_at, related_request_id
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []absence.Notification
	for rows.Next() {
		var n absence.Notification
		var kind, createdAt string
		var related sql.NullString
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &kind, &read, &createdAt, &related); err != nil {
			return nil, err
		}
		n.Kind = absence.EventKind(kind)
		n.Read = read != 0
		n.RelatedRequestID = related.String
		if n.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("bad notification date %q: %w", createdAt, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &absence.NotFoundError{Kind: "notification", ID: id}
	}
	return nil
}

// =============================================================================
// DEV HELPERS
// =============================================================================

// Reset clears every table. Development and demo scenarios only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"employees", "requests", "request_history", "policy_rules", "policy_changes", "notifications"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// SQL HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
