/*
auth.go - Bare credential check

PURPOSE:
  Verifies an employee's email/password pair against the stored bcrypt
  hash and returns the employee record. Session and token management are
  out of scope; callers identify themselves by employee ID on subsequent
  requests.

SEE ALSO:
  - handlers.go: writeError/writeJSON helpers
*/
package api

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/warp/absence-engine/absence"
)

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login verifies credentials and returns the employee on success. The
// response for a wrong password and an unknown email is identical.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	employees, err := h.Svc.ListEmployees(r.Context(), absence.EmployeeFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up credentials", err)
		return
	}

	for i := range employees {
		e := &employees[i]
		if e.Email != req.Email || e.PasswordHash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(req.Password)) == nil {
			writeJSON(w, http.StatusOK, toEmployeeDTO(e))
			return
		}
		break
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials", absence.ErrBadCredentials)
}
