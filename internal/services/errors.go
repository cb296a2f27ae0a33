package services

import "errors"

// Scheduling error taxonomy. Every booking mutation resolves to a
// persisted appointment or exactly one of these; callers are expected
// to branch on them (conflict: offer other slots, stale write: refresh
// and retry, not found: 404). Transient store errors pass through
// unwrapped into this taxonomy.
var (
	// ErrServiceNotFound means the referenced service is missing or
	// inactive for the tenant.
	ErrServiceNotFound = errors.New("service not found")

	// ErrStaffNotFound means the referenced staff member is missing or
	// inactive for the tenant.
	ErrStaffNotFound = errors.New("staff member not found")

	// ErrSchedulingConflict means the proposed interval overlaps a
	// live appointment for the same staff member. Nothing was written.
	ErrSchedulingConflict = errors.New("time slot conflicts with an existing appointment")

	// ErrStaleWrite means the appointment was modified concurrently:
	// the caller's expected version no longer matches the stored one.
	// The caller must re-fetch before retrying.
	ErrStaleWrite = errors.New("appointment was modified by another request")

	// ErrNotFound means the appointment does not resolve within the
	// requesting tenant. Rows owned by other tenants report the same
	// error; nothing distinguishes "never existed" from "not yours".
	ErrNotFound = errors.New("appointment not found")

	// ErrAppointmentCancelled means the target appointment is already
	// cancelled. Cancellation is terminal: no patch may revive the
	// appointment or move its interval afterwards.
	ErrAppointmentCancelled = errors.New("appointment is cancelled")
)
