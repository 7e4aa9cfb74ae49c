package db

import (
	"strings"

	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is provided, the helper also requires the constraint name in
// the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	return pkgerrors.SQLState(err) == sqlStateUniqueViolation ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	return pkgerrors.SQLState(err) == sqlStateCheckViolation ||
		strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsRetryable reports whether a transaction failed on a write conflict and can
// be replayed as a whole.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch pkgerrors.SQLState(err) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return true
	}
	return strings.Contains(err.Error(), "database is locked")
}
