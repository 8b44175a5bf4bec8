package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraintName is non-empty, only a violation of that named
// constraint matches; violations of other constraints return false.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// Postgres and sqlite phrase the violation differently.
	unique := strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}
