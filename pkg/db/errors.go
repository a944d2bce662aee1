package db

import (
	"errors"
	"strings"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message. The whole unwrap chain is
// inspected, so coded wrappers do not hide the driver error.
func IsUniqueViolation(err error, constraintName string) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		msg := err.Error()
		if constraintName != "" {
			if strings.Contains(msg, constraintName) {
				return true
			}
			continue
		}
		if strings.Contains(msg, "duplicate key value") {
			return true
		}
	}
	return false
}
