package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks network and API failures that the next scheduled
	// pass is expected to retry.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks transfers that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
	// ErrExternalTool marks failures reported by an external binary.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks malformed inputs or reports.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing feeds, files, or records.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether an error should be retried on the next
// scheduled pass rather than surfaced as a permanent failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsTimeout reports whether an error represents an exceeded deadline,
// either tagged explicitly or raised through context cancellation.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsValidation reports whether an error stems from malformed input or a
// violated uniqueness rule.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
