package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the value of the "status" key for an operation that ended with err.
// Cancellation is reported separately so shutdowns do not read as failures.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "fail"
	}
}

// Took is the elapsed time since start at millisecond precision.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to milliseconds and clamps it at zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// Preview lists the first limit values and how many were left out,
// e.g. "a, b (+3 more)".
func Preview(values []string, limit int) (string, int) {
	if limit < 0 {
		limit = 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), 0
	}
	rest := len(values) - limit
	head := strings.Join(values[:limit], ", ")
	if head == "" {
		return fmt.Sprintf("(+%d more)", rest), rest
	}
	return fmt.Sprintf("%s (+%d more)", head, rest), rest
}
