package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the scoring surface. Transports map them to their
// protocol specific representation, the services themselves stay agnostic.
var (
	// ErrNotFound signals that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateAttempt signals that the (competitor, section, lap)
	// triple is already recorded. Corrections go through CorrectAttempt.
	ErrDuplicateAttempt = errors.New("attempt already recorded for this lap")
	// ErrCourseComplete signals that the competitor has finished every
	// required lap and no further attempt may be recorded.
	ErrCourseComplete = errors.New("course complete")
	// ErrInvalidOutcome signals a penalty outside {0,1,2,3,5} or a DNS
	// combined with a non-zero penalty.
	ErrInvalidOutcome = errors.New("invalid outcome")
)

// BlockedError refuses an attempt that would advance the competitor to the
// next lap while sections of the current lap are still unscored.
type BlockedError struct {
	CurrentLap       int
	BlockingSections []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("lap %d incomplete, missing: %s",
		e.CurrentLap, strings.Join(e.BlockingSections, ", "))
}

// ConfigurationError refuses a catalog or competitor edit that would leave
// the event configuration inconsistent.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
