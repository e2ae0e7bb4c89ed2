package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when the job source cannot be reached (network, DNS, timeout).
	ErrSourceUnavailable = errors.New("job source unavailable")
	// ErrSourceError is returned when the job source rejected the request.
	ErrSourceError = errors.New("job source error")
	// ErrNotFound is returned when a listing or resume does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidResume is returned for unreadable, empty or unsupported resume files.
	ErrInvalidResume = errors.New("invalid resume")
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidCriteria is returned when search criteria fail validation.
	ErrInvalidCriteria = errors.New("invalid search criteria")
)

// SourceError carries the provider's response for a rejected request.
type SourceError struct {
	StatusCode int
	Message    string
}

func (e *SourceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("job source error: %s", e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("job source error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("job source error: status %d: %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrSourceError) match any *SourceError.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceError
}
