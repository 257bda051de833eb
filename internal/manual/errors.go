package manual

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a manual with the requested id does not exist.
var ErrNotFound = errors.New("manual does not exist")

// LoadError reports a failed manual load that is not a not-found condition:
// a transport failure (Status == 0) or a non-2xx response.
type LoadError struct {
	ID     int
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("loading manual %d: HTTP status %d", e.ID, e.Status)
	}
	return fmt.Sprintf("loading manual %d: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the manual does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
