package webhook

import (
	"fmt"

	"mechat/internal/domain"
)

// BackendError is returned when the webhook answers with a non-2xx status.
// It matches domain.ErrBackend via errors.Is.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.Status, e.Body)
}

// Is allows errors.Is() to match against domain.ErrBackend
func (e *BackendError) Is(target error) bool {
	return target == domain.ErrBackend
}
