package outreach

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrJobNotFound     = errors.New("job not found")
)

// ValidationError marks caller mistakes that are safe to report verbatim.
// No mutation has happened when one is returned.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

func newValidationError(reason string) error {
	return ValidationError{Reason: reason}
}
