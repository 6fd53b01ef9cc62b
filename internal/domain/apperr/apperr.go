package apperr

import "errors"

// Kinds shared across services. Service errors wrap one of these so the
// transport layer can pick a status without knowing every service sentinel.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidInput    = errors.New("invalid input")
	ErrMisconfigured   = errors.New("misconfigured")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
	ErrNotFound        = errors.New("not found")
)

func Kind(err error) error {
	for _, kind := range []error{
		ErrUnauthenticated,
		ErrInvalidInput,
		ErrMisconfigured,
		ErrConflict,
		ErrNotFound,
		ErrUpstream,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
