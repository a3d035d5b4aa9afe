package provider

import "fmt"

// notFoundError matches ErrNotFound and keeps the lookup failure as cause
type notFoundError struct {
	path  string
	cause error
}

func (e *notFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.path, e.cause)
	}
	return fmt.Sprintf("%s: %v", e.path, ErrNotFound)
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *notFoundError) Unwrap() error {
	return e.cause
}

func notFound(path string, cause error) error {
	return &notFoundError{path: path, cause: cause}
}
