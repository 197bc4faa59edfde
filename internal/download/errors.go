package download

import "fmt"

// invalidRepositoryError: repository is not in the downloadable catalog.
type invalidRepositoryError struct{ repository string }

func (e invalidRepositoryError) Error() string {
	return fmt.Sprintf("repository %q is not in the list of downloadable models", e.repository)
}

// IsInvalidRepository reports whether err indicates an uncataloged repository.
func IsInvalidRepository(err error) bool {
	_, ok := err.(invalidRepositoryError)
	return ok
}

// alreadyAvailableError: the target artifact is already downloading or
// present; no duplicate transfer is started.
type alreadyAvailableError struct {
	name   string
	status string
}

func (e alreadyAvailableError) Error() string {
	return fmt.Sprintf("model %s is already available (status: %s)", e.name, e.status)
}

// IsAlreadyAvailable reports whether err indicates a duplicate download.
func IsAlreadyAvailable(err error) bool {
	_, ok := err.(alreadyAvailableError)
	return ok
}
