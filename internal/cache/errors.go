package cache

import "fmt"

// notReadyError: acquire attempted while the descriptor is absent on disk,
// still downloading, or in error state.
type notReadyError struct {
	name   string
	status string
}

func (e notReadyError) Error() string {
	return fmt.Sprintf("model %s is not ready (status: %s)", e.name, e.status)
}

// IsNotReady reports whether err indicates the model is not loadable yet.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}

// busyError: unload rejected because references are outstanding.
type busyError struct {
	name string
	refs int
}

func (e busyError) Error() string {
	return fmt.Sprintf("model %s is busy (%d requests in flight)", e.name, e.refs)
}

// IsBusy reports whether err indicates an unload of a referenced model.
func IsBusy(err error) bool {
	_, ok := err.(busyError)
	return ok
}

// notLoadedError: unload of a model that is not resident.
type notLoadedError struct{ name string }

func (e notLoadedError) Error() string { return "model not loaded: " + e.name }

// IsNotLoaded reports whether err indicates the model was not in memory.
func IsNotLoaded(err error) bool {
	_, ok := err.(notLoadedError)
	return ok
}

// loadFailureError: engine construction failed; wraps the backend error.
type loadFailureError struct {
	name string
	err  error
}

func (e loadFailureError) Error() string {
	return fmt.Sprintf("failed to load model %s: %v", e.name, e.err)
}

func (e loadFailureError) Unwrap() error { return e.err }

// IsLoadFailure reports whether err indicates a failed engine construction.
func IsLoadFailure(err error) bool {
	_, ok := err.(loadFailureError)
	return ok
}
