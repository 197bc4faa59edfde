package service

import (
	"fmt"

	"inferd/internal/registry"
)

type modelNotFoundError struct {
	name string
	kind registry.Kind
}

func (e modelNotFoundError) Error() string {
	return fmt.Sprintf("%s model '%s' not found in models directory", e.kind, e.name)
}

// IsModelNotFound reports whether err is a name-resolution failure.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}
