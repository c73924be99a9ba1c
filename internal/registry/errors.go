package registry

import (
	"fmt"

	"github.com/san-kum/attractor/internal/dynamo"
)

// NotFoundError reports a name that is neither a built-in nor a custom
// system.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("system %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error { return dynamo.ErrNotFound }

// StoreError wraps a failure to read or write the custom library.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("library %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("library %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
