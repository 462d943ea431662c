package reconcile

import (
	"errors"
	"fmt"
)

// ErrScopeNotFound is returned when the target scope of a run (the device
// or site) does not exist. It is the only run-level fatal condition.
var ErrScopeNotFound = errors.New("target scope not found")

// ErrUnconfirmed marks items of a bulk call whose outcome the store did not
// confirm. They may or may not exist remotely; the next run reconciles them.
var ErrUnconfirmed = errors.New("outcome unconfirmed")

// MissingDependencyError reports a referenced entity that could not be
// resolved. The dependent item is skipped, never failed.
type MissingDependencyError struct {
	Identity   string
	Dependency string
	Kind       string
}

func (e *MissingDependencyError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("missing %s %q required by %s", e.Kind, e.Dependency, e.Identity)
	}
	return fmt.Sprintf("missing dependency %q required by %s", e.Dependency, e.Identity)
}

// IsMissingDependency reports whether err is or wraps a MissingDependencyError.
func IsMissingDependency(err error) bool {
	var mde *MissingDependencyError
	return errors.As(err, &mde)
}
