package version

import (
	"errors"
	"fmt"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

var (
	// ErrNotFound is returned when a commit ID or resource has no history.
	ErrNotFound = errors.New("version: not found")

	// ErrAlreadyExists is returned by Apply(OpCreate) when the resource
	// already has a head commit.
	ErrAlreadyExists = errors.New("version: already exists")

	// ErrConflict is the sentinel wrapped by ConflictError; test with
	// errors.Is(err, ErrConflict).
	ErrConflict = errors.New("version: conflict")
)

// ConflictError describes an optimistic-concurrency failure: the caller
// believed the resource identified by Key was at Expected but its
// current head is Actual. ConflictingCommits lists, oldest first, every
// commit between Expected (exclusive) and Actual (inclusive) that
// touched Key, so a caller can inspect what changed out from under it.
type ConflictError struct {
	Key                types.ResourceKey
	Expected           string
	Actual             string
	ConflictingCommits []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version: conflict: %s: expected resourceVersion %q, current is %q", e.Key, e.Expected, e.Actual)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// IsConflict reports whether err is (or wraps) a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
