package kv

import "errors"

// Sentinel errors matching the KV engine's error taxonomy (spec §4.1).
// Callers use errors.Is against these values.
var (
	// ErrNotFound is returned when a Get targets a missing key.
	ErrNotFound = errors.New("kv: not found")

	// ErrAlreadyExists is returned by PutIfAbsent when the key is occupied.
	ErrAlreadyExists = errors.New("kv: already exists")

	// ErrIO wraps an underlying filesystem/bbolt I/O failure.
	ErrIO = errors.New("kv: io error")

	// ErrCorruption is returned when bbolt reports the database as not open
	// or invalid. The engine keeps no record of having returned it, so later
	// Update calls run as usual.
	ErrCorruption = errors.New("kv: corruption")
)

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err is (or wraps) ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsCorruption reports whether err is (or wraps) ErrCorruption.
func IsCorruption(err error) bool { return errors.Is(err, ErrCorruption) }
