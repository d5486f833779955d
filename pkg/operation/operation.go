// Package operation provides the transfer engine: tracked copy, move and
// delete operations executed strictly in sequence against a storage provider.
package operation

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🎯 Kind is the type of a transfer operation
type Kind string

const (
	KindCopy   Kind = "copy"
	KindMove   Kind = "move"
	KindDelete Kind = "delete"
)

// 🚦 Status is the lifecycle state of a transfer operation
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// 📊 Operation is a tracked unit of transfer work. Records are created by
// Tracker.Begin, mutated only through the tracker, and removed only by
// Acknowledge.
type Operation struct {
	ID             string // Unique token
	Kind           Kind   // copy, move or delete
	Status         Status // Lifecycle state
	TotalItems     int    // Number of entries in the operation
	ProcessedItems int    // Entries fully committed so far
	CurrentFile    string // Entry currently being processed, if any
	Error          string // Human-readable failure message, if any
}

// ❌ ErrInvalidName is the class of name-validation failures. These are
// rejected before any provider call is made.
var ErrInvalidName = errors.New("invalid name")

// ValidateName checks a name supplied to create or rename operations.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.Errorf("%w: name is empty", ErrInvalidName)
	case name == "." || name == "..":
		return errors.Errorf("%w: %q is reserved", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return errors.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}
