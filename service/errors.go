package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every not-found outcome of the service
	ErrNotFound = errors.New("not found")
	// ErrInvalidLabel is returned when a node label is empty or blank
	ErrInvalidLabel = errors.New("label must not be empty")
)

// NodeNotFoundError is returned when a lookup, expansion or delete targets a
// node that does not exist.
type NodeNotFoundError struct {
	ID int64
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node with ID %d not found", e.ID)
}

func (e *NodeNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParentNotFoundError is returned when a create references a missing parent.
// No node has been written when it is returned.
type ParentNotFoundError struct {
	ParentID int64
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent node with ID %d not found", e.ParentID)
}

func (e *ParentNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps any failure of the underlying node store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a node or parent not-found outcome
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
