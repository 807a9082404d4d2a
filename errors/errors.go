/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"

	"github.com/suparena/entityflow/storagemodels"
)

// Common sentinel errors
var (
	// ErrStorage is matched by every error the storage engine reported
	ErrStorage = errors.New("storage error")

	// ErrSaveFailed is returned when an insert, update or delete touched no rows
	ErrSaveFailed = errors.New("save operation failed")

	// ErrConcurrentModification is returned when a snapshot changed size while it was copied
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrFatal marks a failure that had no error callback to receive it
	ErrFatal = errors.New("unhandled transaction failure")

	// ErrNotFound is returned when a registry lookup finds nothing
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrQueueStopped is returned when work is submitted to a queue that has quit
	ErrQueueStopped = errors.New("queue stopped")

	// ErrNotRegistered is returned when no table is registered for an entity type
	ErrNotRegistered = errors.New("entity type not registered")
)

// StorageError wraps an error the underlying engine returned for a statement.
type StorageError struct {
	Op    string
	Query string
	Err   error
}

func (e *StorageError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("storage %s failed for %q: %v", e.Op, e.Query, e.Err)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error { return e.Err }

// SaveFailedError is raised when a statement executed but reported no effect.
type SaveFailedError struct {
	EntityType storagemodels.EntityType
	Action     storagemodels.Action
}

func (e *SaveFailedError) Error() string {
	return fmt.Sprintf("%s of %s affected no rows", e.Action, e.EntityType)
}

func (e *SaveFailedError) Is(target error) bool {
	return target == ErrSaveFailed
}

// ConcurrentModificationError is returned when a structure changed while being iterated.
type ConcurrentModificationError struct {
	Structure string
	Expected  int
	Actual    int
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s changed size during iteration: expected %d, got %d", e.Structure, e.Expected, e.Actual)
}

func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}

// FatalError escalates a unit of work failure that no error callback handled.
// The original cause is preserved.
type FatalError struct {
	Transaction string
	Err         error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("transaction %s failed with no error callback: %v", e.Transaction, e.Err)
}

func (e *FatalError) Is(target error) bool {
	return target == ErrFatal
}

func (e *FatalError) Unwrap() error { return e.Err }

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewStorageError wraps err as a StorageError. It returns nil if err is nil.
func NewStorageError(op, query string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Query: query, Err: err}
}

// NewSaveFailedError creates a new SaveFailedError
func NewSaveFailedError(entityType storagemodels.EntityType, action storagemodels.Action) error {
	return &SaveFailedError{EntityType: entityType, Action: action}
}

// NewConcurrentModificationError creates a new ConcurrentModificationError
func NewConcurrentModificationError(structure string, expected, actual int) error {
	return &ConcurrentModificationError{Structure: structure, Expected: expected, Actual: actual}
}

// NewFatalError creates a new FatalError
func NewFatalError(transaction string, err error) error {
	return &FatalError{Transaction: transaction, Err: err}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsStorageError checks if an error originated in the storage engine
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsSaveFailed checks if an error is a save failed error
func IsSaveFailed(err error) bool {
	return errors.Is(err, ErrSaveFailed)
}

// IsConcurrentModification checks if an error is a concurrent modification error
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsFatal checks if an error was escalated as fatal
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
