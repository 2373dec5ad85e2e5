package domain

import "fmt"

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError is returned when a ledger adjustment would drive a
// lot's quantity below zero. No partial mutation is applied.
type InsufficientStockError struct {
	LotID     string
	Requested float64
	Available float64
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("lot %s has %g on hand, cannot apply %g", e.LotID, e.Available, e.Requested)
}

// NotAvailableError is returned when an instance cannot be assigned because it
// is busy or in a non-assignable state.
type NotAvailableError struct {
	InstanceID string
	Status     InstanceStatus
}

func (e NotAvailableError) Error() string {
	return fmt.Sprintf("instance %s is %s, not available for assignment", e.InstanceID, e.Status)
}

// InstanceDisposedError is returned for any operation against a disposed
// instance. Disposed is terminal.
type InstanceDisposedError struct {
	InstanceID string
}

func (e InstanceDisposedError) Error() string {
	return fmt.Sprintf("instance %s is disposed", e.InstanceID)
}

// InvalidTransitionError is returned for an illegal (state, event) pair. The
// operation performs no mutation.
type InvalidTransitionError struct {
	Entity EntityType
	ID     string
	State  string
	Event  Event
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s: event %s not legal in state %s", e.Entity, e.ID, e.Event, e.State)
}

// CycleDetectedError is returned when attaching a lineage edge would make a
// culture its own ancestor.
type CycleDetectedError struct {
	ChildID  string
	ParentID string
}

func (e CycleDetectedError) Error() string {
	return fmt.Sprintf("attaching %s under %s would create a lineage cycle", e.ChildID, e.ParentID)
}

// LimitExceededError is returned when instance provisioning exceeds the
// per-lot tracking cap.
type LimitExceededError struct {
	LotID     string
	Requested int
	Limit     int
}

func (e LimitExceededError) Error() string {
	return fmt.Sprintf("lot %s: %d instances requested, cap is %d (use quantity-only tracking)", e.LotID, e.Requested, e.Limit)
}

// SagaFailedError is surfaced when a multi-step allocation fails. FailedStep
// is the zero-based index of the failing step; RolledBack confirms that
// compensations for earlier steps ran to completion.
type SagaFailedError struct {
	Saga       string
	FailedStep int
	StepName   string
	RolledBack bool
	Cause      error
}

func (e SagaFailedError) Error() string {
	return fmt.Sprintf("saga %s failed at step %d (%s): %v", e.Saga, e.FailedStep, e.StepName, e.Cause)
}

// Unwrap exposes the underlying step failure.
func (e SagaFailedError) Unwrap() error { return e.Cause }

// StorageUnavailableError wraps persistence collaborator failures. The core
// does not retry; retry policy belongs to the caller.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the driver error.
func (e StorageUnavailableError) Unwrap() error { return e.Err }
