// Package dberrors collects the error taxonomy shared by the storage engine's
// components: transaction aborts raised by the lock manager, and execution
// failures raised by the executor runtime.
package dberrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// AbortReason enumerates every way the lock manager can abort a transaction.
type AbortReason int

const (
	LockOnShrinking AbortReason = iota
	LockSharedOnReadUncommitted
	UpgradeConflict
	IncompatibleUpgrade
	AttemptedIntentionLockOnRow
	AttemptedUnlockButNoLockHeld
	TableUnlockedBeforeUnlockingRows
	TableLockNotPresent

	// DeadlockVictim is not one of the eight synchronous rule violations
	// above; it is raised when the background deadlock detector picks this
	// transaction as the cycle-breaking victim while it was suspended in
	// lock_table/lock_row.
	DeadlockVictim
)

func (r AbortReason) String() string {
	switch r {
	case LockOnShrinking:
		return "LockOnShrinking"
	case LockSharedOnReadUncommitted:
		return "LockSharedOnReadUncommitted"
	case UpgradeConflict:
		return "UpgradeConflict"
	case IncompatibleUpgrade:
		return "IncompatibleUpgrade"
	case AttemptedIntentionLockOnRow:
		return "AttemptedIntentionLockOnRow"
	case AttemptedUnlockButNoLockHeld:
		return "AttemptedUnlockButNoLockHeld"
	case TableUnlockedBeforeUnlockingRows:
		return "TableUnlockedBeforeUnlockingRows"
	case TableLockNotPresent:
		return "TableLockNotPresent"
	case DeadlockVictim:
		return "DeadlockVictim"
	default:
		return "UnknownAbortReason"
	}
}

// TxnAbortError is returned by the lock manager whenever it aborts the
// calling transaction. Callers should not retry; the transaction's state
// has already been set to Aborted by the time this error is returned.
type TxnAbortError struct {
	TxnID  uint64
	Reason AbortReason
}

func (e *TxnAbortError) Error() string {
	return fmt.Sprintf("transaction %d aborted: %s", e.TxnID, e.Reason)
}

// NewTxnAbortError builds a TxnAbortError, wrapped the way the rest of the
// codebase wraps errors with github.com/pkg/errors so callers keep a stack
// trace when they propagate it.
func NewTxnAbortError(txnID uint64, reason AbortReason) error {
	return errors.WithStack(&TxnAbortError{TxnID: txnID, Reason: reason})
}

// ExecutionError is surfaced by an executor at an Init/Next boundary. It
// never carries partial results beyond the current call.
type ExecutionError struct {
	Executor string
	Cause    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Executor, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func NewExecutionError(executor string, cause error) error {
	return errors.WithStack(&ExecutionError{Executor: executor, Cause: cause})
}

// ErrBufferPoolExhausted is returned by the buffer pool when neither a free
// frame nor an evictable victim is available.
var ErrBufferPoolExhausted = errors.New("buffer pool exhausted: no free or evictable frame")

// ErrPageNotFound is returned when an operation addresses a page id that is
// not resident and cannot be paged in.
var ErrPageNotFound = errors.New("page not found")
