package executors

import (
	"coredb/catalog"
	"coredb/config"
	"coredb/execution"
	"coredb/transaction"
)

type IExecutor interface {
	Init()

	// Next yields the next tuple from this executor and the rid it lives
	// at, or ErrNoTuple once the executor is exhausted.
	Next(t *catalog.Tuple, rid *transaction.RID) error

	GetExecutorCtx() *execution.ExecutorContext
	GetOutSchema() catalog.Schema
}

type BaseExecutor struct {
	executorCtx *execution.ExecutorContext
}

func (e *BaseExecutor) GetExecutorCtx() *execution.ExecutorContext { return e.executorCtx }

// lockRow acquires mode on (oid,rid) for the executor's transaction, first
// escalating to an appropriate intention lock on the table if one isn't
// already held. A nil transaction (used by tests that exercise an executor
// in isolation) skips locking entirely. Read-uncommitted never takes
// shared-family locks — a Shared request under it is a no-op rather than an
// IS escalation checkIsolation would reject and abort the transaction over.
func lockRow(ctx *execution.ExecutorContext, oid catalog.TableOID, rid transaction.RID, mode transaction.LockMode) error {
	if ctx.Txn == nil || ctx.LockManager == nil {
		return nil
	}
	if mode == transaction.Shared && ctx.Txn.IsolationLevel() == config.ReadUncommitted {
		return nil
	}
	tableOID := transaction.TableOID(oid)
	tableMode := transaction.IntentionShared
	if mode == transaction.Exclusive {
		tableMode = transaction.IntentionExclusive
	}
	if _, held := ctx.Txn.AnyTableLock(tableOID); !held {
		if err := ctx.LockManager.LockTable(ctx.Txn, tableMode, tableOID); err != nil {
			return err
		}
	}
	return ctx.LockManager.LockRow(ctx.Txn, mode, tableOID, rid)
}

// lockTable acquires an intention lock on oid ahead of a scan's per-row
// locking, so the escalation happens once up front in Init rather than
// lazily on the scan's first row. Skipped under the same read-uncommitted
// rule lockRow applies, and a no-op with no active transaction.
func lockTable(ctx *execution.ExecutorContext, oid catalog.TableOID, mode transaction.LockMode) error {
	if ctx.Txn == nil || ctx.LockManager == nil {
		return nil
	}
	if mode == transaction.Shared && ctx.Txn.IsolationLevel() == config.ReadUncommitted {
		return nil
	}
	tableMode := transaction.IntentionShared
	if mode == transaction.Exclusive {
		tableMode = transaction.IntentionExclusive
	}
	tableOID := transaction.TableOID(oid)
	if _, held := ctx.Txn.AnyTableLock(tableOID); held {
		return nil
	}
	return ctx.LockManager.LockTable(ctx.Txn, tableMode, tableOID)
}
