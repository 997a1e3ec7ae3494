// Package execution implements the Volcano-style iterator runtime: each
// executor's Next pulls one tuple at a time from its children. Blocking
// operators (sort, top-N, aggregation) materialize their input before
// producing output; a nested-loop join re-scans its right child once per
// left tuple.
package execution

import (
	"coredb/buffer"
	"coredb/catalog"
	"coredb/concurrency"
	"coredb/concurrency/lockmanager"
	"coredb/transaction"
)

// ExecutorContext bundles everything an executor needs to run one query.
// Grounded on execution/executor_context.go, adapted to a
// *transaction.Transaction pointer and concrete *lockmanager.LockManager /
// *concurrency.TxnManager types in place of the teacher's now-removed
// interface indirection.
type ExecutorContext struct {
	Txn         *transaction.Transaction
	Catalog     catalog.Catalog
	Pool        buffer.Pool
	LockManager *lockmanager.LockManager
	TxnManager  *concurrency.TxnManager
}

func NewExecutorContext(txn *transaction.Transaction, cat catalog.Catalog, pool buffer.Pool, lm *lockmanager.LockManager, tm *concurrency.TxnManager) *ExecutorContext {
	return &ExecutorContext{Txn: txn, Catalog: cat, Pool: pool, LockManager: lm, TxnManager: tm}
}
