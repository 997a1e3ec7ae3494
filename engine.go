// Package coredb wires the buffer pool, catalog, lock manager and
// transaction manager into a single embeddable Engine, mirroring the way
// db.go's OpenDB assembled the teacher's equivalent components — minus the
// WAL, checkpoint routine and crash recovery it also wired, which are out
// of scope here (§1's non-goals).
package coredb

import (
	"io"
	"log"
	"os"

	"coredb/buffer"
	"coredb/catalog"
	"coredb/concurrency"
	"coredb/concurrency/lockmanager"
	"coredb/config"
	"coredb/disk"
	"coredb/execution"
	"coredb/transaction"

	"github.com/pkg/errors"
)

// Engine is the top-level handle a caller opens once and uses to begin
// transactions, manage schema, and build the ExecutorContext each query
// plan runs under.
type Engine struct {
	pool        *buffer.BufferPoolManager
	disk        disk.DiskManager
	Catalog     catalog.Catalog
	LockManager *lockmanager.LockManager
	TxnManager  *concurrency.TxnManager

	opts    config.Options
	logFile *os.File
}

// OpenInMemory starts an Engine with no backing file, for tests and
// short-lived embedded uses that never need to survive a restart.
func OpenInMemory(opts config.Options) *Engine {
	return open(disk.NewMemoryManager(), nil, opts)
}

// Open opens (or creates) a file-backed Engine at path, logging diagnostics
// to path+".log" the way the teacher's OpenDB wrote to info.log.
func Open(path string, opts config.Options) (*Engine, error) {
	dm, err := disk.NewFileManager(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database file")
	}

	logFile, err := os.OpenFile(path+".log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}

	return open(dm, logFile, opts), nil
}

func open(dm disk.DiskManager, logFile *os.File, opts config.Options) *Engine {
	var logger *log.Logger
	if logFile != nil {
		logger = log.New(logFile, ">> ", 0)
	} else {
		logger = log.New(io.Discard, "", 0)
	}

	pool := buffer.NewBufferPoolManager(opts.PoolSize, opts.ReplacerK, dm)
	pool.SetLogger(logger)

	lm := lockmanager.New(opts.CycleDetectionInterval, logger)
	tm := concurrency.NewTxnManager(lm)
	cat := catalog.NewCatalog(pool)

	return &Engine{
		pool:        pool,
		disk:        dm,
		Catalog:     cat,
		LockManager: lm,
		TxnManager:  tm,
		opts:        opts,
		logFile:     logFile,
	}
}

// BeginTxn starts a transaction at the engine's configured default
// isolation level.
func (e *Engine) BeginTxn() *transaction.Transaction {
	return e.TxnManager.Begin(e.opts.DefaultIsolation)
}

// BeginTxnAt starts a transaction at an explicit isolation level.
func (e *Engine) BeginTxnAt(level config.IsolationLevel) *transaction.Transaction {
	return e.TxnManager.Begin(level)
}

func (e *Engine) Commit(txn *transaction.Transaction)   { e.TxnManager.Commit(txn) }
func (e *Engine) Rollback(txn *transaction.Transaction) { e.TxnManager.Abort(txn) }

// NewExecutorContext builds the context one query plan runs under, bound
// to txn's locks and this engine's catalog and buffer pool.
func (e *Engine) NewExecutorContext(txn *transaction.Transaction) *execution.ExecutorContext {
	return execution.NewExecutorContext(txn, e.Catalog, e.pool, e.LockManager, e.TxnManager)
}

// Close stops the lock manager's deadlock detector, flushes every dirty
// page back to disk, and releases the underlying file handles.
func (e *Engine) Close() error {
	e.LockManager.Stop()
	e.pool.FlushAllPages()

	if err := e.disk.Close(); err != nil {
		return errors.Wrap(err, "closing disk manager")
	}
	if e.logFile != nil {
		return e.logFile.Close()
	}
	return nil
}
