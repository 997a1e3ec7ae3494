// Package lockmanager implements the five-mode hierarchical lock manager:
// table locks in S/X/IS/IX/SIX, row locks in S/X, isolation-level-gated
// admission, in-place upgrades and a background deadlock detector.
//
// Grounded on the teacher's locker.LockManager (locks/latches keyed by
// resource id in a common.SyncMap, a wait queue drained by grantWaiting,
// a ticker-driven deadlock detector walking a wait-for graph via DFS). That
// lock manager only ever grants one of two modes on one resource kind; here
// a resource's waiters must be re-evaluated jointly against a compatibility
// matrix, so a per-resource sync.Cond replaces its per-request response
// channel — a broadcast lets every waiter recheck its own grantability and
// its own abort status after any grant, release or victim selection.
package lockmanager

import (
	"log"
	"sync"
	"time"

	"coredb/common"
	"coredb/config"
	"coredb/dberrors"
	"coredb/transaction"
)

type mode = transaction.LockMode

// compatible reports whether a can be held on a resource at the same time
// as b. IS conflicts only with X; S conflicts with X, IX and SIX; IX
// conflicts with S, X and SIX; SIX conflicts with everything but IS; X
// conflicts with everything, including another X.
func compatible(a, b mode) bool {
	switch a {
	case transaction.IntentionShared:
		return b != transaction.Exclusive
	case transaction.Shared:
		return b == transaction.Shared || b == transaction.IntentionShared
	case transaction.IntentionExclusive:
		return b == transaction.IntentionShared || b == transaction.IntentionExclusive
	case transaction.SharedIntentionExclusive:
		return b == transaction.IntentionShared
	case transaction.Exclusive:
		return false
	default:
		return false
	}
}

// legalUpgrade reports whether a transaction holding from may request to
// upgrade in place to to. IS may upgrade to S, X, IX or SIX; S and IX may
// each upgrade to X or SIX; SIX may only upgrade to X.
func legalUpgrade(from, to mode) bool {
	switch from {
	case transaction.IntentionShared:
		return to == transaction.Shared || to == transaction.Exclusive ||
			to == transaction.IntentionExclusive || to == transaction.SharedIntentionExclusive
	case transaction.Shared:
		return to == transaction.Exclusive || to == transaction.SharedIntentionExclusive
	case transaction.IntentionExclusive:
		return to == transaction.Exclusive || to == transaction.SharedIntentionExclusive
	case transaction.SharedIntentionExclusive:
		return to == transaction.Exclusive
	default:
		return false
	}
}

// rowRequiresTableLock lists, for a requested row lock mode, the table lock
// modes that must already be held on the row's table.
func rowRequiresTableLock(rowMode mode) []mode {
	if rowMode == transaction.Exclusive {
		return []mode{transaction.IntentionExclusive, transaction.SharedIntentionExclusive, transaction.Exclusive}
	}
	return []mode{transaction.IntentionShared, transaction.Shared, transaction.IntentionExclusive,
		transaction.SharedIntentionExclusive, transaction.Exclusive}
}

type request struct {
	txnID   uint64
	mode    mode
	granted bool
}

// queue is the FIFO of grant/wait state for one lockable resource. Requests
// are kept in a single ordered slice; granted and waiting requests interleave
// in arrival order except for a single in-flight upgrade, which is moved to
// the front of the waiting section.
type queue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	requests  []*request
	upgrading uint64 // 0 means no upgrade is pending on this queue
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

type rowKey struct {
	oid transaction.TableOID
	rid transaction.RID
}

// LockManager grants and revokes table and row locks under strict two-phase
// locking, and runs a background cycle detector that aborts the youngest
// transaction in any wait-for cycle it finds.
type LockManager struct {
	tableQueues common.SyncMap[transaction.TableOID, *queue]
	rowQueues   common.SyncMap[rowKey, *queue]
	txns        common.SyncMap[uint64, *transaction.Transaction]

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	logger   *log.Logger
}

// New starts a lock manager whose deadlock detector runs every interval.
// Grounded on the teacher's NewLockManager, which likewise launches its
// detector goroutine at construction time and stops it from Stop.
func New(interval time.Duration, logger *log.Logger) *LockManager {
	lm := &LockManager{interval: interval, stopCh: make(chan struct{}), logger: logger}
	lm.wg.Add(1)
	go lm.runDetector()
	return lm
}

func (lm *LockManager) Stop() {
	close(lm.stopCh)
	lm.wg.Wait()
}

func (lm *LockManager) tableQueue(oid transaction.TableOID) *queue {
	q, _ := lm.tableQueues.LoadOrStore(oid, newQueue())
	return q
}

func (lm *LockManager) rowQueue(oid transaction.TableOID, rid transaction.RID) *queue {
	q, _ := lm.rowQueues.LoadOrStore(rowKey{oid, rid}, newQueue())
	return q
}

// checkIsolation applies the isolation-level admission rules common to both
// table and row locks: read-uncommitted rejects any shared-family request
// outright, and every level rejects new lock requests once the transaction
// has entered its shrinking phase (read-committed excepts S and IS).
func checkIsolation(txn *transaction.Transaction, m mode) error {
	if txn.State() != transaction.Growing {
		if txn.IsolationLevel() == config.ReadCommitted &&
			(m == transaction.Shared || m == transaction.IntentionShared) {
			return nil
		}
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.LockOnShrinking)
	}
	if txn.IsolationLevel() == config.ReadUncommitted &&
		(m == transaction.Shared || m == transaction.IntentionShared || m == transaction.SharedIntentionExclusive) {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.LockSharedOnReadUncommitted)
	}
	return nil
}

// enqueue inserts req into q, honoring the "single pending upgrade jumps to
// the front of the waiters" rule, then runs the grant pass and blocks until
// req is granted or txn aborts (by itself or via the deadlock detector).
func (lm *LockManager) enqueue(txn *transaction.Transaction, q *queue, req *request, isUpgrade bool) error {
	lm.txns.Store(txn.ID(), txn)

	q.mu.Lock()
	if isUpgrade {
		insertAt := len(q.requests)
		for i, r := range q.requests {
			if !r.granted {
				insertAt = i
				break
			}
		}
		q.requests = append(q.requests, nil)
		copy(q.requests[insertAt+1:], q.requests[insertAt:])
		q.requests[insertAt] = req
		q.upgrading = txn.ID()
	} else {
		q.requests = append(q.requests, req)
	}
	grantWaitingLocked(q)

	for !req.granted {
		if txn.State() == transaction.Aborted {
			removeRequestLocked(q, req)
			if q.upgrading == txn.ID() {
				q.upgrading = 0
			}
			grantWaitingLocked(q)
			q.cond.Broadcast()
			q.mu.Unlock()
			return dberrors.NewTxnAbortError(txn.ID(), dberrors.DeadlockVictim)
		}
		q.cond.Wait()
	}
	q.mu.Unlock()
	return nil
}

// grantWaitingLocked walks requests in FIFO order granting every waiter that
// is compatible with everything already granted (including grants made
// earlier in this same pass), stopping at the first waiter that cannot be
// granted yet so no later waiter jumps ahead of it.
func grantWaitingLocked(q *queue) {
	granted := make([]mode, 0, len(q.requests))
	for _, r := range q.requests {
		if r.granted {
			granted = append(granted, r.mode)
		}
	}
	changed := false
	for _, r := range q.requests {
		if r.granted {
			continue
		}
		ok := true
		for _, g := range granted {
			if !compatible(r.mode, g) {
				ok = false
				break
			}
		}
		if !ok {
			break
		}
		r.granted = true
		granted = append(granted, r.mode)
		if q.upgrading == r.txnID {
			q.upgrading = 0
		}
		changed = true
	}
	if changed {
		q.cond.Broadcast()
	}
}

func removeRequestLocked(q *queue, target *request) {
	for i, r := range q.requests {
		if r == target {
			q.requests = append(q.requests[:i], q.requests[i+1:]...)
			return
		}
	}
}

// LockTable acquires mode on oid for txn, blocking until granted or the
// transaction is aborted.
func (lm *LockManager) LockTable(txn *transaction.Transaction, m mode, oid transaction.TableOID) error {
	if held, ok := txn.AnyTableLock(oid); ok {
		if held == m {
			return nil
		}
		return lm.upgradeTable(txn, held, m, oid)
	}
	if err := checkIsolation(txn, m); err != nil {
		return err
	}

	q := lm.tableQueue(oid)
	req := &request{txnID: txn.ID(), mode: m}
	if err := lm.enqueue(txn, q, req, false); err != nil {
		return err
	}
	txn.AddTableLock(m, oid)
	return nil
}

func (lm *LockManager) upgradeTable(txn *transaction.Transaction, from, to mode, oid transaction.TableOID) error {
	if err := checkIsolation(txn, to); err != nil {
		return err
	}
	if !legalUpgrade(from, to) {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.IncompatibleUpgrade)
	}

	q := lm.tableQueue(oid)
	q.mu.Lock()
	if q.upgrading != 0 && q.upgrading != txn.ID() {
		q.mu.Unlock()
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.UpgradeConflict)
	}
	removeRequestLocked(q, findGrantedLocked(q, txn.ID()))
	q.mu.Unlock()

	req := &request{txnID: txn.ID(), mode: to}
	if err := lm.enqueue(txn, q, req, true); err != nil {
		return err
	}
	txn.RemoveTableLock(from, oid)
	txn.AddTableLock(to, oid)
	return nil
}

func findGrantedLocked(q *queue, txnID uint64) *request {
	for _, r := range q.requests {
		if r.txnID == txnID && r.granted {
			return r
		}
	}
	return nil
}

// UnlockTable releases txn's lock on oid. A transaction must release every
// row lock it holds on oid first.
func (lm *LockManager) UnlockTable(txn *transaction.Transaction, oid transaction.TableOID) error {
	held, ok := txn.AnyTableLock(oid)
	if !ok {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.AttemptedUnlockButNoLockHeld)
	}
	if txn.RowLockCount(oid) > 0 {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.TableUnlockedBeforeUnlockingRows)
	}

	q := lm.tableQueue(oid)
	q.mu.Lock()
	removeRequestLocked(q, findGrantedLocked(q, txn.ID()))
	grantWaitingLocked(q)
	q.cond.Broadcast()
	q.mu.Unlock()

	txn.RemoveTableLock(held, oid)
	applyShrinkTransition(txn, held)
	return nil
}

// applyShrinkTransition moves txn into the shrinking phase when unlocking m
// marks the end of its growing phase: releasing S or X always does so under
// every isolation level except read-committed, which only transitions on X.
func applyShrinkTransition(txn *transaction.Transaction, m mode) {
	if m != transaction.Shared && m != transaction.Exclusive {
		return
	}
	if txn.IsolationLevel() == config.ReadCommitted && m == transaction.Shared {
		return
	}
	if txn.State() == transaction.Growing {
		txn.SetState(transaction.Shrinking)
	}
}

// LockRow acquires an S or X row lock for txn on (oid, rid). The requesting
// transaction must already hold a table lock on oid compatible with the row
// mode per the lock hierarchy.
func (lm *LockManager) LockRow(txn *transaction.Transaction, m mode, oid transaction.TableOID, rid transaction.RID) error {
	if m != transaction.Shared && m != transaction.Exclusive {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.AttemptedIntentionLockOnRow)
	}

	tableMode, hasTable := txn.AnyTableLock(oid)
	ok := false
	for _, req := range rowRequiresTableLock(m) {
		if hasTable && tableMode == req {
			ok = true
			break
		}
	}
	if !ok {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.TableLockNotPresent)
	}

	if held, ok := txn.AnyRowLock(oid, rid); ok {
		if held == m {
			return nil
		}
		return lm.upgradeRow(txn, held, m, oid, rid)
	}
	if err := checkIsolation(txn, m); err != nil {
		return err
	}

	q := lm.rowQueue(oid, rid)
	req := &request{txnID: txn.ID(), mode: m}
	if err := lm.enqueue(txn, q, req, false); err != nil {
		return err
	}
	txn.AddRowLock(m, oid, rid)
	return nil
}

func (lm *LockManager) upgradeRow(txn *transaction.Transaction, from, to mode, oid transaction.TableOID, rid transaction.RID) error {
	if err := checkIsolation(txn, to); err != nil {
		return err
	}
	if !legalUpgrade(from, to) {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.IncompatibleUpgrade)
	}

	q := lm.rowQueue(oid, rid)
	q.mu.Lock()
	if q.upgrading != 0 && q.upgrading != txn.ID() {
		q.mu.Unlock()
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.UpgradeConflict)
	}
	removeRequestLocked(q, findGrantedLocked(q, txn.ID()))
	q.mu.Unlock()

	req := &request{txnID: txn.ID(), mode: to}
	if err := lm.enqueue(txn, q, req, true); err != nil {
		return err
	}
	txn.RemoveRowLock(from, oid, rid)
	txn.AddRowLock(to, oid, rid)
	return nil
}

// UnlockRow releases txn's S or X lock on (oid, rid).
func (lm *LockManager) UnlockRow(txn *transaction.Transaction, oid transaction.TableOID, rid transaction.RID) error {
	held, ok := txn.AnyRowLock(oid, rid)
	if !ok {
		txn.SetState(transaction.Aborted)
		return dberrors.NewTxnAbortError(txn.ID(), dberrors.AttemptedUnlockButNoLockHeld)
	}

	q := lm.rowQueue(oid, rid)
	q.mu.Lock()
	removeRequestLocked(q, findGrantedLocked(q, txn.ID()))
	grantWaitingLocked(q)
	q.cond.Broadcast()
	q.mu.Unlock()

	txn.RemoveRowLock(held, oid, rid)
	applyShrinkTransition(txn, held)
	return nil
}

// ReleaseAll drops every row and table lock txn holds, row locks first so
// UnlockTable never trips TableUnlockedBeforeUnlockingRows. Used by the
// transaction manager at commit and at abort.
func (lm *LockManager) ReleaseAll(txn *transaction.Transaction) {
	for _, held := range txn.AllRowLocks() {
		_ = lm.UnlockRow(txn, held.OID, held.RID)
	}
	for _, held := range txn.AllTableLocks() {
		_ = lm.UnlockTable(txn, held.OID)
	}
}

// runDetector periodically scans every queue's wait-for graph and aborts the
// youngest transaction in any cycle it finds, repeating until the graph is
// acyclic. Grounded on the teacher's deadlockDetectorRoutine/buildWaitGraph/
// isCyclic, generalized from single-mode ownership to the compatibility
// matrix, and swapping findSmallestTxID for the teacher's own (unused)
// findLargestTxID: this manager picks the youngest transaction as the
// victim, the opposite tradeoff the teacher's active detector makes.
func (lm *LockManager) runDetector() {
	defer lm.wg.Done()
	ticker := time.NewTicker(lm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-lm.stopCh:
			return
		case <-ticker.C:
			lm.detectAndAbort()
		}
	}
}

func (lm *LockManager) detectAndAbort() {
	for {
		graph := lm.buildWaitForGraph()
		cycle, found := findCycle(graph)
		if !found {
			return
		}
		victim := cycle[0]
		for _, id := range cycle[1:] {
			if id > victim {
				victim = id
			}
		}
		if txn, ok := lm.txns.Load(victim); ok {
			txn.SetState(transaction.Aborted)
			if lm.logger != nil {
				lm.logger.Printf("lockmanager: aborting txn %d to break cycle %v", victim, cycle)
			}
		}
		lm.wakeAll()
	}
}

// buildWaitForGraph adds an edge waiter -> holder for every waiting request
// that is incompatible with an already-granted request on the same queue.
func (lm *LockManager) buildWaitForGraph() map[uint64][]uint64 {
	graph := map[uint64][]uint64{}
	add := func(q *queue) {
		q.mu.Lock()
		defer q.mu.Unlock()
		for _, w := range q.requests {
			if w.granted {
				continue
			}
			for _, g := range q.requests {
				if !g.granted || g.txnID == w.txnID {
					continue
				}
				if !compatible(w.mode, g.mode) {
					graph[w.txnID] = append(graph[w.txnID], g.txnID)
				}
			}
		}
	}
	lm.tableQueues.Range(func(_ transaction.TableOID, q *queue) bool { add(q); return true })
	lm.rowQueues.Range(func(_ rowKey, q *queue) bool { add(q); return true })
	return graph
}

// findCycle runs DFS from every node and returns the first cycle found, as
// the slice of transaction ids on that cycle.
func findCycle(graph map[uint64][]uint64) ([]uint64, bool) {
	visited := map[uint64]bool{}
	var path []uint64
	onPath := map[uint64]bool{}

	var dfs func(uint64) []uint64
	dfs = func(node uint64) []uint64 {
		visited[node] = true
		onPath[node] = true
		path = append(path, node)
		for _, next := range graph[node] {
			if onPath[next] {
				for i, id := range path {
					if id == next {
						return path[i:]
					}
				}
			}
			if !visited[next] {
				if cyc := dfs(next); cyc != nil {
					return cyc
				}
			}
		}
		onPath[node] = false
		path = path[:len(path)-1]
		return nil
	}

	for node := range graph {
		if !visited[node] {
			if cyc := dfs(node); cyc != nil {
				return cyc, true
			}
		}
	}
	return nil, false
}

func (lm *LockManager) wakeAll() {
	lm.tableQueues.Range(func(_ transaction.TableOID, q *queue) bool {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
		return true
	})
	lm.rowQueues.Range(func(_ rowKey, q *queue) bool {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
		return true
	})
}
