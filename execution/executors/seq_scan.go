package executors

import (
	"coredb/catalog"
	"coredb/execution"
	"coredb/execution/plans"
	"coredb/storage/heap"
	"coredb/transaction"
)

// SeqScanExecutor walks a table's heap in page-chain order, filtering by
// the plan's predicate and acquiring a shared row lock on every row it
// yields. Grounded on execution/executors/seq_scan.go, adapted to
// storage/heap.Iterator instead of structures.TableIterator. Under
// read-uncommitted the scan takes no locks at all; otherwise it escalates to
// an IS table lock once in Init rather than lazily on the first row.
type SeqScanExecutor struct {
	BaseExecutor
	plan      *plans.SeqScanPlanNode
	table     *catalog.TableInfo
	tableIter *heap.Iterator
	initErr   error
}

func NewSeqScanExecutor(ctx *execution.ExecutorContext, plan *plans.SeqScanPlanNode) *SeqScanExecutor {
	return &SeqScanExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan}
}

func (e *SeqScanExecutor) Init() {
	e.table = e.executorCtx.Catalog.GetTableByOID(e.plan.GetTableOID())
	e.tableIter = e.table.Heap.Iterator()
	e.initErr = lockTable(e.executorCtx, e.table.OID, transaction.Shared)
}

func (e *SeqScanExecutor) GetOutSchema() catalog.Schema { return e.plan.OutSchema }

func (e *SeqScanExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	if e.initErr != nil {
		err := e.initErr
		e.initErr = nil
		return err
	}
	for {
		r, data, ok := e.tableIter.Next()
		if !ok {
			return execution.ErrNoTuple{}
		}

		*t = catalog.Tuple{Data: data, Rid: r}
		*rid = r

		if pred := e.plan.GetPredicate(); pred != nil {
			if !pred.Eval(t, e.GetOutSchema()).AsInterface().(bool) {
				continue
			}
		}

		if err := lockRow(e.executorCtx, e.table.OID, r, transaction.Shared); err != nil {
			return err
		}
		return nil
	}
}
