package executors

import (
	"coredb/catalog"
	"coredb/execution"
	"coredb/execution/plans"
	"coredb/storage/index"
	"coredb/transaction"
)

// IndexScanExecutor probes a secondary index for either a single equality
// match or a range of keys, and reads the matching rows from the table's
// heap. Grounded on execution/executors/index_scan.go and
// index_range_scan.go, folded into one executor to match the merged
// IndexScanPlanNode.
type IndexScanExecutor struct {
	BaseExecutor
	plan  *plans.IndexScanPlanNode
	index *catalog.IndexInfo
	table *catalog.TableInfo

	done    bool
	iter    *index.Iterator
	max     string
	hasMax  bool
	initErr error
}

func NewIndexScanExecutor(ctx *execution.ExecutorContext, plan *plans.IndexScanPlanNode) *IndexScanExecutor {
	return &IndexScanExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan}
}

func (e *IndexScanExecutor) Init() {
	e.index = e.executorCtx.Catalog.GetIndexByOID(e.plan.GetIndexOID())
	e.table = e.index.GetTable()
	e.done = false
	e.initErr = nil
	if e.iter != nil {
		e.iter.Close()
		e.iter = nil
	}

	if e.plan.IsPointScan() {
		return
	}

	min, max := e.plan.GetRange()
	var err error
	if min != nil {
		e.iter, err = e.index.Index.Seek(catalog.EncodeKey(min))
	} else {
		e.iter, err = e.index.Index.First()
	}
	if err != nil {
		e.initErr = err
		return
	}
	if max != nil {
		e.max = catalog.EncodeKey(max)
		e.hasMax = true
	}
}

func (e *IndexScanExecutor) GetOutSchema() catalog.Schema { return e.plan.OutSchema }

func (e *IndexScanExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	if e.initErr != nil {
		err := e.initErr
		e.initErr = nil
		return err
	}

	if e.plan.IsPointScan() {
		if e.done {
			return execution.ErrNoTuple{}
		}
		e.done = true

		r, ok := e.index.Lookup(e.plan.GetProbeValues())
		if !ok {
			return execution.ErrNoTuple{}
		}
		return e.emit(r, t, rid)
	}

	for e.iter.Valid() {
		if e.hasMax && !(e.iter.Key() < e.max) {
			e.iter.Close()
			return execution.ErrNoTuple{}
		}
		r := e.iter.Value()
		e.iter.Next()
		if err := e.emit(r, t, rid); err != nil {
			if _, ok := err.(execution.ErrNoTuple); ok {
				continue
			}
			e.iter.Close()
			return err
		}
		if pred := e.plan.GetPredicate(); pred != nil && !pred.Eval(t, e.GetOutSchema()).AsInterface().(bool) {
			continue
		}
		return nil
	}
	e.iter.Close()
	return execution.ErrNoTuple{}
}

func (e *IndexScanExecutor) emit(r transaction.RID, t *catalog.Tuple, rid *transaction.RID) error {
	tuple, err := e.table.ReadTuple(r)
	if err != nil {
		return execution.ErrNoTuple{}
	}
	*t = *tuple
	*rid = r
	return lockRow(e.executorCtx, e.table.OID, r, transaction.Shared)
}
