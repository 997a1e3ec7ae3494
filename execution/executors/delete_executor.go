package executors

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/execution"
	"coredb/execution/plans"
	"coredb/transaction"
)

// DeleteExecutor is eager, symmetric to InsertExecutor: Init acquires an IX
// table lock, and the first Next call drains the whole child, X-locking and
// deleting every rid it yields, then returns a single one-column tuple
// holding the total delete count. Every later Next call reports exhaustion,
// even when nothing was deleted. Grounded on
// original_source/src/execution/delete_executor.cpp.
type DeleteExecutor struct {
	BaseExecutor
	plan    *plans.DeletePlanNode
	child   IExecutor
	done    bool
	initErr error
}

func NewDeleteExecutor(ctx *execution.ExecutorContext, plan *plans.DeletePlanNode, child IExecutor) *DeleteExecutor {
	return &DeleteExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan, child: child}
}

func (e *DeleteExecutor) Init() {
	e.done = false
	table := e.executorCtx.Catalog.GetTableByOID(e.plan.GetTableOID())
	e.initErr = lockTable(e.executorCtx, table.OID, transaction.Exclusive)
	e.child.Init()
}

func (e *DeleteExecutor) GetOutSchema() catalog.Schema { return e.plan.OutSchema }

func (e *DeleteExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	if e.done {
		return execution.ErrNoTuple{}
	}
	e.done = true

	if e.initErr != nil {
		return e.initErr
	}

	table := e.executorCtx.Catalog.GetTableByOID(e.plan.GetTableOID())
	count := int32(0)

	var childTuple catalog.Tuple
	var childRid transaction.RID
	for {
		if err := e.child.Next(&childTuple, &childRid); err != nil {
			if _, ok := err.(execution.ErrNoTuple); ok {
				break
			}
			return err
		}
		if err := lockRow(e.executorCtx, table.OID, childRid, transaction.Exclusive); err != nil {
			return err
		}
		if err := table.DeleteTuple(childRid); err != nil {
			return err
		}
		count++
	}

	tuple, err := catalog.NewTupleWithSchema([]*dbtype.Value{dbtype.NewInt(count)}, e.plan.OutSchema)
	if err != nil {
		return err
	}
	*t = *tuple
	*rid = transaction.RID{}
	return nil
}
