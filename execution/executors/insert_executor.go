package executors

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/execution"
	"coredb/execution/plans"
	"coredb/transaction"
)

// InsertExecutor is eager rather than Volcano-style: Init acquires an IX
// table lock, and the first Next call drains every row (from either the
// plan's literal value lists or its child executor), inserting and
// X-locking each one, then returns a single one-column tuple holding the
// total insert count. Every later Next call reports exhaustion, even when
// nothing was inserted. Grounded on
// original_source/src/execution/insert_executor.cpp, whose Next likewise
// runs the whole insert in one call and returns false on every call after.
type InsertExecutor struct {
	BaseExecutor
	plan          *plans.InsertPlanNode
	childExecutor IExecutor
	done          bool
	initErr       error
}

func NewInsertExecutor(ctx *execution.ExecutorContext, plan *plans.InsertPlanNode, childExecutor IExecutor) *InsertExecutor {
	return &InsertExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan, childExecutor: childExecutor}
}

func (e *InsertExecutor) Init() {
	e.done = false
	table := e.executorCtx.Catalog.GetTableByOID(e.plan.GetTableOID())
	e.initErr = lockTable(e.executorCtx, table.OID, transaction.Exclusive)
	if !e.plan.IsRawInsert() {
		e.childExecutor.Init()
	}
}

func (e *InsertExecutor) GetOutSchema() catalog.Schema { return e.plan.OutSchema }

func (e *InsertExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	if e.done {
		return execution.ErrNoTuple{}
	}
	e.done = true

	if e.initErr != nil {
		return e.initErr
	}

	table := e.executorCtx.Catalog.GetTableByOID(e.plan.GetTableOID())
	count := int32(0)

	if e.plan.IsRawInsert() {
		for _, values := range e.plan.RawValues() {
			newRid, err := table.InsertTupleViaValues(values)
			if err != nil {
				return err
			}
			if err := lockRow(e.executorCtx, table.OID, newRid, transaction.Exclusive); err != nil {
				return err
			}
			count++
		}
	} else {
		var childTuple catalog.Tuple
		var childRid transaction.RID
		for {
			if err := e.childExecutor.Next(&childTuple, &childRid); err != nil {
				if _, ok := err.(execution.ErrNoTuple); ok {
					break
				}
				return err
			}
			newRid, err := table.InsertTuple(&childTuple)
			if err != nil {
				return err
			}
			if err := lockRow(e.executorCtx, table.OID, newRid, transaction.Exclusive); err != nil {
				return err
			}
			count++
		}
	}

	tuple, err := catalog.NewTupleWithSchema([]*dbtype.Value{dbtype.NewInt(count)}, e.plan.OutSchema)
	if err != nil {
		return err
	}
	*t = *tuple
	*rid = transaction.RID{}
	return nil
}
