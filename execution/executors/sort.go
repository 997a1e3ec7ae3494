package executors

import (
	"coredb/catalog"
	"coredb/execution"
	"coredb/execution/plans"
	"coredb/transaction"
	"sort"
)

// lessByOrderBys reports whether tuple a sorts before tuple b under the
// given OrderByTerm list, comparing terms left to right and breaking ties
// by falling through to the next term.
func lessByOrderBys(a, b *catalog.Tuple, schema catalog.Schema, orderBys []plans.OrderByTerm) bool {
	for _, ob := range orderBys {
		va := ob.Expr.Eval(a, schema)
		vb := ob.Expr.Eval(b, schema)
		if va.Less(vb) {
			return !ob.Desc
		}
		if vb.Less(va) {
			return ob.Desc
		}
	}
	return false
}

// SortExecutor fully materializes its child and returns it sorted by
// OrderBys. Grounded on the same fully-materialize-then-drain shape as
// AggregationExecutor; used directly when the optimizer's Limit(Sort)->TopN
// rewrite doesn't apply.
type sortRow struct {
	tuple catalog.Tuple
	rid   transaction.RID
}

type SortExecutor struct {
	BaseExecutor
	plan   *plans.SortPlanNode
	child  IExecutor
	rows   []sortRow
	cursor int
}

func NewSortExecutor(ctx *execution.ExecutorContext, plan *plans.SortPlanNode, child IExecutor) *SortExecutor {
	return &SortExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan, child: child}
}

func (e *SortExecutor) GetOutSchema() catalog.Schema { return e.plan.OutSchema }

func (e *SortExecutor) Init() {
	e.child.Init()
	e.rows = nil
	e.cursor = 0

	for {
		var t catalog.Tuple
		var rid transaction.RID
		if err := e.child.Next(&t, &rid); err != nil {
			break
		}
		e.rows = append(e.rows, sortRow{tuple: t, rid: rid})
	}

	schema := e.GetOutSchema()
	sort.SliceStable(e.rows, func(i, j int) bool {
		return lessByOrderBys(&e.rows[i].tuple, &e.rows[j].tuple, schema, e.plan.OrderBys)
	})
}

func (e *SortExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	if e.cursor >= len(e.rows) {
		return execution.ErrNoTuple{}
	}
	*t = e.rows[e.cursor].tuple
	*rid = e.rows[e.cursor].rid
	e.cursor++
	return nil
}
