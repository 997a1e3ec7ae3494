package executors

import (
	"container/heap"

	"coredb/catalog"
	"coredb/execution"
	"coredb/execution/plans"
	"coredb/transaction"
)

// topNHeap is a bounded max-heap over sortRow keyed by the OrderBys
// comparator: the current worst-ranked row sits at the root so it can be
// evicted in O(log n) as better rows arrive, bounding memory to N rows.
type topNHeap struct {
	rows     []sortRow
	schema   catalog.Schema
	orderBys []plans.OrderByTerm
}

func (h *topNHeap) Len() int { return len(h.rows) }
func (h *topNHeap) Less(i, j int) bool {
	// the worst row (last in sort order) belongs at the root, so invert.
	return lessByOrderBys(&h.rows[j].tuple, &h.rows[i].tuple, h.schema, h.orderBys)
}
func (h *topNHeap) Swap(i, j int) { h.rows[i], h.rows[j] = h.rows[j], h.rows[i] }
func (h *topNHeap) Push(x interface{}) { h.rows = append(h.rows, x.(sortRow)) }
func (h *topNHeap) Pop() interface{} {
	last := h.rows[len(h.rows)-1]
	h.rows = h.rows[:len(h.rows)-1]
	return last
}

// TopNExecutor keeps only the best N rows seen so far in a bounded heap,
// avoiding SortExecutor's full materialization. Produced by the optimizer's
// Limit(Sort)->TopN rewrite, or usable directly.
type TopNExecutor struct {
	BaseExecutor
	plan   *plans.TopNPlanNode
	child  IExecutor
	result []sortRow
	cursor int
}

func NewTopNExecutor(ctx *execution.ExecutorContext, plan *plans.TopNPlanNode, child IExecutor) *TopNExecutor {
	return &TopNExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan, child: child}
}

func (e *TopNExecutor) GetOutSchema() catalog.Schema { return e.plan.OutSchema }

func (e *TopNExecutor) Init() {
	e.child.Init()
	e.cursor = 0

	schema := e.GetOutSchema()
	h := &topNHeap{schema: schema, orderBys: e.plan.OrderBys}

	for {
		var t catalog.Tuple
		var rid transaction.RID
		if err := e.child.Next(&t, &rid); err != nil {
			break
		}
		if e.plan.N <= 0 {
			continue
		}
		if h.Len() < e.plan.N {
			heap.Push(h, sortRow{tuple: t, rid: rid})
			continue
		}
		// the root is the current worst kept row; replace it if this row
		// ranks better.
		if lessByOrderBys(&t, &h.rows[0].tuple, schema, e.plan.OrderBys) {
			h.rows[0] = sortRow{tuple: t, rid: rid}
			heap.Fix(h, 0)
		}
	}

	e.result = make([]sortRow, h.Len())
	for i := len(e.result) - 1; i >= 0; i-- {
		e.result[i] = heap.Pop(h).(sortRow)
	}
}

func (e *TopNExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	if e.cursor >= len(e.result) {
		return execution.ErrNoTuple{}
	}
	*t = e.result[e.cursor].tuple
	*rid = e.result[e.cursor].rid
	e.cursor++
	return nil
}
