package executors

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/execution"
	"coredb/execution/expressions"
	"coredb/execution/plans"
	"coredb/transaction"
)

// NestedLoopJoinExecutor re-scans its right child once per left tuple,
// yielding the concatenation of every pair that satisfies the join
// predicate. Under LeftJoin a left tuple that never matched any right row
// is emitted once, null-extended across the right side's columns, instead
// of dropped. Grounded on execution/executors/nested_loop_join.go.
type NestedLoopJoinExecutor struct {
	BaseExecutor
	plan          *plans.NestedLoopJoinPlanNode
	leftExec      IExecutor
	rightExec     IExecutor
	lastLeftTuple *catalog.Tuple
	leftMatched   bool
}

func NewNestedLoopJoinExecutor(ctx *execution.ExecutorContext, plan *plans.NestedLoopJoinPlanNode, l, r IExecutor) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan, leftExec: l, rightExec: r}
}

func (e *NestedLoopJoinExecutor) Init() {
	e.leftExec.Init()
	e.rightExec.Init()
	e.lastLeftTuple = nil
	e.leftMatched = false
}

// GetOutSchema returns the plan's out schema if given one, else the
// concatenation of the two input schemas.
func (e *NestedLoopJoinExecutor) GetOutSchema() catalog.Schema {
	if e.plan.GetOutSchema() != nil {
		return e.plan.OutSchema
	}
	return concatSchemas(e.leftExec.GetOutSchema(), e.rightExec.GetOutSchema())
}

func (e *NestedLoopJoinExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	ls, rs := e.leftExec.GetOutSchema(), e.rightExec.GetOutSchema()
	out := e.GetOutSchema()

	if e.lastLeftTuple == nil {
		var lt catalog.Tuple
		var lr transaction.RID
		if err := e.leftExec.Next(&lt, &lr); err != nil {
			return err
		}
		e.lastLeftTuple = &lt
		e.leftMatched = false
	}

	for {
		var rt catalog.Tuple
		var rr transaction.RID
		err := e.rightExec.Next(&rt, &rr)
		if err == nil {
			if matches(e.plan.GetPredicate(), e.lastLeftTuple, ls, &rt, rs) {
				e.leftMatched = true
				joined, jerr := joinTuples(e.lastLeftTuple, ls, &rt, rs, out)
				if jerr != nil {
					return jerr
				}
				*t = joined
				return nil
			}
			continue
		}
		if _, ok := err.(execution.ErrNoTuple); !ok {
			return err
		}

		e.rightExec.Init()
		prevLeft, prevMatched := e.lastLeftTuple, e.leftMatched

		var lt catalog.Tuple
		var lr transaction.RID
		nextErr := e.leftExec.Next(&lt, &lr)
		if nextErr != nil {
			e.lastLeftTuple = nil
			if e.plan.GetJoinType() == plans.LeftJoin && !prevMatched {
				joined, jerr := nullExtendRight(prevLeft, ls, rs, out)
				if jerr != nil {
					return jerr
				}
				*t = joined
				return nil
			}
			return nextErr
		}
		e.lastLeftTuple = &lt
		e.leftMatched = false

		if e.plan.GetJoinType() == plans.LeftJoin && !prevMatched {
			joined, jerr := nullExtendRight(prevLeft, ls, rs, out)
			if jerr != nil {
				return jerr
			}
			*t = joined
			return nil
		}
	}
}

func matches(pred expressions.IExpression, lt *catalog.Tuple, ls catalog.Schema, rt *catalog.Tuple, rs catalog.Schema) bool {
	if pred == nil {
		return true
	}
	if je, ok := pred.(expressions.JoinExpression); ok {
		return je.EvalJoin(lt, ls, rt, rs).AsInterface().(bool)
	}
	return pred.Eval(lt, ls).AsInterface().(bool)
}

func concatSchemas(s1, s2 catalog.Schema) catalog.Schema {
	cols := append([]catalog.Column{}, s1.GetColumns()...)
	cols = append(cols, s2.GetColumns()...)
	return catalog.NewSchema(cols)
}

// joinTuples builds a row in out's layout by reading every column out of lt
// and rt through their own schemas and re-encoding the values against out.
// Concatenating the two tuples' raw bytes doesn't work: each already carries
// its own leading null bitmap sized for its own schema, so the right
// tuple's bitmap byte would land at the wrong offset once out recomputes a
// single bitmap sized for the combined column count.
func joinTuples(lt *catalog.Tuple, ls catalog.Schema, rt *catalog.Tuple, rs catalog.Schema, out catalog.Schema) (catalog.Tuple, error) {
	vals := make([]*dbtype.Value, 0, ls.Len()+rs.Len())
	for i := 0; i < ls.Len(); i++ {
		vals = append(vals, lt.GetValue(ls, i))
	}
	for i := 0; i < rs.Len(); i++ {
		vals = append(vals, rt.GetValue(rs, i))
	}
	tuple, err := catalog.NewTupleWithSchema(vals, out)
	if err != nil {
		return catalog.Tuple{}, err
	}
	return *tuple, nil
}

// nullExtendRight builds a LeftJoin output row for a left tuple that never
// matched any right row: the left columns as read, every right column NULL.
func nullExtendRight(lt *catalog.Tuple, ls catalog.Schema, rs catalog.Schema, out catalog.Schema) (catalog.Tuple, error) {
	vals := make([]*dbtype.Value, 0, ls.Len()+rs.Len())
	for i := 0; i < ls.Len(); i++ {
		vals = append(vals, lt.GetValue(ls, i))
	}
	for i := 0; i < rs.Len(); i++ {
		vals = append(vals, dbtype.NewNull(rs.GetColumn(i).Type))
	}
	tuple, err := catalog.NewTupleWithSchema(vals, out)
	if err != nil {
		return catalog.Tuple{}, err
	}
	return *tuple, nil
}
