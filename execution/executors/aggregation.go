package executors

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/execution"
	"coredb/execution/plans"
	"coredb/transaction"

	"github.com/pkg/errors"
)

// aggregateState accumulates one AggregateTerm's running value across a
// group's rows. Sum/Min/Max track whether the underlying column is an
// integer or a float so the emitted value keeps the right type.
type aggregateState struct {
	term    plans.AggregateTerm
	count   int64
	sumF    float64
	isFloat bool
	extreme *dbtype.Value
}

func newAggregateState(term plans.AggregateTerm) *aggregateState {
	return &aggregateState{term: term}
}

func (s *aggregateState) add(t *catalog.Tuple, schema catalog.Schema) {
	if s.term.Type == plans.CountStar {
		s.count++
		return
	}
	v := s.term.Expr.Eval(t, schema)
	if v == nil {
		return
	}
	s.count++

	switch s.term.Type {
	case plans.Count:
		return
	case plans.Sum:
		switch n := v.AsInterface().(type) {
		case int32:
			s.sumF += float64(n)
		case float64:
			s.sumF += n
			s.isFloat = true
		}
	case plans.Min:
		if s.extreme == nil || v.Less(s.extreme) {
			s.extreme = v
		}
	case plans.Max:
		if s.extreme == nil || s.extreme.Less(v) {
			s.extreme = v
		}
	}
}

// result reports this state's final value for its aggregate term. colType is
// the output column's declared type, used to build a correctly typed NULL
// for Count/Sum/Min/Max over an empty group; CountStar always has rows to
// count (it counts the group itself) so it alone keeps returning 0.
func (s *aggregateState) result(colType dbtype.TypeID) *dbtype.Value {
	switch s.term.Type {
	case plans.CountStar:
		return dbtype.NewInt(int32(s.count))
	case plans.Count:
		if s.count == 0 {
			return dbtype.NewNull(colType)
		}
		return dbtype.NewInt(int32(s.count))
	case plans.Sum:
		if s.count == 0 {
			return dbtype.NewNull(colType)
		}
		if s.isFloat {
			return dbtype.NewFloat64(s.sumF)
		}
		return dbtype.NewInt(int32(s.sumF))
	case plans.Min, plans.Max:
		if s.extreme == nil {
			return dbtype.NewNull(colType)
		}
		return s.extreme
	default:
		return nil
	}
}

// AggregationExecutor fully materializes its child, groups rows by
// GroupBys, and yields one result tuple per group (or a single tuple over
// the whole input when there are no group-by terms). Grounded in the
// Volcano-style Init/Next contract every other executor here follows;
// unlike scan and join, hash aggregation has no teacher source to adapt
// since the copied repo predates a query layer.
type AggregationExecutor struct {
	BaseExecutor
	plan  *plans.AggregationPlanNode
	child IExecutor

	groups     map[string][]*aggregateState
	groupKeys  map[string][]*dbtype.Value
	order      []string
	cursor     int
	initErr    error
}

func NewAggregationExecutor(ctx *execution.ExecutorContext, plan *plans.AggregationPlanNode, child IExecutor) *AggregationExecutor {
	return &AggregationExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan, child: child}
}

func (e *AggregationExecutor) GetOutSchema() catalog.Schema { return e.plan.OutSchema }

func (e *AggregationExecutor) Init() {
	e.child.Init()
	e.groups = map[string][]*aggregateState{}
	e.groupKeys = map[string][]*dbtype.Value{}
	e.order = nil
	e.cursor = 0
	e.initErr = nil

	childSchema := e.child.GetOutSchema()

	for {
		var t catalog.Tuple
		var rid transaction.RID
		if err := e.child.Next(&t, &rid); err != nil {
			if _, ok := err.(execution.ErrNoTuple); !ok {
				e.initErr = err
			}
			break
		}

		keyVals := make([]*dbtype.Value, len(e.plan.GroupBys))
		for i, g := range e.plan.GroupBys {
			keyVals[i] = g.Eval(&t, childSchema)
		}
		key := catalog.EncodeKey(keyVals)

		states, ok := e.groups[key]
		if !ok {
			states = make([]*aggregateState, len(e.plan.Aggregates))
			for i, term := range e.plan.Aggregates {
				states[i] = newAggregateState(term)
			}
			e.groups[key] = states
			e.groupKeys[key] = keyVals
			e.order = append(e.order, key)
		}
		for _, s := range states {
			s.add(&t, childSchema)
		}
	}

	if len(e.order) == 0 && len(e.plan.GroupBys) == 0 {
		states := make([]*aggregateState, len(e.plan.Aggregates))
		for i, term := range e.plan.Aggregates {
			states[i] = newAggregateState(term)
		}
		e.groups[""] = states
		e.groupKeys[""] = nil
		e.order = append(e.order, "")
	}
}

func (e *AggregationExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	if e.initErr != nil {
		err := e.initErr
		e.initErr = nil
		return err
	}
	if e.cursor >= len(e.order) {
		return execution.ErrNoTuple{}
	}
	key := e.order[e.cursor]
	e.cursor++

	vals := append([]*dbtype.Value{}, e.groupKeys[key]...)
	for i, s := range e.groups[key] {
		colType := e.plan.OutSchema.GetColumn(len(e.plan.GroupBys) + i).Type
		vals = append(vals, s.result(colType))
	}

	tuple, err := catalog.NewTupleWithSchema(vals, e.plan.OutSchema)
	if err != nil {
		return errors.Wrap(err, "aggregation: building result tuple")
	}
	*t = *tuple
	*rid = transaction.RID{}
	return nil
}
