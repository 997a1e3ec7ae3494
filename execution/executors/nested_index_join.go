package executors

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/execution"
	"coredb/execution/expressions"
	"coredb/execution/plans"
	"coredb/transaction"
)

// NestedIndexJoinExecutor probes an index once per outer tuple instead of
// rescanning the inner table, the join strategy NestedLoopJoinExecutor
// resorts to when no index covers the join column. Under LeftJoin an outer
// row with no index hit (or a hit that fails the join predicate) is
// null-extended rather than skipped. Grounded on the teacher's
// NestedLoopJoinExecutor, adapted to a single index.Find probe per outer row
// using catalog.IndexInfo.Lookup.
type NestedIndexJoinExecutor struct {
	BaseExecutor
	plan       *plans.NestedIndexJoinPlanNode
	outerExec  IExecutor
	innerIndex *catalog.IndexInfo
	innerTable *catalog.TableInfo
}

func NewNestedIndexJoinExecutor(ctx *execution.ExecutorContext, plan *plans.NestedIndexJoinPlanNode, outer IExecutor) *NestedIndexJoinExecutor {
	return &NestedIndexJoinExecutor{BaseExecutor: BaseExecutor{executorCtx: ctx}, plan: plan, outerExec: outer}
}

func (e *NestedIndexJoinExecutor) Init() {
	e.outerExec.Init()
	e.innerIndex = e.executorCtx.Catalog.GetIndexByOID(e.plan.GetInnerIndexOID())
	e.innerTable = e.innerIndex.GetTable()
}

func (e *NestedIndexJoinExecutor) GetOutSchema() catalog.Schema {
	if e.plan.GetOutSchema() != nil {
		return e.plan.OutSchema
	}
	return concatSchemas(e.outerExec.GetOutSchema(), e.innerTable.Schema)
}

func (e *NestedIndexJoinExecutor) Next(t *catalog.Tuple, rid *transaction.RID) error {
	outerSchema := e.outerExec.GetOutSchema()
	innerSchema := e.innerTable.Schema
	out := e.GetOutSchema()
	left := e.plan.GetJoinType() == plans.LeftJoin

	for {
		var ot catalog.Tuple
		var or transaction.RID
		if err := e.outerExec.Next(&ot, &or); err != nil {
			return err
		}

		key := ot.GetValue(outerSchema, e.plan.GetOuterKeyColIdx())
		innerRid, ok := e.innerIndex.Lookup([]*dbtype.Value{key})
		if !ok {
			if left {
				joined, err := nullExtendRight(&ot, outerSchema, innerSchema, out)
				if err != nil {
					return err
				}
				*t = joined
				*rid = or
				return nil
			}
			continue
		}
		innerTuple, err := e.innerTable.ReadTuple(innerRid)
		if err != nil {
			if left {
				joined, jerr := nullExtendRight(&ot, outerSchema, innerSchema, out)
				if jerr != nil {
					return jerr
				}
				*t = joined
				*rid = or
				return nil
			}
			continue
		}

		if pred := e.plan.GetPredicate(); pred != nil {
			if je, ok := pred.(expressions.JoinExpression); ok {
				if !je.EvalJoin(&ot, outerSchema, innerTuple, innerSchema).AsInterface().(bool) {
					if left {
						joined, jerr := nullExtendRight(&ot, outerSchema, innerSchema, out)
						if jerr != nil {
							return jerr
						}
						*t = joined
						*rid = or
						return nil
					}
					continue
				}
			}
		}

		if err := lockRow(e.executorCtx, e.innerTable.OID, innerRid, transaction.Shared); err != nil {
			return err
		}

		joined, jerr := joinTuples(&ot, outerSchema, innerTuple, innerSchema, out)
		if jerr != nil {
			return jerr
		}
		*t = joined
		*rid = or
		return nil
	}
}
