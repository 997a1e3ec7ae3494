package optimizer

import (
	"testing"

	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/execution/expressions"
	"coredb/execution/plans"

	"github.com/stretchr/testify/require"
)

func schema() catalog.Schema {
	return catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("id", dbtype.Integer()),
		catalog.NewColumn("val", dbtype.Integer()),
	})
}

func TestOptimize_RewritesLimitOfSortToTopN(t *testing.T) {
	s := schema()
	scan := plans.NewSeqScanPlanNode(s, nil, catalog.TableOID(1))
	orderBys := []plans.OrderByTerm{{Expr: expressions.NewGetColumnExpression(1, 0), Desc: true}}
	sortNode := plans.NewSortPlanNode(s, scan, orderBys)
	limitNode := plans.NewLimitPlanNode(sortNode, 5)

	optimized := Optimize(limitNode)

	topN, ok := optimized.(*plans.TopNPlanNode)
	require.True(t, ok, "expected Limit(Sort(scan)) to rewrite to a TopNPlanNode")
	require.Equal(t, 5, topN.N)
	require.Same(t, scan, topN.GetChildPlan())
	require.Equal(t, orderBys, topN.OrderBys)
}

func TestOptimize_LeavesLimitWithoutSortAlone(t *testing.T) {
	s := schema()
	scan := plans.NewSeqScanPlanNode(s, nil, catalog.TableOID(1))
	limitNode := plans.NewLimitPlanNode(scan, 5)

	optimized := Optimize(limitNode)

	limit, ok := optimized.(*plans.LimitPlanNode)
	require.True(t, ok, "a bare Limit(scan) should not be rewritten")
	require.Same(t, scan, limit.GetChildPlan())
}

func TestOptimize_RewritesNestedInsideLargerTree(t *testing.T) {
	s := schema()
	left := plans.NewSeqScanPlanNode(s, nil, catalog.TableOID(1))
	right := plans.NewSeqScanPlanNode(s, nil, catalog.TableOID(2))
	join := plans.NewNestedLoopJoinPlanNode(nil, nil, left, right, plans.InnerJoin)
	orderBys := []plans.OrderByTerm{{Expr: expressions.NewGetColumnExpression(0, 0)}}
	sortNode := plans.NewSortPlanNode(s, join, orderBys)
	limitNode := plans.NewLimitPlanNode(sortNode, 10)

	optimized := Optimize(limitNode)

	topN, ok := optimized.(*plans.TopNPlanNode)
	require.True(t, ok)
	require.Same(t, join, topN.GetChildPlan())
}
