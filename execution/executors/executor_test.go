package executors

import (
	"testing"

	"coredb/buffer"
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/disk"
	"coredb/execution"
	"coredb/execution/expressions"
	"coredb/execution/plans"
	"coredb/transaction"

	"github.com/stretchr/testify/require"
)

func newTestCtx(t *testing.T) (*execution.ExecutorContext, catalog.Catalog) {
	t.Helper()
	pool := buffer.NewBufferPoolManager(64, 2, disk.NewMemoryManager())
	cat := catalog.NewCatalog(pool)
	return execution.NewExecutorContext(nil, cat, pool, nil, nil), cat
}

func numsSchema() catalog.Schema {
	return catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("id", dbtype.Integer()),
		catalog.NewColumn("val", dbtype.Integer()),
	})
}

func tagsSchema() catalog.Schema {
	return catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("id", dbtype.Integer()),
		catalog.NewColumn("tag", dbtype.FixedChar(5)),
	})
}

func seedNums(t *testing.T, cat catalog.Catalog, n int) *catalog.TableInfo {
	t.Helper()
	info, err := cat.CreateTable("nums", numsSchema())
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := info.InsertTupleViaValues([]*dbtype.Value{dbtype.NewInt(int32(i)), dbtype.NewInt(int32(i * 10))})
		require.NoError(t, err)
	}
	return info
}

func drainAll(t *testing.T, ex IExecutor) []catalog.Tuple {
	t.Helper()
	ex.Init()
	var out []catalog.Tuple
	for {
		var tup catalog.Tuple
		var rid transaction.RID
		err := ex.Next(&tup, &rid)
		if err != nil {
			_, isDone := err.(execution.ErrNoTuple)
			require.True(t, isDone, "unexpected error: %v", err)
			break
		}
		out = append(out, tup)
	}
	return out
}

func TestSeqScanExecutor_FiltersByPredicate(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 5)

	pred := expressions.NewCompExpression(expressions.GreaterThan,
		expressions.NewGetColumnExpression(0, 0), expressions.NewConstExpression(dbtype.NewInt(2)))
	plan := plans.NewSeqScanPlanNode(info.Schema, pred, info.OID)
	rows := drainAll(t, NewSeqScanExecutor(ctx, plan))

	require.Len(t, rows, 2)
	for _, r := range rows {
		require.Greater(t, r.GetValue(info.Schema, 0).AsInterface().(int32), int32(2))
	}
}

func TestIndexScanExecutor_PointAndRange(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 6)
	idx, err := cat.CreateBtreeIndex("nums_pk", "nums", []int{0}, true)
	require.NoError(t, err)

	point := plans.NewIndexPointScanPlanNode(info.Schema, nil, idx.OID, []*dbtype.Value{dbtype.NewInt(3)})
	rows := drainAll(t, NewIndexScanExecutor(ctx, point))
	require.Len(t, rows, 1)
	require.Equal(t, int32(3), rows[0].GetValue(info.Schema, 0).AsInterface())

	rng := plans.NewIndexRangeScanPlanNode(info.Schema, nil, idx.OID,
		[]*dbtype.Value{dbtype.NewInt(1)}, []*dbtype.Value{dbtype.NewInt(4)})
	rows = drainAll(t, NewIndexScanExecutor(ctx, rng))
	require.Len(t, rows, 3)
	for _, r := range rows {
		id := r.GetValue(info.Schema, 0).AsInterface().(int32)
		require.True(t, id >= 1 && id < 4)
	}
}

func TestInsertExecutor_RawInsert(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info, err := cat.CreateTable("nums", numsSchema())
	require.NoError(t, err)

	raw := [][]*dbtype.Value{
		{dbtype.NewInt(1), dbtype.NewInt(10)},
		{dbtype.NewInt(2), dbtype.NewInt(20)},
	}
	plan := plans.NewRawInsertPlanNode(raw, info.OID)
	rows := drainAll(t, NewInsertExecutor(ctx, plan, nil))
	require.Len(t, rows, 1)
	require.Equal(t, int32(2), rows[0].GetValue(plans.CountSchema(), 0).AsInterface())

	scanRows := drainAll(t, NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, nil, info.OID)))
	require.Len(t, scanRows, 2)
}

func TestInsertExecutor_EmptyRawInsertEmitsSingleZeroCountRow(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info, err := cat.CreateTable("nums", numsSchema())
	require.NoError(t, err)

	plan := plans.NewRawInsertPlanNode(nil, info.OID)
	rows := drainAll(t, NewInsertExecutor(ctx, plan, nil))
	require.Len(t, rows, 1)
	require.Equal(t, int32(0), rows[0].GetValue(plans.CountSchema(), 0).AsInterface())
}

func TestDeleteExecutor_RemovesMatchedRows(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 4)

	pred := expressions.NewCompExpression(expressions.Equal,
		expressions.NewGetColumnExpression(0, 0), expressions.NewConstExpression(dbtype.NewInt(2)))
	scan := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, pred, info.OID))
	deletePlan := plans.NewDeletePlanNode(nil, info.OID)
	deleted := drainAll(t, NewDeleteExecutor(ctx, deletePlan, scan))
	require.Len(t, deleted, 1)
	require.Equal(t, int32(1), deleted[0].GetValue(plans.CountSchema(), 0).AsInterface())

	remaining := drainAll(t, NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, nil, info.OID)))
	require.Len(t, remaining, 3)
}

func TestDeleteExecutor_NoMatchesEmitsSingleZeroCountRow(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 4)

	pred := expressions.NewCompExpression(expressions.Equal,
		expressions.NewGetColumnExpression(0, 0), expressions.NewConstExpression(dbtype.NewInt(99)))
	scan := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, pred, info.OID))
	deletePlan := plans.NewDeletePlanNode(nil, info.OID)
	deleted := drainAll(t, NewDeleteExecutor(ctx, deletePlan, scan))
	require.Len(t, deleted, 1)
	require.Equal(t, int32(0), deleted[0].GetValue(plans.CountSchema(), 0).AsInterface())
}

func seedTags(t *testing.T, cat catalog.Catalog) *catalog.TableInfo {
	t.Helper()
	info, err := cat.CreateTable("tags", tagsSchema())
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := info.InsertTupleViaValues([]*dbtype.Value{dbtype.NewInt(int32(i)), dbtype.NewFixedChar("t", 5)})
		require.NoError(t, err)
	}
	return info
}

func TestNestedLoopJoinExecutor_MatchesOnEquality(t *testing.T) {
	ctx, cat := newTestCtx(t)
	nums := seedNums(t, cat, 4)
	tags := seedTags(t, cat)

	pred := expressions.NewCompExpression(expressions.Equal,
		expressions.NewGetColumnExpression(0, 0), expressions.NewGetColumnExpression(0, 1))
	left := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(nums.Schema, nil, nums.OID))
	right := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(tags.Schema, nil, tags.OID))
	joinPlan := plans.NewNestedLoopJoinPlanNode(nil, pred, nil, nil, plans.InnerJoin)
	rows := drainAll(t, NewNestedLoopJoinExecutor(ctx, joinPlan, left, right))
	require.Len(t, rows, 4)
	joined := concatSchemas(nums.Schema, tags.Schema)
	for _, r := range rows {
		require.Equal(t, r.GetValue(joined, 0).AsInterface(), r.GetValue(joined, 2).AsInterface())
		require.Equal(t, "t    ", r.GetValue(joined, 3).AsInterface())
	}
}

func TestNestedLoopJoinExecutor_LeftJoinNullExtendsUnmatchedLeftRows(t *testing.T) {
	ctx, cat := newTestCtx(t)
	nums := seedNums(t, cat, 4)
	tags, err := cat.CreateTable("tags", tagsSchema())
	require.NoError(t, err)
	_, err = tags.InsertTupleViaValues([]*dbtype.Value{dbtype.NewInt(1), dbtype.NewFixedChar("t", 5)})
	require.NoError(t, err)

	pred := expressions.NewCompExpression(expressions.Equal,
		expressions.NewGetColumnExpression(0, 0), expressions.NewGetColumnExpression(0, 1))
	left := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(nums.Schema, nil, nums.OID))
	right := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(tags.Schema, nil, tags.OID))
	joinPlan := plans.NewNestedLoopJoinPlanNode(nil, pred, nil, nil, plans.LeftJoin)
	rows := drainAll(t, NewNestedLoopJoinExecutor(ctx, joinPlan, left, right))
	require.Len(t, rows, 4)

	joined := concatSchemas(nums.Schema, tags.Schema)
	matched, unmatched := 0, 0
	for _, r := range rows {
		if r.GetValue(joined, 2).IsNull() {
			unmatched++
			require.True(t, r.GetValue(joined, 3).IsNull())
		} else {
			matched++
			require.Equal(t, int32(1), r.GetValue(joined, 0).AsInterface())
		}
	}
	require.Equal(t, 1, matched)
	require.Equal(t, 3, unmatched)
}

func TestNestedIndexJoinExecutor_ProbesInnerIndex(t *testing.T) {
	ctx, cat := newTestCtx(t)
	nums := seedNums(t, cat, 4)
	tags := seedTags(t, cat)
	tagsIdx, err := cat.CreateBtreeIndex("tags_pk", "tags", []int{0}, true)
	require.NoError(t, err)

	outer := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(nums.Schema, nil, nums.OID))
	joinPlan := plans.NewNestedIndexJoinPlanNode(nil, nil, nil, tagsIdx.OID, 0, plans.InnerJoin)
	rows := drainAll(t, NewNestedIndexJoinExecutor(ctx, joinPlan, outer))
	require.Len(t, rows, 4)
	joined := concatSchemas(nums.Schema, tags.Schema)
	for _, r := range rows {
		require.Equal(t, r.GetValue(joined, 0).AsInterface(), r.GetValue(joined, 2).AsInterface())
		require.Equal(t, "t    ", r.GetValue(joined, 3).AsInterface())
	}
}

func TestNestedIndexJoinExecutor_LeftJoinNullExtendsUnmatchedOuterRows(t *testing.T) {
	ctx, cat := newTestCtx(t)
	nums := seedNums(t, cat, 4)
	tags, err := cat.CreateTable("tags", tagsSchema())
	require.NoError(t, err)
	_, err = tags.InsertTupleViaValues([]*dbtype.Value{dbtype.NewInt(1), dbtype.NewFixedChar("t", 5)})
	require.NoError(t, err)
	tagsIdx, err := cat.CreateBtreeIndex("tags_pk", "tags", []int{0}, true)
	require.NoError(t, err)

	outer := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(nums.Schema, nil, nums.OID))
	joinPlan := plans.NewNestedIndexJoinPlanNode(nil, nil, nil, tagsIdx.OID, 0, plans.LeftJoin)
	rows := drainAll(t, NewNestedIndexJoinExecutor(ctx, joinPlan, outer))
	require.Len(t, rows, 4)

	joined := concatSchemas(nums.Schema, tags.Schema)
	matched, unmatched := 0, 0
	for _, r := range rows {
		if r.GetValue(joined, 2).IsNull() {
			unmatched++
			require.True(t, r.GetValue(joined, 3).IsNull())
		} else {
			matched++
			require.Equal(t, int32(1), r.GetValue(joined, 0).AsInterface())
		}
	}
	require.Equal(t, 1, matched)
	require.Equal(t, 3, unmatched)
}

func TestAggregationExecutor_CountAndSumWithNoGroupBy(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 5)

	outSchema := catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("cnt", dbtype.Integer()),
		catalog.NewColumn("total", dbtype.Integer()),
	})
	aggregates := []plans.AggregateTerm{
		{Type: plans.CountStar},
		{Type: plans.Sum, Expr: expressions.NewGetColumnExpression(1, 0)},
	}
	scan := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, nil, info.OID))
	aggPlan := plans.NewAggregationPlanNode(outSchema, nil, nil, aggregates)
	rows := drainAll(t, NewAggregationExecutor(ctx, aggPlan, scan))

	require.Len(t, rows, 1)
	require.Equal(t, int32(5), rows[0].GetValue(outSchema, 0).AsInterface())
	require.Equal(t, int32(0+10+20+30+40), rows[0].GetValue(outSchema, 1).AsInterface())
}

func TestAggregationExecutor_EmptyInputWithNoGroupByEmitsNullRow(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 0)

	outSchema := catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("star", dbtype.Integer()),
		catalog.NewColumn("cnt", dbtype.Integer()),
		catalog.NewColumn("total", dbtype.Integer()),
		catalog.NewColumn("lo", dbtype.Integer()),
		catalog.NewColumn("hi", dbtype.Integer()),
	})
	aggregates := []plans.AggregateTerm{
		{Type: plans.CountStar},
		{Type: plans.Count, Expr: expressions.NewGetColumnExpression(1, 0)},
		{Type: plans.Sum, Expr: expressions.NewGetColumnExpression(1, 0)},
		{Type: plans.Min, Expr: expressions.NewGetColumnExpression(1, 0)},
		{Type: plans.Max, Expr: expressions.NewGetColumnExpression(1, 0)},
	}
	scan := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, nil, info.OID))
	aggPlan := plans.NewAggregationPlanNode(outSchema, nil, nil, aggregates)
	rows := drainAll(t, NewAggregationExecutor(ctx, aggPlan, scan))

	require.Len(t, rows, 1)
	require.Equal(t, int32(0), rows[0].GetValue(outSchema, 0).AsInterface())
	require.True(t, rows[0].GetValue(outSchema, 1).IsNull())
	require.True(t, rows[0].GetValue(outSchema, 2).IsNull())
	require.True(t, rows[0].GetValue(outSchema, 3).IsNull())
	require.True(t, rows[0].GetValue(outSchema, 4).IsNull())
}

func TestSortExecutor_OrdersByValDescending(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 5)

	scan := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, nil, info.OID))
	sortPlan := plans.NewSortPlanNode(info.Schema, nil, []plans.OrderByTerm{
		{Expr: expressions.NewGetColumnExpression(1, 0), Desc: true},
	})
	rows := drainAll(t, NewSortExecutor(ctx, sortPlan, scan))

	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1].GetValue(info.Schema, 1).AsInterface().(int32)
		cur := rows[i].GetValue(info.Schema, 1).AsInterface().(int32)
		require.GreaterOrEqual(t, prev, cur)
	}
}

func TestTopNExecutor_ReturnsBestNByValDescending(t *testing.T) {
	ctx, cat := newTestCtx(t)
	info := seedNums(t, cat, 10)

	scan := NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(info.Schema, nil, info.OID))
	topNPlan := plans.NewTopNPlanNode(info.Schema, nil, []plans.OrderByTerm{
		{Expr: expressions.NewGetColumnExpression(1, 0), Desc: true},
	}, 3)
	rows := drainAll(t, NewTopNExecutor(ctx, topNPlan, scan))

	require.Len(t, rows, 3)
	require.Equal(t, int32(90), rows[0].GetValue(info.Schema, 1).AsInterface())
	require.Equal(t, int32(80), rows[1].GetValue(info.Schema, 1).AsInterface())
	require.Equal(t, int32(70), rows[2].GetValue(info.Schema, 1).AsInterface())
}
