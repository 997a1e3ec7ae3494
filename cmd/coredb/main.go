// Command coredb is a small runnable demonstration of the engine: create a
// table, insert a few rows through the executor runtime, then scan them
// back. It exists to exercise Engine end to end, not as a SQL front end —
// there is no SQL text layer, so it builds plan nodes directly.
package main

import (
	"fmt"
	"log"

	"coredb"
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/config"
	"coredb/execution/executors"
	"coredb/execution/plans"
	"coredb/transaction"
)

func main() {
	engine := coredb.OpenInMemory(config.NewOptions())
	defer engine.Close()

	schema := catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("id", dbtype.Integer()),
		catalog.NewColumn("name", dbtype.FixedChar(20)),
	})

	info, err := engine.Catalog.CreateTable("person", schema)
	if err != nil {
		log.Fatalf("creating table: %v", err)
	}

	txn := engine.BeginTxn()
	ctx := engine.NewExecutorContext(txn)

	raw := [][]*dbtype.Value{
		{dbtype.NewInt(1), dbtype.NewFixedChar("ada", 20)},
		{dbtype.NewInt(2), dbtype.NewFixedChar("alan", 20)},
		{dbtype.NewInt(3), dbtype.NewFixedChar("grace", 20)},
	}
	insert := executors.NewInsertExecutor(ctx, plans.NewRawInsertPlanNode(raw, info.OID), nil)
	insert.Init()
	var countTuple catalog.Tuple
	var countRid transaction.RID
	if err := insert.Next(&countTuple, &countRid); err != nil {
		log.Fatalf("inserting rows: %v", err)
	}
	fmt.Printf("inserted %v rows\n", countTuple.GetValue(plans.CountSchema(), 0).AsInterface())

	scan := executors.NewSeqScanExecutor(ctx, plans.NewSeqScanPlanNode(schema, nil, info.OID))
	scan.Init()
	for {
		var t catalog.Tuple
		var rid transaction.RID
		if err := scan.Next(&t, &rid); err != nil {
			break
		}
		id := t.GetValue(schema, 0).AsInterface()
		name := t.GetValue(schema, 1).AsInterface()
		fmt.Printf("id=%v name=%q\n", id, name)
	}

	engine.Commit(txn)
}
