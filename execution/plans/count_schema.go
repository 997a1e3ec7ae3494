package plans

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
)

// countSchema is the single-column schema Insert and Delete emit their one
// result row against, regardless of the shape of the rows they act on.
var countSchema = catalog.NewSchema([]catalog.Column{
	catalog.NewColumn("count", dbtype.Integer()),
})

// CountSchema returns the schema of the one-row, one-column tuple Insert and
// Delete executors emit reporting how many rows they touched.
func CountSchema() catalog.Schema { return countSchema }
