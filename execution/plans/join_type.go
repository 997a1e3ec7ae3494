package plans

// JoinType distinguishes how a join operator handles an outer row with no
// matching inner row: Inner drops it, Left emits it once with every
// right-side column null-extended.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)
