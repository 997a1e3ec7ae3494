package buffer

// Replacer selects a victim frame for the buffer pool to evict. LRUKReplacer
// is the only implementation this engine ships, but the buffer pool depends
// on the interface, not the concrete type, the way the teacher's
// buffer.Pool depended on IReplacer.
type Replacer interface {
	// RecordAccess appends the current timestamp to frameID's history,
	// dropping the oldest entry once more than K accesses are recorded.
	RecordAccess(frameID int)

	// SetEvictable toggles whether frameID may be chosen by Evict. It is a
	// no-op if frameID has no recorded accesses.
	SetEvictable(frameID int, evictable bool)

	// Evict picks a victim per the replacement policy, clears its history,
	// and marks it non-evictable. Returns false if no evictable frame
	// exists.
	Evict() (frameID int, ok bool)

	// Remove forcibly drops an evictable frame's history. Panics if the
	// frame has history but is not evictable.
	Remove(frameID int)

	// Size returns the number of currently evictable frames.
	Size() int
}
