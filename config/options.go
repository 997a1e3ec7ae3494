// Package config holds the tunables the storage engine is opened with. There
// is no file or environment parsing here — the engine is embedded, and its
// Go caller supplies these directly, the way the teacher's db.OpenDB took
// its pool size and fsync flag as plain arguments.
package config

import "time"

// Options configures a freshly opened Engine.
type Options struct {
	// PoolSize is the number of frames in the buffer pool.
	PoolSize int

	// ReplacerK is K in the LRU-K replacement policy.
	ReplacerK int

	// HashBucketSize is an extendible hash bucket capacity. Engine does not
	// apply it: the buffer pool's page table always uses buckets of 4.
	HashBucketSize int

	// LeafMaxSize and InternalMaxSize are B+ tree node fanouts, with min
	// size ceil(max/2). Engine does not apply them: catalog indexes always
	// use a fanout of 32.
	LeafMaxSize     int
	InternalMaxSize int

	// CycleDetectionInterval is how often the lock manager's background
	// goroutine scans the wait-for graph for cycles.
	CycleDetectionInterval time.Duration

	// DefaultIsolation is the isolation level used for transactions that
	// do not specify one explicitly.
	DefaultIsolation IsolationLevel
}

type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "ReadUncommitted"
	case ReadCommitted:
		return "ReadCommitted"
	case RepeatableRead:
		return "RepeatableRead"
	default:
		return "UnknownIsolationLevel"
	}
}

// Option mutates Options; used with NewOptions the way the pack's other
// embeddable engines build up a config struct via small setters.
type Option func(*Options)

func WithPoolSize(n int) Option        { return func(o *Options) { o.PoolSize = n } }
func WithReplacerK(k int) Option       { return func(o *Options) { o.ReplacerK = k } }
func WithHashBucketSize(n int) Option  { return func(o *Options) { o.HashBucketSize = n } }
func WithLeafMaxSize(n int) Option     { return func(o *Options) { o.LeafMaxSize = n } }
func WithInternalMaxSize(n int) Option { return func(o *Options) { o.InternalMaxSize = n } }
func WithCycleDetectionInterval(d time.Duration) Option {
	return func(o *Options) { o.CycleDetectionInterval = d }
}
func WithDefaultIsolation(l IsolationLevel) Option {
	return func(o *Options) { o.DefaultIsolation = l }
}

// NewOptions returns sane defaults and applies opts on top.
func NewOptions(opts ...Option) Options {
	o := Options{
		PoolSize:               64,
		ReplacerK:              2,
		HashBucketSize:         4,
		LeafMaxSize:            4,
		InternalMaxSize:        4,
		CycleDetectionInterval: 50 * time.Millisecond,
		DefaultIsolation:       ReadCommitted,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LeafMinSize and InternalMinSize implement the spec's ceil(max/2) rule.
func LeafMinSize(max int) int     { return (max + 1) / 2 }
func InternalMinSize(max int) int { return (max + 1) / 2 }
