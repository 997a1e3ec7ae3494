package buffer

import "sync"

// LRUKReplacer evicts the resident frame with the largest backward
// k-distance: the elapsed (logical) time since its k-th most recent access.
// Frames with fewer than k recorded accesses have infinite backward
// k-distance and are preferred for eviction, ties broken by earliest first
// access. Grounded on original_source/src/buffer/lru_k_replacer.cpp and the
// teacher's single-mutex buffer/lru_replacer.go.
type LRUKReplacer struct {
	mu sync.Mutex

	k         int
	numFrames int
	curTime   uint64

	// history holds, per frame id, up to k most recent access timestamps
	// (oldest first) and whether the frame is currently evictable.
	history map[int]*frameHistory
	size    int
}

type frameHistory struct {
	accesses  []uint64
	evictable bool
}

// NewLRUKReplacer builds a replacer over numFrames frame ids [0, numFrames).
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	if k < 1 {
		panic("buffer: k must be >= 1")
	}
	return &LRUKReplacer{
		k:         k,
		numFrames: numFrames,
		history:   make(map[int]*frameHistory),
	}
}

func (r *LRUKReplacer) checkRange(frameID int) {
	if frameID < 0 || frameID >= r.numFrames {
		panic("buffer: frame id out of range")
	}
}

func (r *LRUKReplacer) RecordAccess(frameID int) {
	r.checkRange(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.history[frameID]
	if !ok {
		h = &frameHistory{}
		r.history[frameID] = h
	}

	if len(h.accesses) == r.k {
		h.accesses = h.accesses[1:]
	}
	h.accesses = append(h.accesses, r.curTime)
	r.curTime++
}

func (r *LRUKReplacer) SetEvictable(frameID int, evictable bool) {
	r.checkRange(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.history[frameID]
	if !ok || len(h.accesses) == 0 {
		return
	}

	if evictable && !h.evictable {
		r.size++
	} else if !evictable && h.evictable {
		r.size--
	}
	h.evictable = evictable
}

func (r *LRUKReplacer) Evict() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	victim := -1
	victimIsInfinite := false
	var victimEarliest uint64
	var victimBackwardDist uint64

	for id, h := range r.history {
		if !h.evictable || len(h.accesses) == 0 {
			continue
		}

		if len(h.accesses) < r.k {
			earliest := h.accesses[0]
			if victim == -1 || !victimIsInfinite || earliest < victimEarliest {
				victim, victimIsInfinite, victimEarliest = id, true, earliest
			}
			continue
		}

		if victimIsInfinite {
			continue // an infinite-distance candidate always outranks a finite one
		}

		dist := r.curTime - h.accesses[0]
		if victim == -1 || dist > victimBackwardDist {
			victim, victimBackwardDist = id, dist
		}
	}

	if victim == -1 {
		return 0, false
	}

	h := r.history[victim]
	h.accesses = nil
	h.evictable = false
	r.size--
	return victim, true
}

func (r *LRUKReplacer) Remove(frameID int) {
	r.checkRange(frameID)

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.history[frameID]
	if !ok || len(h.accesses) == 0 {
		return
	}

	if !h.evictable {
		panic("buffer: trying to Remove a non-evictable frame")
	}

	h.accesses = nil
	h.evictable = false
	r.size--
}

func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

var _ Replacer = (*LRUKReplacer)(nil)
