package index

import (
	"coredb/disk"
	"coredb/transaction"

	"github.com/pkg/errors"
)

// Iterator walks key/value pairs in ascending key order starting from a
// Seek/First position, following the leaf sibling chain. Grounded on
// btree/iterator.go's forward-only cursor over the leaf level and on
// original_source's IndexIterator, which pins its current leaf page for the
// iterator's entire lifetime and unpins it in its destructor. Go has no
// destructors, so callers must call Close (or exhaust the iterator, which
// unpins itself) to release the pinned page.
type Iterator struct {
	tree   *BTree
	pageID disk.PageID
	leaf   decodedNode
	pos    int
	pinned bool
}

// Seek positions an iterator at the first key >= key.
func (t *BTree) Seek(key string) (*Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id := t.root
	for {
		n, err := fetchNode(t.pool, id)
		if err != nil {
			return nil, err
		}
		if n.leaf {
			pos, _ := lowerBound(n.keys, key)
			return t.pin(id, n, pos)
		}
		id = n.children[upperBound(n.keys, key)]
	}
}

// First positions an iterator at the smallest key in the tree.
func (t *BTree) First() (*Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id := t.root
	for {
		n, err := fetchNode(t.pool, id)
		if err != nil {
			return nil, err
		}
		if n.leaf {
			return t.pin(id, n, 0)
		}
		id = n.children[0]
	}
}

// pin re-fetches id to take out the iterator's holding pin on it (Seek/
// First already unpinned it once via fetchNode's decode-then-unpin), and
// caches its decoded content for Key/Value to read without touching the
// pool on every step.
func (t *BTree) pin(id disk.PageID, n decodedNode, pos int) (*Iterator, error) {
	if _, err := t.pool.FetchPage(id); err != nil {
		return nil, errors.Wrapf(err, "index: pinning leaf page %d", id)
	}
	return &Iterator{tree: t, pageID: id, leaf: n, pos: pos, pinned: true}, nil
}

// Valid reports whether the iterator currently addresses a key.
func (it *Iterator) Valid() bool {
	return it.pinned && it.pos < len(it.leaf.keys)
}

func (it *Iterator) Key() string { return it.leaf.keys[it.pos] }

func (it *Iterator) Value() transaction.RID { return it.leaf.values[it.pos] }

// Next advances the iterator to the following key, crossing into the next
// leaf via the sibling link if the current leaf is exhausted, unpinning the
// leaf it leaves behind. A failure fetching the next leaf leaves the
// iterator invalid (Valid reports false) after releasing its pin.
func (it *Iterator) Next() {
	it.pos++
	if it.pos < len(it.leaf.keys) {
		return
	}

	next := it.leaf.next
	it.tree.pool.Unpin(it.pageID, false)
	it.pinned = false
	if next == disk.InvalidPageID {
		return
	}

	p, err := it.tree.pool.FetchPage(next)
	if err != nil {
		return
	}
	it.leaf = decodeNode(p.Data())
	it.pageID = next
	it.pos = 0
	it.pinned = true
}

// Close releases the iterator's currently pinned leaf page, if any. Safe to
// call more than once and on an already-exhausted iterator.
func (it *Iterator) Close() {
	if !it.pinned {
		return
	}
	it.tree.pool.Unpin(it.pageID, false)
	it.pinned = false
}
