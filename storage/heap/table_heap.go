package heap

import (
	"sync"

	"coredb/buffer"
	"coredb/dberrors"
	"coredb/disk"
	"coredb/transaction"

	"github.com/pkg/errors"
)

// TableHeap is an unordered chain of buffer-pool pages holding a table's
// tuples. Grounded on the teacher's structures.TableHeap (InsertTuple/
// ReadTuple/UpdateTuple/HardDeleteTuple over a Rid, a NewTableIterator for
// full scans), adapted to page through coredb/buffer's Pool instead of a
// bespoke pager and to store tuples as opaque byte slices rather than typed
// Row structs, since row layout is entirely the catalog's concern here.
type TableHeap struct {
	mu          sync.Mutex
	pool        buffer.Pool
	firstPageID disk.PageID
	lastPageID  disk.PageID
}

// New allocates the heap's first page and returns a heap ready to accept
// inserts.
func New(pool buffer.Pool) (*TableHeap, error) {
	p, err := pool.NewPage()
	if err != nil {
		return nil, errors.Wrap(err, "heap: allocating first page")
	}
	initPage(p.Data())
	id := p.ID()
	pool.Unpin(id, true)
	return &TableHeap{pool: pool, firstPageID: id, lastPageID: id}, nil
}

// Open resumes a heap whose first page already exists, e.g. after reopening
// a catalog.
func Open(pool buffer.Pool, firstPageID disk.PageID) *TableHeap {
	return &TableHeap{pool: pool, firstPageID: firstPageID, lastPageID: firstPageID}
}

func (h *TableHeap) FirstPageID() disk.PageID { return h.firstPageID }

// InsertTuple appends data to the last page inserted into, following the
// chain forward and allocating and linking a new page when it reaches the
// end without room. Pages before that one are not revisited.
func (h *TableHeap) InsertTuple(data []byte) (transaction.RID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pageID := h.lastPageID
	for {
		p, err := h.pool.FetchPage(pageID)
		if err != nil {
			return transaction.RID{}, errors.Wrap(err, "heap: fetching page for insert")
		}
		sp := slottedPage{data: p.Data()}
		idx, err := sp.Append(data)
		if err == nil {
			h.pool.Unpin(pageID, true)
			h.lastPageID = pageID
			return transaction.RID{PageID: uint64(pageID), SlotIdx: uint32(idx)}, nil
		}
		h.pool.Unpin(pageID, false)
		if err != ErrNotEnoughSpace {
			return transaction.RID{}, errors.Wrap(err, "heap: inserting tuple")
		}

		next := sp.nextPageID()
		if next != disk.InvalidPageID {
			pageID = next
			continue
		}

		newPage, err := h.pool.NewPage()
		if err != nil {
			return transaction.RID{}, errors.Wrap(err, "heap: allocating page for insert")
		}
		initPage(newPage.Data())
		newID := newPage.ID()
		h.pool.Unpin(newID, true)

		full, err := h.pool.FetchPage(pageID)
		if err != nil {
			return transaction.RID{}, errors.Wrap(err, "heap: linking new page")
		}
		slottedPage{data: full.Data()}.setNextPageID(newID)
		h.pool.Unpin(pageID, true)

		pageID = newID
	}
}

// ReadTuple returns the payload stored at rid.
func (h *TableHeap) ReadTuple(rid transaction.RID) ([]byte, error) {
	p, err := h.pool.FetchPage(disk.PageID(rid.PageID))
	if err != nil {
		return nil, errors.Wrap(err, "heap: fetching page for read")
	}
	defer h.pool.Unpin(disk.PageID(rid.PageID), false)

	data := slottedPage{data: p.Data()}.Get(int(rid.SlotIdx))
	if data == nil {
		return nil, dberrors.ErrPageNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// UpdateTuple overwrites rid's payload in place if it still fits in its
// slot's reserved space, and reports whether the in-place update succeeded.
func (h *TableHeap) UpdateTuple(rid transaction.RID, data []byte) (bool, error) {
	p, err := h.pool.FetchPage(disk.PageID(rid.PageID))
	if err != nil {
		return false, errors.Wrap(err, "heap: fetching page for update")
	}
	fits := slottedPage{data: p.Data()}.SetAt(int(rid.SlotIdx), data)
	h.pool.Unpin(disk.PageID(rid.PageID), fits)
	return fits, nil
}

// DeleteTuple removes rid's payload from its page.
func (h *TableHeap) DeleteTuple(rid transaction.RID) error {
	p, err := h.pool.FetchPage(disk.PageID(rid.PageID))
	if err != nil {
		return errors.Wrap(err, "heap: fetching page for delete")
	}
	err = slottedPage{data: p.Data()}.DeleteAt(int(rid.SlotIdx))
	h.pool.Unpin(disk.PageID(rid.PageID), err == nil)
	return err
}

// Iterator walks every live tuple in the heap in page-chain order.
type Iterator struct {
	heap    *TableHeap
	pageID  disk.PageID
	slotIdx int
}

func (h *TableHeap) Iterator() *Iterator {
	return &Iterator{heap: h, pageID: h.firstPageID, slotIdx: 0}
}

// Next returns the next live tuple and its rid, or ok=false once the chain
// is exhausted.
func (it *Iterator) Next() (rid transaction.RID, data []byte, ok bool) {
	for it.pageID != disk.InvalidPageID {
		p, err := it.heap.pool.FetchPage(it.pageID)
		if err != nil {
			return transaction.RID{}, nil, false
		}
		sp := slottedPage{data: p.Data()}
		count := sp.slotCount()
		for it.slotIdx < count {
			idx := it.slotIdx
			it.slotIdx++
			if d := sp.Get(idx); d != nil {
				out := make([]byte, len(d))
				copy(out, d)
				it.heap.pool.Unpin(it.pageID, false)
				return transaction.RID{PageID: uint64(it.pageID), SlotIdx: uint32(idx)}, out, true
			}
		}
		next := sp.nextPageID()
		it.heap.pool.Unpin(it.pageID, false)
		it.pageID = next
		it.slotIdx = 0
	}
	return transaction.RID{}, nil, false
}
