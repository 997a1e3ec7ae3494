// Package heap implements the table heap: an unordered, singly-linked chain
// of buffer-pool pages storing variable-length tuples behind a slot
// directory.
//
// Grounded on btree/slotted_page.go, whose slot-array-grows-from-the-front /
// payload-grows-from-the-back layout, varint-prefixed payloads, and
// vacuum-then-retry insertion are carried over unchanged; here it operates
// directly on a buffer.Page's fixed-size byte array instead of a generic
// NodePage, and its header gains a next-page pointer so a table's pages form
// a chain the buffer pool can page in one at a time.
package heap

import (
	"encoding/binary"
	"errors"
	"sort"

	"coredb/disk"
)

var ErrNotEnoughSpace = errors.New("heap: not enough space in page")

const headerSize = 2 + 2 + 2 + 8 // freeSpacePtr, slotArrSize, emptyBytes, nextPageID
const slotEntrySize = 2

type slotEntry struct {
	offset  uint16
	deleted bool
}

// slottedPage is a thin view over a page's raw bytes; it holds no state of
// its own so it never goes stale relative to the buffer pool frame it reads.
type slottedPage struct {
	data []byte
}

type pageHeader struct {
	freeSpacePointer uint16
	slotArrSize      uint16
	emptyBytes       uint16
	nextPageID       disk.PageID
}

func (sp slottedPage) header() pageHeader {
	d := sp.data
	return pageHeader{
		freeSpacePointer: binary.BigEndian.Uint16(d),
		slotArrSize:      binary.BigEndian.Uint16(d[2:]),
		emptyBytes:       binary.BigEndian.Uint16(d[4:]),
		nextPageID:       disk.PageID(binary.BigEndian.Uint64(d[6:])),
	}
}

func (sp slottedPage) setHeader(h pageHeader) {
	d := sp.data
	binary.BigEndian.PutUint16(d, h.freeSpacePointer)
	binary.BigEndian.PutUint16(d[2:], h.slotArrSize)
	binary.BigEndian.PutUint16(d[4:], h.emptyBytes)
	binary.BigEndian.PutUint64(d[6:], uint64(h.nextPageID))
}

func initPage(data []byte) slottedPage {
	sp := slottedPage{data: data}
	sp.setHeader(pageHeader{freeSpacePointer: uint16(len(data))})
	return sp
}

func (sp slottedPage) nextPageID() disk.PageID     { return sp.header().nextPageID }
func (sp slottedPage) setNextPageID(id disk.PageID) {
	h := sp.header()
	h.nextPageID = id
	sp.setHeader(h)
}

func (sp slottedPage) slotCount() int { return int(sp.header().slotArrSize) }

func (sp slottedPage) slotArr() []slotEntry {
	h := sp.header()
	buf := sp.data[headerSize:]
	arr := make([]slotEntry, h.slotArrSize)
	for i := range arr {
		raw := binary.BigEndian.Uint16(buf[i*slotEntrySize:])
		arr[i] = slotEntry{offset: raw &^ 0x8000, deleted: raw&0x8000 != 0}
	}
	return arr
}

func (sp slottedPage) setSlotArr(arr []slotEntry) {
	buf := sp.data[headerSize:]
	for i, e := range arr {
		raw := e.offset
		if e.deleted {
			raw |= 0x8000
		}
		binary.BigEndian.PutUint16(buf[i*slotEntrySize:], raw)
	}
}

// Get returns the payload at idx, or nil if the slot is empty or deleted.
func (sp slottedPage) Get(idx int) []byte {
	arr := sp.slotArr()
	if idx >= len(arr) || arr[idx].deleted || arr[idx].offset == 0 {
		return nil
	}
	e := arr[idx]
	size, n := binary.Uvarint(sp.data[e.offset:])
	return sp.data[int(e.offset)+n : int(e.offset)+n+int(size)]
}

func (sp slottedPage) freeSpace() int {
	h := sp.header()
	start := headerSize + int(h.slotArrSize)*slotEntrySize
	return int(h.freeSpacePointer) - start
}

// InsertAt inserts data as a new slot at idx, shifting later slots right,
// vacuuming once and retrying if the first attempt fails for lack of
// contiguous space.
func (sp slottedPage) InsertAt(idx int, data []byte) error {
	if err := sp.insertAt(idx, data); err == ErrNotEnoughSpace {
		sp.vacuum()
		return sp.insertAt(idx, data)
	} else {
		return err
	}
}

// Append inserts data as a new slot at the end and returns its index.
func (sp slottedPage) Append(data []byte) (int, error) {
	idx := sp.slotCount()
	if err := sp.InsertAt(idx, data); err != nil {
		return 0, err
	}
	return idx, nil
}

func (sp slottedPage) insertAt(idx int, data []byte) error {
	h := sp.header()

	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(data)))
	need := uint16(len(data) + n)
	if h.freeSpacePointer < need {
		return ErrNotEnoughSpace
	}
	newFSP := h.freeSpacePointer - need
	if newFSP <= uint16(headerSize)+(h.slotArrSize+1)*slotEntrySize {
		return ErrNotEnoughSpace
	}
	h.freeSpacePointer = newFSP

	copy(sp.data[h.freeSpacePointer:], tmp[:n])
	copy(sp.data[int(h.freeSpacePointer)+n:], data)

	arr := sp.slotArr()
	if idx >= len(arr) {
		for len(arr) < idx {
			arr = append(arr, slotEntry{deleted: true})
		}
		arr = append(arr, slotEntry{offset: h.freeSpacePointer})
	} else {
		arr = append(arr, slotEntry{})
		copy(arr[idx+1:], arr[idx:])
		arr[idx] = slotEntry{offset: h.freeSpacePointer}
	}
	h.slotArrSize = uint16(len(arr))
	sp.setSlotArr(arr)
	sp.setHeader(h)
	return nil
}

// SetAt overwrites the payload at idx in place if it fits in the existing
// slot's reserved space, reporting false if it would need
// to grow — the caller should then delete and re-insert instead.
func (sp slottedPage) SetAt(idx int, data []byte) (fits bool) {
	arr := sp.slotArr()
	if idx >= len(arr) || arr[idx].deleted {
		return false
	}
	oldSize, n := binary.Uvarint(sp.data[arr[idx].offset:])
	if int(oldSize) < len(data) {
		return false
	}
	newN := binary.PutUvarint(sp.data[arr[idx].offset:], uint64(len(data)))
	copy(sp.data[int(arr[idx].offset)+newN:], data)
	if newN < n {
		// varint shrank; zero the gap so a later Get can't misread it.
		for i := int(arr[idx].offset) + newN + len(data); i < int(arr[idx].offset)+n+int(oldSize); i++ {
			sp.data[i] = 0
		}
	}
	return true
}

// DeleteAt marks the slot at idx deleted and reclaims its bytes as
// fragmentation, to be reclaimed on the next vacuum.
func (sp slottedPage) DeleteAt(idx int) error {
	arr := sp.slotArr()
	if idx >= len(arr) || arr[idx].deleted {
		return errors.New("heap: slot not found")
	}
	size, n := binary.Uvarint(sp.data[arr[idx].offset:])
	arr[idx].deleted = true

	h := sp.header()
	h.emptyBytes += uint16(int(size) + n)
	sp.setSlotArr(arr)
	sp.setHeader(h)
	return nil
}

// vacuum compacts payload storage, reclaiming fragmentation left by deletes
// and in-place shrinks. Slot offsets are rewritten; slot indexes are not.
func (sp slottedPage) vacuum() {
	h := sp.header()
	if h.emptyBytes == 0 {
		return
	}

	arr := sp.slotArr()
	order := make([]int, 0, len(arr))
	for i, e := range arr {
		if !e.deleted && e.offset != 0 {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(i, j int) bool { return arr[order[i]].offset > arr[order[j]].offset })

	newFSP := len(sp.data)
	for _, i := range order {
		e := arr[i]
		size, n := binary.Uvarint(sp.data[e.offset:])
		total := int(size) + n
		newFSP -= total
		copy(sp.data[newFSP:], sp.data[e.offset:int(e.offset)+total])
		arr[i].offset = uint16(newFSP)
	}

	h.freeSpacePointer = uint16(newFSP)
	h.emptyBytes = 0
	sp.setSlotArr(arr)
	sp.setHeader(h)
}
