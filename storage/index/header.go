package index

import (
	"encoding/binary"
	"sync"

	"coredb/buffer"
	"coredb/disk"

	"github.com/pkg/errors"
)

// headerMu serializes access to disk.HeaderPageID across every tree sharing
// a pool, the way a single buffer pool is shared by every index and table
// heap an Engine opens. Page-level latching would be the finer-grained
// alternative; a package-level mutex matches the single-mutex-per-shared-
// structure style already used by BufferPoolManager and TxnManager.
var headerMu sync.Mutex

// loadRootPageID looks up name's root page id in the shared header page,
// page id 0, which maps every open index's name to its current root.
func loadRootPageID(pool buffer.Pool, name string) (disk.PageID, bool, error) {
	headerMu.Lock()
	defer headerMu.Unlock()

	p, err := pool.FetchPage(disk.HeaderPageID)
	if err != nil {
		return 0, false, errors.Wrap(err, "index: fetching header page")
	}
	defer pool.Unpin(disk.HeaderPageID, false)

	id, ok := findRoot(p.Data(), name)
	return id, ok, nil
}

// storeRootPageID upserts name's root page id into the header page.
func storeRootPageID(pool buffer.Pool, name string, root disk.PageID) error {
	headerMu.Lock()
	defer headerMu.Unlock()

	p, err := pool.FetchPage(disk.HeaderPageID)
	if err != nil {
		return errors.Wrap(err, "index: fetching header page")
	}

	data := p.Data()
	entries := decodeHeaderEntries(data)
	replaced := false
	for i := range entries {
		if entries[i].name == name {
			entries[i].root = root
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, headerEntry{name: name, root: root})
	}

	if !encodeHeaderEntries(data, entries) {
		pool.Unpin(disk.HeaderPageID, false)
		return errors.New("index: header page exhausted, too many indexes for one page")
	}
	pool.Unpin(disk.HeaderPageID, true)
	return nil
}

type headerEntry struct {
	name string
	root disk.PageID
}

// header page layout: count(2) | repeated [nameLen(2) name root(8)]
func decodeHeaderEntries(data []byte) []headerEntry {
	count := int(binary.BigEndian.Uint16(data))
	entries := make([]headerEntry, count)
	off := 2
	for i := 0; i < count; i++ {
		nlen := int(binary.BigEndian.Uint16(data[off:]))
		off += 2
		name := string(data[off : off+nlen])
		off += nlen
		root := disk.PageID(binary.BigEndian.Uint64(data[off:]))
		off += 8
		entries[i] = headerEntry{name: name, root: root}
	}
	return entries
}

func encodeHeaderEntries(data []byte, entries []headerEntry) bool {
	for i := range data {
		data[i] = 0
	}
	binary.BigEndian.PutUint16(data, uint16(len(entries)))
	off := 2
	for _, e := range entries {
		need := 2 + len(e.name) + 8
		if off+need > len(data) {
			return false
		}
		binary.BigEndian.PutUint16(data[off:], uint16(len(e.name)))
		off += 2
		copy(data[off:], e.name)
		off += len(e.name)
		binary.BigEndian.PutUint64(data[off:], uint64(e.root))
		off += 8
	}
	return true
}

func findRoot(data []byte, name string) (disk.PageID, bool) {
	for _, e := range decodeHeaderEntries(data) {
		if e.name == name {
			return e.root, true
		}
	}
	return 0, false
}
