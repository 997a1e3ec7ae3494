package index

import (
	"encoding/binary"

	"coredb/disk"
	"coredb/transaction"
)

// decodedNode is a page's B+ tree node content unpacked into plain Go
// values. Every mutation happens on a decodedNode in memory; encode then
// rewrites the owning page's bytes in one shot rather than threading a
// slot-array insert/delete through each edit, trading the teacher's
// incremental slotted-page surgery for a simpler whole-node
// decode/mutate/encode cycle around the same fetch/unpin discipline.
type decodedNode struct {
	leaf   bool
	parent disk.PageID

	keys []string

	// leaf only: values[i] is the row stored for keys[i]; next is the
	// sibling leaf for range scans.
	values []transaction.RID
	next   disk.PageID

	// internal only: children has len(keys)+1 entries, children[0] being
	// the leftmost (keys[0] is the separator between children[0] and
	// children[1]).
	children []disk.PageID
}

const (
	kindLeaf     byte = 1
	kindInternal byte = 0
)

// header layout: kind(1) | count(2) | parent(8) | sibling-or-firstChild(8)
const headerSize = 1 + 2 + 8 + 8

func decodeNode(data []byte) decodedNode {
	kind := data[0]
	count := int(binary.BigEndian.Uint16(data[1:]))
	parent := disk.PageID(binary.BigEndian.Uint64(data[3:]))
	sibling := disk.PageID(binary.BigEndian.Uint64(data[11:]))

	n := decodedNode{leaf: kind == kindLeaf, parent: parent}
	off := headerSize

	if n.leaf {
		n.next = sibling
		n.keys = make([]string, count)
		n.values = make([]transaction.RID, count)
		for i := 0; i < count; i++ {
			klen := int(binary.BigEndian.Uint16(data[off:]))
			off += 2
			n.keys[i] = string(data[off : off+klen])
			off += klen
			n.values[i] = transaction.RID{
				PageID:  binary.BigEndian.Uint64(data[off:]),
				SlotIdx: binary.BigEndian.Uint32(data[off+8:]),
			}
			off += 12
		}
		return n
	}

	n.keys = make([]string, count)
	n.children = make([]disk.PageID, count+1)
	n.children[0] = sibling
	for i := 0; i < count; i++ {
		klen := int(binary.BigEndian.Uint16(data[off:]))
		off += 2
		n.keys[i] = string(data[off : off+klen])
		off += klen
		n.children[i+1] = disk.PageID(binary.BigEndian.Uint64(data[off:]))
		off += 8
	}
	return n
}

// encodeNode writes n's content into data, a buffer-pool page's backing
// array. Returns false if n no longer fits in one page, which the caller
// must treat as a fault: this tree enforces fanout limits on key *count*,
// but a composite VarChar key can still blow a page's fixed size, since
// catalog.EncodeKey puts no bound on a key's length.
func encodeNode(data []byte, n decodedNode) bool {
	for i := range data {
		data[i] = 0
	}

	if n.leaf {
		data[0] = kindLeaf
		binary.BigEndian.PutUint64(data[11:], uint64(n.next))
	} else {
		data[0] = kindInternal
		binary.BigEndian.PutUint64(data[11:], uint64(n.children[0]))
	}
	binary.BigEndian.PutUint16(data[1:], uint16(len(n.keys)))
	binary.BigEndian.PutUint64(data[3:], uint64(n.parent))

	off := headerSize
	for i, key := range n.keys {
		need := 2 + len(key)
		if n.leaf {
			need += 12
		} else {
			need += 8
		}
		if off+need > len(data) {
			return false
		}
		binary.BigEndian.PutUint16(data[off:], uint16(len(key)))
		off += 2
		copy(data[off:], key)
		off += len(key)
		if n.leaf {
			binary.BigEndian.PutUint64(data[off:], n.values[i].PageID)
			binary.BigEndian.PutUint32(data[off+8:], n.values[i].SlotIdx)
			off += 12
		} else {
			binary.BigEndian.PutUint64(data[off:], uint64(n.children[i+1]))
			off += 8
		}
	}
	return true
}
