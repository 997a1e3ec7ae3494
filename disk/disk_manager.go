// Package disk implements the block-device abstraction the rest of the
// engine treats as an external collaborator: fixed-size page read/write and
// a monotonically increasing page-id allocator.
package disk

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// DiskManager is the persistent block-device contract assumed by the buffer
// pool and, indirectly, by the B+ tree.
type DiskManager interface {
	ReadPage(id PageID, buf []byte) error
	WritePage(id PageID, buf []byte) error

	// AllocatePage reserves a fresh, monotonically increasing page id. It
	// does not write any data.
	AllocatePage() PageID

	// DeallocatePage releases a page id for reuse bookkeeping outside this
	// package (the buffer pool's free list). The disk manager itself does
	// not reuse ids; that would require a reference count it doesn't keep.
	DeallocatePage(id PageID)

	Close() error
}

// FileManager is a DiskManager backed by a single flat file, one PageSize
// slot per page-id, grounded on the teacher's disk.Manager (single-file,
// single-mutex, os.File.WriteAt/ReadAt).
type FileManager struct {
	mu         sync.Mutex
	file       *os.File
	nextPageID PageID
}

var _ DiskManager = (*FileManager)(nil)

// NewFileManager opens (or creates) file and returns a FileManager whose
// allocator resumes after the highest page-id implied by the file's size.
func NewFileManager(file string) (*FileManager, error) {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "opening database file")
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stating database file")
	}

	next := PageID(stat.Size() / PageSize)
	if next < 1 {
		next = 1 // page 0 is reserved for the header page
	}

	return &FileManager{file: f, nextPageID: next}, nil
}

func (d *FileManager) ReadPage(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		return errors.Errorf("read buffer must be exactly %d bytes, got %d", PageSize, len(buf))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	off := int64(id) * int64(PageSize)
	n, err := d.file.ReadAt(buf, off)
	if err != nil {
		// reading past EOF (a page allocated but never written) yields a
		// zeroed page, matching a freshly NewPage-d frame's contents.
		if errors.Is(err, os.ErrClosed) {
			return errors.Wrapf(err, "reading page %d", id)
		}
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return nil
	}
	return nil
}

func (d *FileManager) WritePage(id PageID, buf []byte) error {
	if len(buf) != PageSize {
		return errors.Errorf("write buffer must be exactly %d bytes, got %d", PageSize, len(buf))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	off := int64(id) * int64(PageSize)
	if _, err := d.file.WriteAt(buf, off); err != nil {
		return errors.Wrapf(err, "writing page %d", id)
	}
	return nil
}

func (d *FileManager) AllocatePage() PageID {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextPageID
	d.nextPageID++
	return id
}

func (d *FileManager) DeallocatePage(id PageID) {
	// no-op: page-id reuse is handled by the buffer pool's free frame list,
	// not by the disk manager. Deallocating here would require tracking a
	// reference count this type does not keep.
}

func (d *FileManager) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}
