package disk

// PageSize is the fixed size of every page on disk and in a buffer frame.
const PageSize = 4096

// PageID identifies a page. PageID 0 is reserved for the header page.
type PageID uint64

// InvalidPageID marks the absence of a page reference (e.g. an internal
// node's parent pointer before it has one).
const InvalidPageID PageID = 0

// HeaderPageID is the fixed page carrying the index-name to root-page-id
// map, as required by storage/index.
const HeaderPageID PageID = 0
