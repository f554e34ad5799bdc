// Package journal implements the memory-mapped, single-writer/many-reader
// append-only event log described in spec.md §4.B: one fixed-size mmap
// file, a cache-line-aligned PageHeader, and framed binary records that
// external processes can tail via mmap + atomic-counter polling, with no
// IPC and no locks.
package journal

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// pageVersion is the PageHeader schema version. Bump it when FrameHeader or
// any payload schema changes in a way that breaks an existing reader.
const pageVersion uint16 = 1

// Byte offsets within the page, matching spec.md §4.B's field order. The
// header occupies one full cache line (64 bytes) so the frame arena that
// follows starts cache-line aligned too.
const (
	offCapacity    = 0
	offVersion     = 4
	offWriteCursor = 8
	offReadCursor  = 12
	headerSize     = 64
)

// DefaultPageSize is the journal's default fixed file size, 128 MiB, per
// spec.md §4.B.
const DefaultPageSize = 128 * 1024 * 1024

// PageHeader is a thin view over the first headerSize bytes of the mmap'd
// page. It is never copied out of the mapping: every accessor reads or
// writes straight through to the shared memory, the way the original C++
// journal_writer.h places the header in-page rather than in a Go struct.
type PageHeader struct {
	mm mmap.MMap
}

func newPageHeader(mm mmap.MMap) *PageHeader {
	return &PageHeader{mm: mm}
}

func (h *PageHeader) u32ptr(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.mm[off]))
}

// Capacity is the frame-arena size in bytes (page size minus header).
func (h *PageHeader) Capacity() uint32 {
	return binary.LittleEndian.Uint32(h.mm[offCapacity:])
}

func (h *PageHeader) setCapacity(v uint32) {
	binary.LittleEndian.PutUint32(h.mm[offCapacity:], v)
}

// Version is the page schema version.
func (h *PageHeader) Version() uint16 {
	return binary.LittleEndian.Uint16(h.mm[offVersion:])
}

func (h *PageHeader) setVersion(v uint16) {
	binary.LittleEndian.PutUint16(h.mm[offVersion:], v)
}

// WriteCursor is the atomic, release/acquire-ordered offset (relative to
// the start of the frame arena) up to which frames are valid. Writers
// advance it with release ordering after the frame bytes are durable in
// the mapping; readers load it with acquire ordering before trusting any
// byte at or past it.
func (h *PageHeader) WriteCursor() uint32 {
	return atomic.LoadUint32(h.u32ptr(offWriteCursor))
}

func (h *PageHeader) storeWriteCursor(v uint32) {
	atomic.StoreUint32(h.u32ptr(offWriteCursor), v)
}

// ReadCursor is an advisory, writer-visible bookmark of the slowest known
// reader; it is not required for correctness (readers keep their own local
// cursor) but lets a writer's telemetry report reader lag.
func (h *PageHeader) ReadCursor() uint32 {
	return atomic.LoadUint32(h.u32ptr(offReadCursor))
}

// AdvanceReadCursor lets a cooperating reader publish its progress.
func (h *PageHeader) AdvanceReadCursor(v uint32) {
	atomic.StoreUint32(h.u32ptr(offReadCursor), v)
}
