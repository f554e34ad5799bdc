package journal

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// FrameHandler receives a decoded FrameHeader and its raw (still-encoded)
// payload bytes; callers decode with the matching decodeXFrame-style
// accessor for the header's MsgType.
type FrameHandler func(FrameHeader, []byte)

// Reader is the external-tailer side of a journal page: mmap the same
// file read-only, keep a local cursor, and poll the shared write-cursor
// with acquire ordering before trusting any byte at or past it. No locks,
// no system calls on the hot path, per spec.md §4.B.
type Reader struct {
	file        *os.File
	mm          mmap.MMap
	header      *PageHeader
	localCursor uint32
}

// OpenReader opens path read-only and maps it. The reader starts at
// cursor 0; callers that only want new data should first call
// r.Header().WriteCursor() and seek with SeekTo.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{file: f, mm: mm, header: newPageHeader(mm)}, nil
}

// Header exposes the read-only page header view.
func (r *Reader) Header() *PageHeader {
	return r.header
}

// SeekTo repositions the local cursor (e.g. to the header's current
// WriteCursor, to start tailing only new frames).
func (r *Reader) SeekTo(offset uint32) {
	r.localCursor = offset
}

// Poll drains every complete frame between the reader's local cursor and
// the current write-cursor, invoking handler for each. It bound-checks
// every length field against the observed write-cursor before trusting it
// (spec.md §4.B's "corrupt length field" failure mode: the reader stops
// rather than reading past the known-valid region). It returns the number
// of frames delivered.
func (r *Reader) Poll(handler FrameHandler) int {
	writeCursor := r.header.WriteCursor()
	delivered := 0

	for r.localCursor < writeCursor {
		base := headerSize + int(r.localCursor)
		if base+frameHeaderSize > len(r.mm) {
			break
		}
		hdr := decodeFrameHeader(r.mm[base : base+frameHeaderSize])

		frameEnd := r.localCursor + frameHeaderSize + hdr.Length
		if frameEnd > writeCursor {
			// Torn or corrupt length field: stop rather than read past
			// the known-durable region.
			break
		}

		payloadStart := base + frameHeaderSize
		payload := r.mm[payloadStart : payloadStart+int(hdr.Length)]
		handler(hdr, payload)

		r.localCursor = frameEnd
		delivered++
	}
	return delivered
}

// Close unmaps the file and closes the descriptor.
func (r *Reader) Close() error {
	if err := r.mm.Unmap(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
