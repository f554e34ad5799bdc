package journal

import (
	"errors"
	"os"
	"time"

	"github.com/edsrzf/mmap-go"
)

// ErrPageFull is returned when a write would overflow the fixed-size
// frame arena. Rotation is the caller's choice, per spec.md §4.B.
var ErrPageFull = errors.New("journal: page full")

// Writer owns the single-writer side of a journal page: it opens (or
// creates) a fixed-size file, mmaps it MAP_SHARED, and appends frames with
// a release-ordered write-cursor advance so concurrent readers observe a
// causally consistent stream without any IPC.
type Writer struct {
	file   *os.File
	mm     mmap.MMap
	header *PageHeader
}

// OpenWriter creates (or truncates to pageSize and reopens) the journal
// file at path and returns a ready-to-write Writer. A pageSize of 0 uses
// DefaultPageSize.
func OpenWriter(path string, pageSize int64) (*Writer, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	if err := f.Truncate(pageSize); err != nil {
		f.Close()
		return nil, err
	}

	mm, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	adviseHugePage(mm)

	h := newPageHeader(mm)
	if h.Version() == 0 {
		h.setCapacity(uint32(pageSize) - headerSize)
		h.setVersion(pageVersion)
		h.storeWriteCursor(0)
	}

	return &Writer{file: f, mm: mm, header: h}, nil
}

// Header exposes the page header for telemetry (write-cursor position,
// capacity) without handing out the raw mapping.
func (w *Writer) Header() *PageHeader {
	return w.header
}

func (w *Writer) writeFrame(msgType MsgType, genTimeNs, triggerTimeNs int64, source, dest uint32, payload []byte) error {
	curr := w.header.WriteCursor()
	required := uint32(frameHeaderSize + len(payload))

	if curr+required > w.header.Capacity() {
		return ErrPageFull
	}

	base := headerSize + int(curr)
	hdr := FrameHeader{
		Length:        uint32(len(payload)),
		MsgType:       msgType,
		GenTimeNs:     genTimeNs,
		TriggerTimeNs: triggerTimeNs,
		Source:        source,
		Dest:          dest,
	}
	hdr.encode(w.mm[base : base+frameHeaderSize])
	copy(w.mm[base+frameHeaderSize:base+int(required)], payload)

	// Release-ordered: readers never see the advanced cursor before the
	// frame bytes above are in the mapping.
	w.header.storeWriteCursor(curr + required)
	return nil
}

// WriteTicker appends a TickerFrame.
func (w *Writer) WriteTicker(f TickerFrame, source, dest uint32) error {
	buf := make([]byte, tickerFrameSize)
	f.encode(buf)
	return w.writeFrame(MsgTypeTicker, time.Now().UnixNano(), 0, source, dest, buf)
}

// WriteTrade appends a TradeFrame.
func (w *Writer) WriteTrade(f TradeFrame, source, dest uint32) error {
	buf := make([]byte, tradeFrameSize)
	f.encode(buf)
	return w.writeFrame(MsgTypeTrade, time.Now().UnixNano(), 0, source, dest, buf)
}

// WriteKline appends a KlineFrame.
func (w *Writer) WriteKline(f KlineFrame, source, dest uint32) error {
	buf := make([]byte, klineFrameSize)
	f.encode(buf)
	return w.writeFrame(MsgTypeKline, time.Now().UnixNano(), 0, source, dest, buf)
}

// WriteDepth appends a DepthFrame.
func (w *Writer) WriteDepth(f DepthFrame, source, dest uint32) error {
	buf := make([]byte, depthFrameSize)
	f.encode(buf)
	return w.writeFrame(MsgTypeDepth, time.Now().UnixNano(), 0, source, dest, buf)
}

// WriteMarkPrice appends a MarkPriceFrame.
func (w *Writer) WriteMarkPrice(f MarkPriceFrame, source, dest uint32) error {
	buf := make([]byte, markPriceFrameSize)
	f.encode(buf)
	return w.writeFrame(MsgTypeMarkPrice, time.Now().UnixNano(), 0, source, dest, buf)
}

// WriteOrderReport appends an OrderReportFrame.
func (w *Writer) WriteOrderReport(f OrderReportFrame, source, dest uint32) error {
	buf := make([]byte, orderReportFrameSize)
	f.encode(buf)
	return w.writeFrame(MsgTypeOrderReport, time.Now().UnixNano(), 0, source, dest, buf)
}

// WriteAdapterStatus appends an AdapterStatusFrame.
func (w *Writer) WriteAdapterStatus(f AdapterStatusFrame, source, dest uint32) error {
	buf := make([]byte, adapterStatusFrameSize)
	f.encode(buf)
	return w.writeFrame(MsgTypeAdapterStatus, time.Now().UnixNano(), 0, source, dest, buf)
}

// Reset rewinds the write cursor to zero. Intended for tests and for the
// explicit operator-driven "truncate and restart" path; it is never called
// implicitly on page-full (spec.md §4.B leaves rotation to the caller).
func (w *Writer) Reset() {
	w.header.storeWriteCursor(0)
}

// Close flushes the mapping to durable storage (msync) and unmaps it, per
// spec.md §4.B's "msync on close flushes to durable storage" invariant.
func (w *Writer) Close() error {
	if err := w.mm.Flush(); err != nil {
		w.mm.Unmap()
		w.file.Close()
		return err
	}
	if err := w.mm.Unmap(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
