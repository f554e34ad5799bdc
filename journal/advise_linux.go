//go:build linux

package journal

import "golang.org/x/sys/unix"

// adviseHugePage hints the kernel to back this mapping with transparent
// huge pages where available, matching the original journal_writer.h's
// MADV_HUGEPAGE call. Failure is non-fatal: it is a performance hint, not
// a correctness requirement.
func adviseHugePage(mm []byte) {
	if len(mm) == 0 {
		return
	}
	_ = unix.Madvise(mm, unix.MADV_HUGEPAGE)
}
