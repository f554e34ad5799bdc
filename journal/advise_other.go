//go:build !linux

package journal

// adviseHugePage is a no-op on platforms without MADV_HUGEPAGE.
func adviseHugePage(mm []byte) {}
