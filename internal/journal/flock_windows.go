//go:build windows

package journal

import "os"

// File locking is a no-op on Windows; the in-process mutex is enough for a
// single-user tool.
func lockFile(_ *os.File) error   { return nil }
func unlockFile(_ *os.File) error { return nil }
