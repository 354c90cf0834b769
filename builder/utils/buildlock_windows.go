//go:build windows

package utils

import (
	"os"
	"syscall"
	"unsafe"
)

// Windows has no flock(2); LockFileEx over the whole file is the closest
// equivalent with a fail-immediately mode.
var (
	kernel32     = syscall.NewLazyDLL("kernel32.dll")
	procLockEx   = kernel32.NewProc("LockFileEx")
	procUnlockEx = kernel32.NewProc("UnlockFile")
)

const (
	lockfileExclusive       = 0x2
	lockfileFailImmediately = 0x1
	wholeFile               = 0xFFFFFFFF
)

func lockExclusive(f *os.File) error {
	var ov syscall.Overlapped
	ret, _, err := procLockEx.Call(
		f.Fd(),
		lockfileExclusive|lockfileFailImmediately,
		0,
		wholeFile, wholeFile,
		uintptr(unsafe.Pointer(&ov)),
	)
	if ret == 0 {
		return err
	}
	return nil
}

func unlockFile(f *os.File) error {
	ret, _, err := procUnlockEx.Call(f.Fd(), 0, 0, wholeFile, wholeFile)
	if ret == 0 {
		return err
	}
	return nil
}
