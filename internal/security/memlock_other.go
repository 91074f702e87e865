// File: internal/security/memlock_other.go
//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package security

import "errors"

var errMemlockUnsupported = errors.New("memory locking is not supported on this platform")

func lockMemory(b []byte) error {
	return errMemlockUnsupported
}

func unlockMemory(b []byte) error {
	return nil
}
