// File: internal/security/secure_buffer.go
package security

import (
	"crypto/rand"
	"runtime"
	"sync"
)

// SecureBuffer owns a fixed-size byte buffer holding key material.
// The buffer is zero-filled on allocation, best-effort locked into RAM,
// and overwritten before release. No live reference to the underlying
// bytes ever leaves the type; callers only get copies.
type SecureBuffer struct {
	mu     sync.Mutex
	data   []byte
	pad    []byte // keeps the compiler from eliding the wipe passes
	locked bool
}

// NewSecureBuffer allocates a zeroed buffer of the given size.
// A failed memory lock is not fatal; callers can probe MemoryLockAvailable
// to shorten lifetimes when pages may hit swap.
func NewSecureBuffer(size int) *SecureBuffer {
	data := make([]byte, size)
	pad := make([]byte, size)
	_, _ = rand.Read(pad)

	b := &SecureBuffer{data: data, pad: pad}
	if err := lockMemory(data); err == nil {
		b.locked = true
	}

	runtime.SetFinalizer(b, (*SecureBuffer).Destroy)
	return b
}

// NewSecureBufferFrom copies value into a fresh secure buffer.
// The caller keeps ownership of value and should wipe it.
func NewSecureBufferFrom(value []byte) *SecureBuffer {
	b := NewSecureBuffer(len(value))
	b.mu.Lock()
	copy(b.data, value)
	b.mu.Unlock()
	return b
}

// Len returns the buffer size, zero after Destroy.
func (b *SecureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Bytes returns a copy of the contents. Nil after Destroy.
func (b *SecureBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// WithBytes runs fn against the live contents without copying.
// The slice must not escape fn.
func (b *SecureBuffer) WithBytes(fn func(data []byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return fn(nil)
	}
	return fn(b.data)
}

// Destroy wipes and releases the buffer. Safe to call more than once.
func (b *SecureBuffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data != nil {
		SecureClearBytes(b.data)
		if b.locked {
			_ = unlockMemory(b.data)
			b.locked = false
		}
		b.data = nil
	}
	if b.pad != nil {
		SecureClearBytes(b.pad)
		b.pad = nil
	}
	runtime.SetFinalizer(b, nil)
}

var (
	memlockProbeOnce sync.Once
	memlockAvailable bool
)

// MemoryLockAvailable reports whether mlock works in this process.
// Probed once with a single page and cached.
func MemoryLockAvailable() bool {
	memlockProbeOnce.Do(func() {
		probe := make([]byte, 4096)
		if err := lockMemory(probe); err == nil {
			memlockAvailable = true
			_ = unlockMemory(probe)
		}
	})
	return memlockAvailable
}
