// File: internal/security/wipe.go
package security

import "crypto/rand"

// SecureClearBytes overwrites a byte slice so its previous contents are
// unrecoverable: zero, all-ones, random, zero. The final pass leaves the
// slice zeroed for callers that keep using it.
func SecureClearBytes(data []byte) {
	if len(data) == 0 {
		return
	}

	for i := range data {
		data[i] = 0x00
	}
	for i := range data {
		data[i] = 0xFF
	}
	// A failed rand.Read leaves the 0xFF pass in place; the zero pass
	// below still runs.
	_, _ = rand.Read(data)
	for i := range data {
		data[i] = 0x00
	}
}
