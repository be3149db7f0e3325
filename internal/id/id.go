package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Fallback is returned when the system random source fails.
const Fallback = "edgeresize-unidentified"

// New returns a random 128-bit hex ID, used to correlate log lines of one request when
// the caller supplied none.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return Fallback
	}
	return hex.EncodeToString(b[:])
}
