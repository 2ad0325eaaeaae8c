// Package id is the canonical source for identifier generation.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// UUID generates a random version-4 UUID string.
func UUID() string {
	return uuid.NewString()
}

// Short generates a short random hex ID (16 characters).
// Suitable for user-facing IDs where brevity matters.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// New generates a prefixed entity ID, e.g. New("ep") -> "ep-3fa4c81b9d02e657".
// IDs are collision-free for the process lifetime and beyond (64 random bits).
func New(prefix string) string {
	return prefix + "-" + Short()
}

var seq atomic.Uint64

// Sequential generates a prefixed, time-ordered ID for high-volume records
// such as log entries: base-36 millisecond timestamp plus a process-local
// counter. Cheaper than UUID and sorts by creation time.
func Sequential(prefix string) string {
	n := seq.Add(1)
	return prefix + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + strconv.FormatUint(n, 36)
}

// Alphanumeric generates a random alphanumeric string of the given length.
// Uses uppercase letters, lowercase letters, and digits.
func Alphanumeric(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	randBytes := make([]byte, length)
	_, _ = rand.Read(randBytes)
	for i := range b {
		b[i] = charset[int(randBytes[i])%len(charset)]
	}
	return string(b)
}
