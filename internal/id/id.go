// Package id mints ULID strings for trade and run identifiers.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	if err := binary.Read(cryptorand.Reader, binary.LittleEndian, &seed); err != nil || seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic entropy keeps IDs minted within the same millisecond
	// strictly increasing, so a journal keyed by ID reads back in the
	// order the trades happened.
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New mints a fresh ULID string. IDs sort lexicographically by
// generation time.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		// Only reachable if the monotonic counter overflows within a
		// single millisecond.
		panic(err)
	}
	return id.String()
}
