package ulid

import (
	"io"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once

	generatorMu sync.RWMutex
	generator   = DefaultGenerator
)

// DefaultEntropy returns a reader that generates ULID entropy.
// It is safe for concurrent use.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

var ulidRe = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

// isULID checks if the given string is a valid ULID.
//
//	 01AN4Z07BY      79KA1307SR9X4MV3
//	|----------|    |----------------|
//	 Timestamp          Randomness
//
// 10 characters     16 characters
// Crockford's Base32 is used (excludes I, L, O, and U).
func isULID(s string) bool {
	return ulidRe.MatchString(s)
}

// ValidID checks if the given id is a canonical ULID.
func ValidID(id string) bool {
	_, err := ulid.Parse(id)

	return err == nil && isULID(id)
}

// GenerateID generates a new block identifier.
func GenerateID() string {
	generatorMu.RLock()
	gen := generator
	generatorMu.RUnlock()
	return gen()
}

// DefaultGenerator combines the current millisecond timestamp
// with monotonic random entropy.
func DefaultGenerator() string {
	entropy := DefaultEntropy()
	now := time.Now()
	ts := ulid.Timestamp(now)
	return ulid.MustNew(ts, entropy).String()
}

func ResetGenerator() {
	generatorMu.Lock()
	generator = DefaultGenerator
	generatorMu.Unlock()
}

// MockGenerator makes GenerateID return mockValue.
func MockGenerator(mockValue string) {
	generatorMu.Lock()
	generator = func() string {
		return mockValue
	}
	generatorMu.Unlock()
}

// SequenceGenerator makes GenerateID return valid, distinct ULIDs
// derived from a fixed timestamp and a counter. Useful for
// deterministic tests that still need unique ids.
func SequenceGenerator(ts time.Time) {
	var (
		mu      sync.Mutex
		counter uint64
	)
	generatorMu.Lock()
	generator = func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		var e [10]byte
		for i := 0; i < 8; i++ {
			e[9-i] = byte(counter >> (8 * i))
		}
		return ulid.MustNew(ulid.Timestamp(ts), bytesReader(e[:])).String()
	}
	generatorMu.Unlock()
}

type bytesReader []byte

func (b bytesReader) Read(p []byte) (int, error) {
	return copy(p, b), nil
}
