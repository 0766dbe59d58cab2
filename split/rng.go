package split

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// SeedMode selects how randomness is distributed across the files of a
// batch. This is an explicit configuration decision: sharing one seeded
// generator makes the whole batch deterministic as a unit, while per-file
// derivation makes every file reproducible on its own regardless of
// directory iteration order.
type SeedMode string

const (
	// SeedModeShared draws every file's sample from one generator seeded
	// once with the master seed.
	SeedModeShared SeedMode = "shared"

	// SeedModePerFile derives an independent generator per file from
	// masterSeed XOR fnv1a64(fileName).
	SeedModePerFile SeedMode = "per-file"
)

// Valid reports whether the mode is one of the known values.
func (m SeedMode) Valid() bool {
	return m == SeedModeShared || m == SeedModePerFile
}

// SeedBank hands out pseudorandom generators for file sampling.
//
// With no master seed, generators are created from wall-clock entropy and
// reproducibility is explicitly not guaranteed.
//
// Thread-safety: NOT thread-safe; the generator batch is sequential.
type SeedBank struct {
	seed   int64
	seeded bool
	mode   SeedMode
	shared *rand.Rand
}

// NewSeedBank creates a SeedBank. seeded=false ignores seed and uses
// non-deterministic entropy.
func NewSeedBank(seed int64, seeded bool, mode SeedMode) *SeedBank {
	return &SeedBank{seed: seed, seeded: seeded, mode: mode}
}

// ForFile returns the generator to use when sampling the named file.
// In shared mode the same instance is returned for every file; in
// per-file mode each name gets a deterministically derived fresh one.
func (b *SeedBank) ForFile(name string) *rand.Rand {
	if !b.seeded {
		return rand.New(rand.NewSource(time.Now().UnixNano() ^ fnv1a64(name)))
	}
	if b.mode == SeedModeShared {
		if b.shared == nil {
			b.shared = rand.New(rand.NewSource(b.seed))
		}
		return b.shared
	}
	return rand.New(rand.NewSource(b.seed ^ fnv1a64(name)))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
