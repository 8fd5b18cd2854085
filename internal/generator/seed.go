package generator

import "golang.org/x/text/unicode/norm"

const (
	// Modulus is the Park-Miller prime 2^31-1.
	Modulus int64 = 2147483647
	// Multiplier is the Park-Miller minimal standard multiplier.
	Multiplier int64 = 16807
	// SlotStride offsets per-slot sub-seeds.
	SlotStride int64 = 7919
	// RerollStride offsets reroll seeds by the reroll count.
	RerollStride int64 = 104729
)

// StableHash is the order-sensitive 31-multiplier string hash, wrapped to
// int32 on overflow.
func StableHash(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = h*31 + int32(s[i])
	}
	return h
}

// Seed derives the generation seed of a user in a period.
func Seed(userID, periodID string) int64 {
	key := norm.NFC.String(userID) + "|" + periodID
	return normalize(int64(StableHash(key)))
}

// SubSeed derives the seed of slot index from a base seed.
func SubSeed(seed int64, index int) int64 {
	return normalize(seed + int64(index)*SlotStride)
}

// RerollSeed derives the seed used to replace slot after rerollCount earlier
// rerolls in the same period.
func RerollSeed(seed int64, rerollCount, slot int) int64 {
	return normalize(seed + int64(rerollCount+1)*RerollStride + int64(slot)*SlotStride)
}

// normalize maps any integer onto the generator's valid state range [1, M-1].
func normalize(v int64) int64 {
	if v < 0 {
		v = -v
	}
	v %= Modulus
	if v == 0 {
		return 1
	}
	return v
}

// Rand is a Park-Miller linear congruential generator.
// It is not safe for concurrent use; each derivation creates its own.
type Rand struct {
	state int64
}

// NewRand creates a generator seeded with seed.
func NewRand(seed int64) *Rand {
	return &Rand{state: normalize(seed)}
}

// Float64 advances the generator and returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state = r.state * Multiplier % Modulus
	return float64(r.state-1) / float64(Modulus-1)
}

// Intn returns a value in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	return int(r.Float64() * float64(n))
}

// Shuffle permutes s in place with a Fisher-Yates walk driven by r.
func Shuffle[T any](r *Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
