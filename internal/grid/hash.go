package grid

import "fmt"

// Hasher maps a position to a bucket hash. The store masks the result to its
// bucket count, so only the low bits need to be well mixed.
type Hasher func(WorldPos) uint64

// LinearHash is the cheap x*16 + y*3 combination. Its distribution is poor:
// whole diagonals share a bucket.
func LinearHash(p WorldPos) uint64 {
	return uint64(p.X*16 + p.Y*3)
}

// MixHash runs both coordinates through a splitmix64 finalizer.
func MixHash(p WorldPos) uint64 {
	h := uint64(p.X)*0x9e3779b97f4a7c15 + uint64(p.Y)
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}

// HasherByName resolves the config spelling of a hash policy.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", "mix":
		return MixHash, nil
	case "linear":
		return LinearHash, nil
	default:
		return nil, fmt.Errorf("unknown hash policy %q (valid: mix, linear)", name)
	}
}
