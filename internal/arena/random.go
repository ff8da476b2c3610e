package arena

import "math"

// SeededRandom is a small deterministic generator shared by every peer of a
// match. It is the fallback path for layout reproduction; the broadcast map
// config stays the source of truth for non-host peers.
type SeededRandom struct {
	seed float64
}

// NewSeededRandom creates a generator positioned at seed.
func NewSeededRandom(seed int64) *SeededRandom {
	return &SeededRandom{seed: float64(seed)}
}

// Next returns the next value in [0,1).
func (r *SeededRandom) Next() float64 {
	x := math.Sin(r.seed) * 10000
	r.seed++
	v := x - math.Floor(x)
	if v >= 1 {
		// floor rounding on huge magnitudes
		return 0
	}
	return v
}

// Range returns a value in [min,max).
func (r *SeededRandom) Range(min, max float64) float64 {
	return min + r.Next()*(max-min)
}

// Intn returns an int in [0,n). n <= 0 yields 0.
func (r *SeededRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(math.Floor(r.Next() * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}
