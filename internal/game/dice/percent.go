package dice

// D100 rolls a percentile die: a uniform int in [1, 100].
//
// Precondition: src must be non-nil.
func D100(src Source) int {
	return src.Intn(100) + 1
}

// Check performs a percentage success check: one d100 roll, success when the
// roll is at or under chance. Chance 0 never succeeds; chance 100 always does.
//
// Precondition: 0 <= chance <= 100; src must be non-nil.
// Panics with "dice: Check chance out of range" otherwise — callers clamp
// before drawing, so an out-of-range chance is a programming error.
func Check(chance float64, src Source) bool {
	if chance < 0 || chance > 100 {
		panic("dice: Check chance out of range")
	}
	return float64(D100(src)) <= chance
}

// Clamp bounds v to [lo, hi].
//
// Precondition: lo <= hi.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
