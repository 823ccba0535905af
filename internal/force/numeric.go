package force

import (
	"math"
	"math/rand/v2"
)

// Epsilon is the radius within which coincident points are perturbed.
const Epsilon = 0.1

// dblMin is the smallest positive normal float64 (C's DBL_MIN).
const dblMin = 0x1p-1022

var (
	nearZeroLimit = dblMin * 1e190
	nearInfLimit  = math.MaxFloat64 * 1e-190
)

// NearMachinePrecision reports whether a distance is too small (or too large)
// for 1/d to be trusted. Callers skip the interaction when it holds.
func NearMachinePrecision(d float64) bool {
	return !(d >= nearZeroLimit && d <= nearInfLimit)
}

// Perturb returns a copy of p moved to a random point strictly within Epsilon
// of p and distinct from it. The direction is uniform on the circle (2D) or
// sphere (3D). p itself is never modified.
func Perturb(p Vec, dims int, rng *rand.Rand) Vec {
	for {
		var dir Vec
		if dims == 2 {
			theta := 2 * math.Pi * rng.Float64()
			dir = Vec{math.Cos(theta), math.Sin(theta), 0}
		} else {
			dir = Vec{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
			n := dir.Norm()
			if n == 0 {
				continue
			}
			dir = dir.Scale(1 / n)
		}
		q := p.Add(dir.Scale(Epsilon * rng.Float64()))
		if d := q.Sub(p).Norm(); q != p && d > 0 && d < Epsilon {
			return q
		}
	}
}
