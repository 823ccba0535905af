package force

import "math/rand/v2"

// repulsiveScalar is the Fruchterman-Reingold repulsive term 1/d.
func repulsiveScalar(d float64) float64 {
	if d > 0 {
		return 1 / d
	}
	return 0
}

// kernel computes pairwise repulsion. It owns the random source used to
// separate coincident points, so a kernel must not be shared between
// goroutines.
type kernel struct {
	dims int
	rng  *rand.Rand

	perturbed int // coincident pairs separated
	skipped   int // pairs dropped as negligible
}

// force returns the force u exerts on v: magnitude 1/d along the direction
// from u to v. The second result is false when the pair is negligible
// and nothing should be applied.
func (k *kernel) force(posU, posV Vec) (Vec, bool) {
	if posU == posV {
		posU = Perturb(posU, k.dims, k.rng)
		k.perturbed++
	}
	delta := posV.Sub(posU)
	d := delta.Norm()
	if NearMachinePrecision(d) {
		k.skipped++
		return Vec{}, false
	}
	return delta.Scale(repulsiveScalar(d) / d), true
}

// apply accumulates the force of u on v into forces: +f on v and -f on u.
func (k *kernel) apply(u, v int, pos, forces []Vec) {
	f, ok := k.force(pos[u], pos[v])
	if !ok {
		return
	}
	forces[v] = forces[v].Add(f)
	forces[u] = forces[u].Sub(f)
}

// Force is the exported form of the pairwise kernel: the repulsive force
// exerted by a node at posU on a node at posV.
func Force(posU, posV Vec, dims int, rng *rand.Rand) Vec {
	k := kernel{dims: dims, rng: rng}
	f, _ := k.force(posU.Flatten(dims), posV.Flatten(dims))
	return f
}
