package force

import "github.com/onnwee/repulse/internal/metrics"

// approxGrid computes repulsion between nodes that share a grid cell or sit
// in adjacent cells. Nodes further apart exert no force on each other.
// The traversal always runs on the calling goroutine.
func (e *Engine) approxGrid(pos []Vec, box DrawingBox, quotient int) []Vec {
	g := buildGrid(pos, box, quotient, e.dims)
	metrics.ForceGridCells.Set(float64(g.cells()))

	k := e.newKernel()
	forces := make([]Vec, len(pos))
	g.eachPair(func(u, v int) {
		k.apply(u, v, pos, forces)
	})
	e.recordKernel(k)
	return forces
}
