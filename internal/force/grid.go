package force

import "math"

// DefaultGridQuotient is the quotient used by Fruchterman and Reingold.
const DefaultGridQuotient = 2

// NormalizeGridQuotient maps negative quotients to DefaultGridQuotient.
func NormalizeGridQuotient(q int) int {
	if q < 0 {
		return DefaultGridQuotient
	}
	return q
}

// GridIndex returns the number of cells per axis for n nodes:
// max(1, floor(sqrt(n)/q)). A quotient of zero is treated as one.
func GridIndex(n, q int) int {
	q = NormalizeGridQuotient(q)
	if q == 0 {
		q = 1
	}
	k := int(math.Sqrt(float64(n)) / float64(q))
	if k < 1 {
		return 1
	}
	return k
}

// GridCells returns the number of buckets an approximate pass over n nodes
// allocates in dims dimensions.
func GridCells(n, q, dims int) int {
	k := GridIndex(n, q)
	if dims == 3 {
		return k * k * k
	}
	return k * k
}

// cell identifies a grid cell by its per-axis coordinates.
type cell struct{ i, j, k int }

// grid buckets node indices into uniform cells covering the drawing box.
// A grid is built for a single pass and thrown away afterwards.
type grid struct {
	ni, nj, nk int
	cellSize   float64
	corner     Vec
	buckets    [][]int
}

// buildGrid assigns every node to exactly one cell. Positions outside the
// box are clamped onto the nearest border cell.
func buildGrid(pos []Vec, box DrawingBox, quotient, dims int) *grid {
	idx := GridIndex(len(pos), quotient)
	g := &grid{
		ni:       idx,
		nj:       idx,
		nk:       idx,
		cellSize: box.Length / float64(idx),
		corner:   box.Corner,
	}
	if dims == 2 {
		g.nk = 1
	}
	g.buckets = make([][]int, g.ni*g.nj*g.nk)
	for v, p := range pos {
		c := g.locate(p)
		b := g.offset(c)
		g.buckets[b] = append(g.buckets[b], v)
	}
	return g
}

// locate returns the cell containing p.
func (g *grid) locate(p Vec) cell {
	off := p.Sub(g.corner)
	return cell{
		i: g.axisIndex(off[0], g.ni),
		j: g.axisIndex(off[1], g.nj),
		k: g.axisIndex(off[2], g.nk),
	}
}

func (g *grid) axisIndex(offset float64, n int) int {
	if n == 1 || g.cellSize <= 0 {
		return 0
	}
	f := math.Floor(offset / g.cellSize)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return int(f)
}

func (g *grid) offset(c cell) int {
	return (c.i*g.nj+c.j)*g.nk + c.k
}

func (g *grid) contains(c cell) bool {
	return c.i >= 0 && c.j >= 0 && c.k >= 0 && c.i < g.ni && c.j < g.nj && c.k < g.nk
}

func (g *grid) bucket(c cell) []int {
	return g.buckets[g.offset(c)]
}

// cells returns the number of cells in the grid.
func (g *grid) cells() int {
	return len(g.buckets)
}

// forwardNeighbor reports whether the neighbour at offset (di,dj,dk) is
// visited from the current cell. Exactly one of d and -d is forward for every
// non-zero offset in the Moore neighbourhood, so each adjacent pair of cells
// is visited once over the whole grid.
func forwardNeighbor(di, dj, dk int) bool {
	switch dk {
	case -1:
		return !(di == -1 && dj == -1)
	case 0:
		return dj == 1 || (dj == 0 && di == 1)
	case 1:
		return di == 1 && dj == 1
	}
	return false
}

// forwardOffsets lists the neighbour offsets visited from each cell.
var forwardOffsets = func() []cell {
	var out []cell
	for dk := -1; dk <= 1; dk++ {
		for dj := -1; dj <= 1; dj++ {
			for di := -1; di <= 1; di++ {
				if forwardNeighbor(di, dj, dk) {
					out = append(out, cell{di, dj, dk})
				}
			}
		}
	}
	return out
}()

// eachPair calls fn once for every unordered pair of nodes that share a cell
// or sit in adjacent cells. Within a pair the first index is always the one
// from the cell currently being traversed.
func (g *grid) eachPair(fn func(u, v int)) {
	for i := 0; i < g.ni; i++ {
		for j := 0; j < g.nj; j++ {
			for k := 0; k < g.nk; k++ {
				c := cell{i, j, k}
				own := g.bucket(c)
				for a := 0; a < len(own); a++ {
					for b := a + 1; b < len(own); b++ {
						fn(own[a], own[b])
					}
				}
				if len(own) == 0 {
					continue
				}
				for _, d := range forwardOffsets {
					n := cell{i + d.i, j + d.j, k + d.k}
					if !g.contains(n) {
						continue
					}
					for _, u := range own {
						for _, v := range g.bucket(n) {
							fn(u, v)
						}
					}
				}
			}
		}
	}
}
