package force

import "math"

// DrawingBox is the cube (or square in 2D) that contains every node position
// for the current layout pass.
type DrawingBox struct {
	Length float64 `json:"length"`
	Corner Vec     `json:"corner"`
}

// BoxAround returns the smallest drawing box containing every position,
// grown by padding on each side. A degenerate extent gets length 1 so the
// grid always has a positive cell size.
func BoxAround(positions []Vec, padding float64) DrawingBox {
	if len(positions) == 0 {
		return DrawingBox{Length: 1}
	}
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		for a := 0; a < 3; a++ {
			lo[a] = math.Min(lo[a], p[a])
			hi[a] = math.Max(hi[a], p[a])
		}
	}
	length := 0.0
	for a := 0; a < 3; a++ {
		length = math.Max(length, hi[a]-lo[a])
	}
	if length <= 0 {
		length = 1
	}
	for a := 0; a < 3; a++ {
		lo[a] -= padding
	}
	return DrawingBox{Length: length + 2*padding, Corner: lo}
}
