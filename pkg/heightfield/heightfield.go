// Package heightfield generates fractal elevation grids with the diamond-square algorithm.
package heightfield

import (
	"errors"
	"fmt"
)

// ErrInvalidDivision is returned when the grid division is not a positive integer.
var ErrInvalidDivision = errors.New("invalid division: must be positive")

// DefaultRoughness is the perturbation amplitude per unit of offset.
const DefaultRoughness = 0.001

// Source supplies uniform random values in [0, 1).
// *rand.Rand from math/rand and math/rand/v2 both satisfy it.
type Source interface {
	Float64() float64
}

// Corners holds the four seed elevations, addressed by (row, col).
type Corners struct {
	TopLeft     float64 `yaml:"top_left"`     // (0, 0)
	TopRight    float64 `yaml:"top_right"`    // (0, div)
	BottomLeft  float64 `yaml:"bottom_left"`  // (div, 0)
	BottomRight float64 `yaml:"bottom_right"` // (div, div)
}

// DefaultCorners returns the asymmetric seeding: the bottom row starts slightly raised.
func DefaultCorners() Corners {
	return Corners{
		TopLeft:     0,
		TopRight:    0,
		BottomLeft:  0.01,
		BottomRight: 0.01,
	}
}

// HeightField is a square grid of side*side elevations stored row-major.
type HeightField struct {
	div     int
	side    int
	corners Corners
	cells   []float64
}

// New allocates a zeroed field for div cells per side and places the corner seeds.
// div must be a power of two for every cell to be visited by Generate; that is
// not checked here.
func New(div int, corners Corners) (*HeightField, error) {
	if div <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDivision, div)
	}

	side := div + 1
	h := &HeightField{
		div:     div,
		side:    side,
		corners: corners,
		cells:   make([]float64, side*side),
	}
	h.seed()
	return h, nil
}

func (h *HeightField) seed() {
	h.cells[0] = h.corners.TopLeft
	h.cells[h.div] = h.corners.TopRight
	h.cells[h.div*h.side] = h.corners.BottomLeft
	h.cells[h.div*h.side+h.div] = h.corners.BottomRight
}

// Generate fills the field from its corner seeds. Any previous contents other than
// the corners are overwritten, so a given source state always yields the same field.
func (h *HeightField) Generate(src Source, roughness float64) {
	clear(h.cells)
	h.seed()
	DiamondSquare(h.cells, h.side, h.div, h.div, src, roughness)
}

// Div returns the number of cells per side.
func (h *HeightField) Div() int { return h.div }

// Side returns the number of samples per side (div + 1).
func (h *HeightField) Side() int { return h.side }

// Corners returns the seed values the field was created with.
func (h *HeightField) Corners() Corners { return h.corners }

// At returns the elevation at (row, col). ok is false when out of range.
func (h *HeightField) At(row, col int) (v float64, ok bool) {
	if row < 0 || col < 0 || row > h.div || col > h.div {
		return 0, false
	}
	return h.cells[row*h.side+col], true
}

// Values returns a copy of the row-major elevation buffer.
func (h *HeightField) Values() []float64 {
	out := make([]float64, len(h.cells))
	copy(out, h.cells)
	return out
}

// Range returns the minimum and maximum elevation in the field.
func (h *HeightField) Range() (min, max float64) {
	min, max = h.cells[0], h.cells[0]
	for _, v := range h.cells {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
