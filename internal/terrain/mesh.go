package terrain

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/fractal-terrain/pkg/heightfield"
)

// Domain is the rectangle the grid is stretched over.
type Domain struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// BuildMesh lays a completed height field over the domain. It returns vertex
// positions and colors (row-major by (i, j), with i the row along Y and j the
// column along X) and two triangles per cell.
func BuildMesh(h *heightfield.HeightField, d Domain) (positions, colors []float32, faces []uint32) {
	div := h.Div()
	side := h.Side()

	positions = make([]float32, 0, side*side*3)
	colors = make([]float32, 0, side*side*4)

	deltaX := (d.MaxX - d.MinX) / float64(div)
	deltaY := (d.MaxY - d.MinY) / float64(div)

	for i := 0; i <= div; i++ {
		for j := 0; j <= div; j++ {
			z, _ := h.At(i, j)
			positions = append(positions,
				float32(d.MinX+deltaX*float64(j)),
				float32(d.MinY+deltaY*float64(i)),
				float32(z),
			)

			c := ColorFor(z)
			colors = append(colors, c[0], c[1], c[2], c[3])
		}
	}

	return positions, colors, BuildFaces(div)
}

// BuildFaces triangulates a div x div grid. Every cell (i, j) is split along the
// diagonal from (i, j+1) to (i+1, j).
func BuildFaces(div int) []uint32 {
	side := uint32(div + 1)
	faces := make([]uint32, 0, div*div*6)

	for i := 0; i < div; i++ {
		for j := 0; j < div; j++ {
			v := uint32(i)*side + uint32(j)
			faces = append(faces,
				v, v+1, v+side,
				v+1, v+1+side, v+side,
			)
		}
	}
	return faces
}

// ComputeBounds returns the bounding box of a flat position buffer.
func ComputeBounds(positions []float32) Bounds {
	if len(positions) < 3 {
		return Bounds{}
	}

	b := Bounds{
		Min: mgl32.Vec3{positions[0], positions[1], positions[2]},
		Max: mgl32.Vec3{positions[0], positions[1], positions[2]},
	}
	for p := 3; p+2 < len(positions); p += 3 {
		for k := 0; k < 3; k++ {
			v := positions[p+k]
			if v < b.Min[k] {
				b.Min[k] = v
			}
			if v > b.Max[k] {
				b.Max[k] = v
			}
		}
	}
	return b
}
