package terrain

import "github.com/go-gl/mathgl/mgl32"

// OutOfGridPoint stands in for any triangle corner that falls outside the grid.
var OutOfGridPoint = mgl32.Vec3{0, 0, 1}

// incidentTriangles lists, as (di, dj) offsets from the centre vertex, the two
// outer corners of each of the six triangles averaged into a vertex normal.
// Edge vectors are taken in the listed order, so windings are not uniform.
var incidentTriangles = [6][2][2]int{
	{{1, 0}, {1, 1}},
	{{0, -1}, {1, 0}},
	{{0, -1}, {-1, -1}},
	{{1, 1}, {0, 1}},
	{{-1, -1}, {-1, 0}},
	{{-1, 0}, {0, 1}},
}

// EstimateNormals computes one normal per vertex of a (div+1)² position grid.
// Each of the six incident triangle normals is normalized and summed, and the
// sum is scaled by 1/6 whatever the number of in-grid neighbours. Missing corners
// are replaced by OutOfGridPoint. With renormalize set the average is rescaled
// to unit length.
func EstimateNormals(positions []float32, div int, renormalize bool) []float32 {
	side := div + 1
	normals := make([]float32, 0, side*side*3)

	at := func(i, j int) mgl32.Vec3 {
		if i < 0 || j < 0 || i > div || j > div {
			return OutOfGridPoint
		}
		p := 3 * (i*side + j)
		return mgl32.Vec3{positions[p], positions[p+1], positions[p+2]}
	}

	for i := 0; i <= div; i++ {
		for j := 0; j <= div; j++ {
			center := at(i, j)

			var sum mgl32.Vec3
			for _, tri := range incidentTriangles {
				a := at(i+tri[0][0], j+tri[0][1]).Sub(center)
				b := at(i+tri[1][0], j+tri[1][1]).Sub(center)
				sum = sum.Add(unit(a.Cross(b)))
			}

			n := sum.Mul(1.0 / 6)
			if renormalize {
				n = unit(n)
			}
			normals = append(normals, n[0], n[1], n[2])
		}
	}
	return normals
}

// unit normalizes v, leaving the zero vector unchanged.
func unit(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{v[0] / l, v[1] / l, v[2] / l}
}
