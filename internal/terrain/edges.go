package terrain

// ExtractEdges turns each triangle (a, b, c) into the line pairs (a,b) (b,c) (c,a).
// Edges shared by two triangles are emitted twice.
func ExtractEdges(faces []uint32) []uint32 {
	n := len(faces) / 3
	edges := make([]uint32, 0, n*6)

	for f := 0; f < n; f++ {
		a, b, c := faces[3*f], faces[3*f+1], faces[3*f+2]
		edges = append(edges,
			a, b,
			b, c,
			c, a,
		)
	}
	return edges
}
