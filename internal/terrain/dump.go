package terrain

import (
	"bufio"
	"fmt"
	"io"
)

// Dump writes every vertex as "v x y z" and every face as "f a b c",
// with zero-based indices.
func (t *Terrain) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for p := 0; p < len(t.positions); p += 3 {
		fmt.Fprintf(bw, "v %g %g %g\n", t.positions[p], t.positions[p+1], t.positions[p+2])
	}
	for f := 0; f < len(t.faces); f += 3 {
		fmt.Fprintf(bw, "f %d %d %d\n", t.faces[f], t.faces[f+1], t.faces[f+2])
	}
	return bw.Flush()
}

// WriteOBJ writes the mesh as a Wavefront OBJ with per-vertex normals.
func (t *Terrain) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# fractal terrain div=%d seed=%d\n", t.cfg.Div, t.cfg.Seed)
	fmt.Fprintln(bw, "o terrain")

	for p := 0; p < len(t.positions); p += 3 {
		fmt.Fprintf(bw, "v %g %g %g\n", t.positions[p], t.positions[p+1], t.positions[p+2])
	}
	for p := 0; p < len(t.normals); p += 3 {
		fmt.Fprintf(bw, "vn %g %g %g\n", t.normals[p], t.normals[p+1], t.normals[p+2])
	}

	// OBJ indices are one-based
	for f := 0; f < len(t.faces); f += 3 {
		a, b, c := t.faces[f]+1, t.faces[f+1]+1, t.faces[f+2]+1
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	return bw.Flush()
}
