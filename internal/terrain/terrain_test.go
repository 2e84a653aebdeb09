package terrain

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/fractal-terrain/pkg/formats"
	"github.com/Faultbox/fractal-terrain/pkg/heightfield"
)

func unitSquare(div int) Config {
	cfg := DefaultConfig()
	cfg.Div = div
	cfg.MinX, cfg.MaxX = 0, 1
	cfg.MinY, cfg.MaxY = 0, 1
	return cfg
}

func mustNew(t *testing.T, cfg Config, opts ...Option) *Terrain {
	t.Helper()
	tr, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tr
}

func TestNew_Counts(t *testing.T) {
	for _, div := range []int{2, 4, 8, 16, 64} {
		tr := mustNew(t, unitSquare(div))

		if want := (div + 1) * (div + 1); tr.VertexCount() != want {
			t.Errorf("div %d: expected %d vertices, got %d", div, want, tr.VertexCount())
		}
		if want := 2 * div * div; tr.FaceCount() != want {
			t.Errorf("div %d: expected %d faces, got %d", div, want, tr.FaceCount())
		}
		if want := 6 * div * div; tr.EdgeCount() != want {
			t.Errorf("div %d: expected %d edge pairs, got %d", div, want, tr.EdgeCount())
		}

		b := tr.Buffers()
		if len(b.Normals) != len(b.Positions) {
			t.Errorf("div %d: %d normal floats for %d position floats", div, len(b.Normals), len(b.Positions))
		}
		if len(b.Colors) != 4*tr.VertexCount() {
			t.Errorf("div %d: expected %d color floats, got %d", div, 4*tr.VertexCount(), len(b.Colors))
		}
		if len(b.Edges) != 6*tr.FaceCount() {
			t.Errorf("div %d: expected %d edge indices, got %d", div, 6*tr.FaceCount(), len(b.Edges))
		}
	}
}

func TestNew_FaceIndicesInRange(t *testing.T) {
	tr := mustNew(t, unitSquare(32))
	n := uint32(tr.VertexCount())

	for k, idx := range tr.Buffers().Faces {
		if idx >= n {
			t.Fatalf("face index %d = %d out of range [0, %d)", k, idx, n)
		}
	}
}

func TestNew_Div2Scenario(t *testing.T) {
	tr := mustNew(t, unitSquare(2))

	if tr.VertexCount() != 9 {
		t.Errorf("expected 9 vertices, got %d", tr.VertexCount())
	}
	if tr.FaceCount() != 8 {
		t.Errorf("expected 8 faces, got %d", tr.FaceCount())
	}

	corners := []struct {
		i, j int
		want mgl32.Vec3
	}{
		{0, 0, mgl32.Vec3{0, 0, 0}},
		{0, 2, mgl32.Vec3{1, 0, 0}},
		{2, 0, mgl32.Vec3{0, 1, 0.01}},
		{2, 2, mgl32.Vec3{1, 1, 0.01}},
	}
	for _, c := range corners {
		got, err := tr.GetVertex(c.i, c.j)
		if err != nil {
			t.Fatalf("GetVertex(%d,%d) failed: %v", c.i, c.j, err)
		}
		if got != c.want {
			t.Errorf("vertex (%d,%d) = %v, want %v", c.i, c.j, got, c.want)
		}
	}
}

func TestNew_NormalsFinite(t *testing.T) {
	for _, renormalize := range []bool{false, true} {
		cfg := unitSquare(64)
		cfg.RenormalizeNormals = renormalize
		cfg.Roughness = 0.05
		tr := mustNew(t, cfg)

		for k, v := range tr.Buffers().Normals {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("renormalize=%v: normal component %d is %v", renormalize, k, v)
			}
		}
	}
}

func TestNew_ColorsMatchElevation(t *testing.T) {
	cfg := unitSquare(16)
	cfg.Roughness = 0.02
	tr := mustNew(t, cfg)

	for i := 0; i <= 16; i++ {
		for j := 0; j <= 16; j++ {
			z, _ := tr.HeightField().At(i, j)
			got, err := tr.Color(i, j)
			if err != nil {
				t.Fatalf("Color(%d,%d) failed: %v", i, j, err)
			}
			if want := ColorFor(z); got != want {
				t.Errorf("(%d,%d) elevation %v: color %v, want %v", i, j, z, got, want)
			}
		}
	}
}

func TestNew_Deterministic(t *testing.T) {
	cfg := unitSquare(32)
	cfg.Seed = 1234

	a := mustNew(t, cfg).Buffers()
	b := mustNew(t, cfg).Buffers()

	assertFloatsIdentical(t, "positions", a.Positions, b.Positions)
	assertFloatsIdentical(t, "normals", a.Normals, b.Normals)
	assertFloatsIdentical(t, "colors", a.Colors, b.Colors)
	assertIndicesIdentical(t, "faces", a.Faces, b.Faces)
	assertIndicesIdentical(t, "edges", a.Edges, b.Edges)
}

func TestNew_SeedChangesField(t *testing.T) {
	cfg := unitSquare(16)
	a := mustNew(t, cfg).HeightField().Values()
	cfg.Seed = 99
	b := mustNew(t, cfg).HeightField().Values()

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different seeds to produce different fields")
	}
}

func TestNew_WithSource(t *testing.T) {
	tr := mustNew(t, unitSquare(2), WithSource(halfSource{}))

	// Zero perturbation: the centre is the mean of the four corners.
	centre, err := tr.GetVertex(1, 1)
	if err != nil {
		t.Fatalf("GetVertex failed: %v", err)
	}
	if math.Abs(float64(centre[2])-0.005) > 1e-7 {
		t.Errorf("centre z = %v, want 0.005", centre[2])
	}
}

func TestDerivedStagesIdempotent(t *testing.T) {
	tr := mustNew(t, unitSquare(16))
	field := tr.HeightField()
	domain := tr.Config().Domain()

	p1, c1, f1 := BuildMesh(field, domain)
	p2, c2, f2 := BuildMesh(field, domain)
	assertFloatsIdentical(t, "positions", p1, p2)
	assertFloatsIdentical(t, "colors", c1, c2)
	assertIndicesIdentical(t, "faces", f1, f2)

	assertFloatsIdentical(t, "normals", EstimateNormals(p1, 16, false), EstimateNormals(p2, 16, false))
	assertIndicesIdentical(t, "edges", ExtractEdges(f1), ExtractEdges(f2))

	b := tr.Buffers()
	assertFloatsIdentical(t, "terrain positions", b.Positions, p1)
	assertFloatsIdentical(t, "terrain normals", b.Normals, EstimateNormals(p1, 16, false))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero div", func(c *Config) { c.Div = 0 }, ErrInvalidConfiguration},
		{"negative div", func(c *Config) { c.Div = -8 }, ErrInvalidConfiguration},
		{"div not power of two", func(c *Config) { c.Div = 6 }, ErrNotPowerOfTwo},
		{"min_x == max_x", func(c *Config) { c.MinX, c.MaxX = 1, 1 }, ErrInvalidConfiguration},
		{"min_x > max_x", func(c *Config) { c.MinX, c.MaxX = 2, 1 }, ErrInvalidConfiguration},
		{"min_y >= max_y", func(c *Config) { c.MinY, c.MaxY = 0, -1 }, ErrInvalidConfiguration},
		{"nan bound", func(c *Config) { c.MaxY = math.NaN() }, ErrInvalidConfiguration},
		{"infinite bound", func(c *Config) { c.MinX = math.Inf(-1) }, ErrInvalidConfiguration},
		{"negative roughness", func(c *Config) { c.Roughness = -1 }, ErrInvalidConfiguration},
		{"infinite roughness", func(c *Config) { c.Roughness = math.Inf(1) }, ErrInvalidConfiguration},
		{"nan roughness", func(c *Config) { c.Roughness = math.NaN() }, ErrInvalidConfiguration},
		{"nan corner", func(c *Config) { c.Corners.TopRight = math.NaN() }, ErrInvalidConfiguration},
		{"infinite corner", func(c *Config) { c.Corners.BottomLeft = math.Inf(-1) }, ErrInvalidConfiguration},
		{"valid", func(c *Config) {}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := New(cfg)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected error to also match ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestVertexAccessors_OutOfRange(t *testing.T) {
	tr := mustNew(t, unitSquare(4))

	for _, ij := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}, {5, 5}} {
		if _, err := tr.GetVertex(ij[0], ij[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("GetVertex(%d,%d): expected ErrIndexOutOfRange, got %v", ij[0], ij[1], err)
		}
		if err := tr.SetVertex(mgl32.Vec3{}, ij[0], ij[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SetVertex(%d,%d): expected ErrIndexOutOfRange, got %v", ij[0], ij[1], err)
		}
		if _, err := tr.Normal(ij[0], ij[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Normal(%d,%d): expected ErrIndexOutOfRange, got %v", ij[0], ij[1], err)
		}
		if _, err := tr.Color(ij[0], ij[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Color(%d,%d): expected ErrIndexOutOfRange, got %v", ij[0], ij[1], err)
		}
	}
}

func TestSetVertex_RecomputeNormals(t *testing.T) {
	tr := mustNew(t, unitSquare(4), WithSource(halfSource{}))
	before, _ := tr.Normal(2, 2)

	v, _ := tr.GetVertex(2, 1)
	v[2] += 0.5
	if err := tr.SetVertex(v, 2, 1); err != nil {
		t.Fatalf("SetVertex failed: %v", err)
	}
	got, _ := tr.GetVertex(2, 1)
	if got != v {
		t.Errorf("GetVertex after SetVertex = %v, want %v", got, v)
	}

	unchanged, _ := tr.Normal(2, 2)
	if unchanged != before {
		t.Error("normals changed before RecomputeNormals")
	}

	tr.RecomputeNormals()
	after, _ := tr.Normal(2, 2)
	if after == before {
		t.Error("expected neighbour normal to change after RecomputeNormals")
	}
	if tr.Bounds().Max[2] < v[2] {
		t.Errorf("bounds max z %v below edited vertex z %v", tr.Bounds().Max[2], v[2])
	}
}

func TestBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Div = 8
	tr := mustNew(t, cfg)

	b := tr.Bounds()
	if b.Min[0] != -0.5 || b.Max[0] != 0.5 || b.Min[1] != -0.5 || b.Max[1] != 0.5 {
		t.Errorf("unexpected XY bounds: %v", b)
	}
	lo, hi := tr.HeightField().Range()
	if b.Min[2] != float32(lo) || b.Max[2] != float32(hi) {
		t.Errorf("z bounds [%v,%v], want [%v,%v]", b.Min[2], b.Max[2], float32(lo), float32(hi))
	}
}

func TestDump(t *testing.T) {
	tr := mustNew(t, unitSquare(2))

	var buf bytes.Buffer
	if err := tr.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 9+8 {
		t.Fatalf("expected 17 lines, got %d", len(lines))
	}
	if lines[0] != "v 0 0 0" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[9] != "f 0 1 3" {
		t.Errorf("first face line = %q", lines[9])
	}
}

func TestWriteOBJ(t *testing.T) {
	tr := mustNew(t, unitSquare(2))

	var buf bytes.Buffer
	if err := tr.WriteOBJ(&buf); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	var v, vn, f int
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "v "):
			v++
		case strings.HasPrefix(line, "vn "):
			vn++
		case strings.HasPrefix(line, "f "):
			f++
		}
	}
	if v != 9 || vn != 9 || f != 8 {
		t.Errorf("got %d v, %d vn, %d f; want 9, 9, 8", v, vn, f)
	}
	if !strings.Contains(buf.String(), "f 1//1 2//2 4//4") {
		t.Error("expected one-based first face")
	}
}

func TestLogBuffers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tr := mustNew(t, unitSquare(4), WithLogger(zap.New(core)))
	tr.LogBuffers()

	if n := logs.FilterMessage("terrain: generated lines").Len(); n != 1 {
		t.Errorf("expected one generated lines entry, got %d", n)
	}

	entries := logs.FilterMessage("terrain buffers").All()
	if len(entries) != 1 {
		t.Fatalf("expected one buffers entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["vertices"] != int64(25) || fields["faces"] != int64(32) || fields["edges"] != int64(96) {
		t.Errorf("unexpected buffer fields: %v", fields)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Div != 64 {
		t.Errorf("expected div 64, got %d", cfg.Div)
	}
	if cfg.Roughness != heightfield.DefaultRoughness {
		t.Errorf("expected roughness %v, got %v", heightfield.DefaultRoughness, cfg.Roughness)
	}
	if cfg.Corners != heightfield.DefaultCorners() {
		t.Errorf("unexpected corners %+v", cfg.Corners)
	}
	if cfg.RenormalizeNormals {
		t.Error("expected renormalize_normals to be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func assertFloatsIdentical(t *testing.T, name string, a, b []float32) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("%s: length %d vs %d", name, len(a), len(b))
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("%s: element %d differs: %v vs %v", name, i, a[i], b[i])
		}
	}
}

func assertIndicesIdentical(t *testing.T, name string, a, b []uint32) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("%s: length %d vs %d", name, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("%s: element %d differs: %d vs %d", name, i, a[i], b[i])
		}
	}
}

func TestWriteTRN(t *testing.T) {
	tr := mustNew(t, unitSquare(8))
	path := filepath.Join(t.TempDir(), "mesh.trn")

	if err := tr.WriteTRN(path); err != nil {
		t.Fatalf("WriteTRN failed: %v", err)
	}

	trn, err := formats.ParseTRNFile(path)
	if err != nil {
		t.Fatalf("ParseTRNFile failed: %v", err)
	}
	if trn.VertexCount() != tr.VertexCount() || trn.FaceCount() != tr.FaceCount() || trn.EdgeCount() != tr.EdgeCount() {
		t.Errorf("counts %d/%d/%d, want %d/%d/%d",
			trn.VertexCount(), trn.FaceCount(), trn.EdgeCount(),
			tr.VertexCount(), tr.FaceCount(), tr.EdgeCount())
	}
	assertFloatsIdentical(t, "positions", trn.Positions, tr.Buffers().Positions)
	assertFloatsIdentical(t, "normals", trn.Normals, tr.Buffers().Normals)
}
