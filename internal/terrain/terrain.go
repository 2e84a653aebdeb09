package terrain

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/fractal-terrain/pkg/heightfield"
)

// Terrain owns a generated height field and every buffer derived from it.
// A terrain is built once by New; changing the division or bounds means
// building a new one.
type Terrain struct {
	cfg    Config
	field  *heightfield.HeightField
	bounds Bounds
	log    *zap.Logger

	positions []float32
	normals   []float32
	colors    []float32
	faces     []uint32
	edges     []uint32
}

// Option customizes terrain construction.
type Option func(*options)

type options struct {
	src heightfield.Source
	log *zap.Logger
}

// WithSource overrides the random source used for perturbation.
func WithSource(src heightfield.Source) Option {
	return func(o *options) { o.src = src }
}

// WithLogger sets the logger used for buffer diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// NewSeededSource returns a deterministic source for the given seed.
func NewSeededSource(seed uint64) heightfield.Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Validate checks the configuration before any generation work.
func (c Config) Validate() error {
	if c.Div <= 0 {
		return fmt.Errorf("%w: div must be positive, got %d", ErrInvalidConfiguration, c.Div)
	}
	if !heightfield.IsPowerOfTwo(c.Div) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfiguration, ErrNotPowerOfTwo, c.Div)
	}
	for _, v := range []float64{c.MinX, c.MaxX, c.MinY, c.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite", ErrInvalidConfiguration)
		}
	}
	if c.MinX >= c.MaxX {
		return fmt.Errorf("%w: min_x %v >= max_x %v", ErrInvalidConfiguration, c.MinX, c.MaxX)
	}
	if c.MinY >= c.MaxY {
		return fmt.Errorf("%w: min_y %v >= max_y %v", ErrInvalidConfiguration, c.MinY, c.MaxY)
	}
	if math.IsNaN(c.Roughness) || math.IsInf(c.Roughness, 0) || c.Roughness < 0 {
		return fmt.Errorf("%w: roughness must be finite and >= 0, got %v", ErrInvalidConfiguration, c.Roughness)
	}
	k := c.Corners
	for _, v := range []float64{k.TopLeft, k.TopRight, k.BottomLeft, k.BottomRight} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: corner seeds must be finite, got %v", ErrInvalidConfiguration, v)
		}
	}
	return nil
}

// Domain returns the configured XY bounds.
func (c Config) Domain() Domain {
	return Domain{MinX: c.MinX, MaxX: c.MaxX, MinY: c.MinY, MaxY: c.MaxY}
}

// New validates cfg, generates the height field and builds all mesh buffers.
func New(cfg Config, opts ...Option) (*Terrain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = NewSeededSource(cfg.Seed)
	}

	field, err := heightfield.New(cfg.Div, cfg.Corners)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	t := &Terrain{
		cfg:   cfg,
		field: field,
		log:   o.log,
	}
	t.log.Debug("terrain: allocated buffers", zap.Int("div", cfg.Div), zap.Int("side", field.Side()))

	field.Generate(o.src, cfg.Roughness)
	t.positions, t.colors, t.faces = BuildMesh(field, cfg.Domain())
	t.normals = EstimateNormals(t.positions, cfg.Div, cfg.RenormalizeNormals)
	t.bounds = ComputeBounds(t.positions)
	t.log.Debug("terrain: generated triangles",
		zap.Int("vertices", t.VertexCount()),
		zap.Int("faces", t.FaceCount()),
	)

	t.edges = ExtractEdges(t.faces)
	t.log.Debug("terrain: generated lines", zap.Int("edges", t.EdgeCount()))

	return t, nil
}

// Config returns the configuration the terrain was built from.
func (t *Terrain) Config() Config { return t.cfg }

// Div returns the number of cells per side.
func (t *Terrain) Div() int { return t.cfg.Div }

// HeightField returns the generated elevation grid.
func (t *Terrain) HeightField() *heightfield.HeightField { return t.field }

// Bounds returns the bounding box of the vertex positions.
func (t *Terrain) Bounds() Bounds { return t.bounds }

// VertexCount returns (div+1)².
func (t *Terrain) VertexCount() int { return len(t.positions) / 3 }

// FaceCount returns 2*div².
func (t *Terrain) FaceCount() int { return len(t.faces) / 3 }

// EdgeCount returns the number of edge pairs, 3 per face.
func (t *Terrain) EdgeCount() int { return len(t.edges) / 2 }

// Buffers exposes the mesh data for upload. The slices are shared.
func (t *Terrain) Buffers() Buffers {
	return Buffers{
		Div:       t.cfg.Div,
		Positions: t.positions,
		Normals:   t.normals,
		Colors:    t.colors,
		Faces:     t.faces,
		Edges:     t.edges,
	}
}

// LogBuffers reports buffer sizes at info level.
func (t *Terrain) LogBuffers() {
	t.log.Info("terrain buffers",
		zap.Int("vertices", t.VertexCount()),
		zap.Int("normals", len(t.normals)/3),
		zap.Int("colors", len(t.colors)/4),
		zap.Int("faces", t.FaceCount()),
		zap.Int("edges", t.EdgeCount()),
	)
}

func (t *Terrain) index(i, j int) (int, error) {
	div := t.cfg.Div
	if i < 0 || j < 0 || i > div || j > div {
		return 0, fmt.Errorf("%w: (%d, %d) outside [0, %d]", ErrIndexOutOfRange, i, j, div)
	}
	return i*(div+1) + j, nil
}

// GetVertex returns the position of the vertex at row i, column j.
func (t *Terrain) GetVertex(i, j int) (mgl32.Vec3, error) {
	vid, err := t.index(i, j)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	p := 3 * vid
	return mgl32.Vec3{t.positions[p], t.positions[p+1], t.positions[p+2]}, nil
}

// SetVertex overwrites the position of the vertex at row i, column j.
// Normals are not updated until RecomputeNormals is called.
func (t *Terrain) SetVertex(v mgl32.Vec3, i, j int) error {
	vid, err := t.index(i, j)
	if err != nil {
		return err
	}
	p := 3 * vid
	t.positions[p] = v[0]
	t.positions[p+1] = v[1]
	t.positions[p+2] = v[2]
	return nil
}

// Normal returns the normal of the vertex at row i, column j.
func (t *Terrain) Normal(i, j int) (mgl32.Vec3, error) {
	vid, err := t.index(i, j)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	p := 3 * vid
	return mgl32.Vec3{t.normals[p], t.normals[p+1], t.normals[p+2]}, nil
}

// Color returns the RGBA color of the vertex at row i, column j.
func (t *Terrain) Color(i, j int) (mgl32.Vec4, error) {
	vid, err := t.index(i, j)
	if err != nil {
		return mgl32.Vec4{}, err
	}
	p := 4 * vid
	return mgl32.Vec4{t.colors[p], t.colors[p+1], t.colors[p+2], t.colors[p+3]}, nil
}

// RecomputeNormals rebuilds normals and bounds from the current positions.
func (t *Terrain) RecomputeNormals() {
	t.normals = EstimateNormals(t.positions, t.cfg.Div, t.cfg.RenormalizeNormals)
	t.bounds = ComputeBounds(t.positions)
}
