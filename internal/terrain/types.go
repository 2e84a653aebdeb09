// Package terrain builds a renderable fractal terrain mesh: vertex positions,
// per-vertex normals and colors, triangle indices and wireframe edges.
package terrain

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/fractal-terrain/pkg/heightfield"
)

// Terrain errors.
var (
	ErrInvalidConfiguration = errors.New("invalid terrain configuration")
	ErrNotPowerOfTwo        = errors.New("division is not a power of two")
	ErrIndexOutOfRange      = errors.New("vertex index out of range")
)

// Config holds the construction parameters of a terrain.
type Config struct {
	Div  int     `yaml:"div"`   // Cells per side, power of two
	MinX float64 `yaml:"min_x"` // Domain bounds
	MaxX float64 `yaml:"max_x"`
	MinY float64 `yaml:"min_y"`
	MaxY float64 `yaml:"max_y"`

	Seed      uint64              `yaml:"seed"`      // Used when no Source option is given
	Roughness float64             `yaml:"roughness"` // Perturbation per unit of offset
	Corners   heightfield.Corners `yaml:"corners"`

	// RenormalizeNormals rescales each averaged vertex normal to unit length.
	// Off by default: boundary normals keep their shortened magnitude.
	RenormalizeNormals bool `yaml:"renormalize_normals"`
}

// DefaultConfig returns a 64x64 terrain over [-0.5, 0.5]².
func DefaultConfig() Config {
	return Config{
		Div:       64,
		MinX:      -0.5,
		MaxX:      0.5,
		MinY:      -0.5,
		MaxY:      0.5,
		Seed:      1,
		Roughness: heightfield.DefaultRoughness,
		Corners:   heightfield.DefaultCorners(),
	}
}

// Buffers are the flat arrays handed to a rendering collaborator.
// They are shared with the terrain and must be treated as read-only.
type Buffers struct {
	Div       int
	Positions []float32 // 3 per vertex, row-major by (i, j)
	Normals   []float32 // 3 per vertex
	Colors    []float32 // 4 per vertex, RGBA
	Faces     []uint32  // 3 per triangle
	Edges     []uint32  // 2 per triangle edge, 6 per triangle
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int { return len(b.Positions) / 3 }

// FaceCount returns the number of triangles.
func (b *Buffers) FaceCount() int { return len(b.Faces) / 3 }

// EdgeCount returns the number of edge index pairs.
func (b *Buffers) EdgeCount() int { return len(b.Edges) / 2 }

// Bounds holds the axis-aligned bounding box of the terrain.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Band is an elevation color class.
type Band int

// Elevation bands, highest first.
const (
	BandPeak    Band = iota // elevation > 0.10
	BandHill                // elevation > 0.05
	BandLowland             // elevation > 0
	BandBasin               // elevation < 0
	BandLevel               // elevation == 0
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandPeak:
		return "Peak"
	case BandHill:
		return "Hill"
	case BandLowland:
		return "Lowland"
	case BandBasin:
		return "Basin"
	case BandLevel:
		return "Level"
	default:
		return "Unknown"
	}
}
