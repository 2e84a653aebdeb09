package server

import "github.com/Faultbox/fractal-terrain/internal/terrain"

// Message types exchanged over /ws.
const (
	TypeMesh       = "mesh"
	TypeRegenerate = "regenerate"
	TypeError      = "error"
)

// Request is a client message. Zero fields keep the current terrain settings.
type Request struct {
	Type      string   `json:"type"`
	Div       int      `json:"div,omitempty"`
	Seed      uint64   `json:"seed,omitempty"`
	Roughness *float64 `json:"roughness,omitempty"`
}

// MeshMessage carries the full buffer set of one terrain.
type MeshMessage struct {
	Type      string        `json:"type"`
	Div       int           `json:"div"`
	Seed      uint64        `json:"seed"`
	Positions []float32     `json:"positions"`
	Normals   []float32     `json:"normals"`
	Colors    []float32     `json:"colors"`
	Faces     []uint32      `json:"faces"`
	Edges     []uint32      `json:"edges"`
	Bounds    [2][3]float32 `json:"bounds"` // min, max
}

// ErrorMessage reports a rejected request.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newMeshMessage(t *terrain.Terrain) *MeshMessage {
	b := t.Buffers()
	bounds := t.Bounds()
	return &MeshMessage{
		Type:      TypeMesh,
		Div:       b.Div,
		Seed:      t.Config().Seed,
		Positions: b.Positions,
		Normals:   b.Normals,
		Colors:    b.Colors,
		Faces:     b.Faces,
		Edges:     b.Edges,
		Bounds:    [2][3]float32{bounds.Min, bounds.Max},
	}
}
