package terrain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/fractal-terrain/pkg/formats"
)

// TRN packs the terrain buffers into a TRN container. Buffers are shared.
func (t *Terrain) TRN() *formats.TRN {
	return &formats.TRN{
		Version:   formats.CurrentTRNVersion,
		Div:       uint32(t.cfg.Div),
		MinX:      float32(t.cfg.MinX),
		MaxX:      float32(t.cfg.MaxX),
		MinY:      float32(t.cfg.MinY),
		MaxY:      float32(t.cfg.MaxY),
		Positions: t.positions,
		Normals:   t.normals,
		Colors:    t.colors,
		Faces:     t.faces,
		Edges:     t.edges,
	}
}

// WriteTRN writes the terrain to a TRN file.
func (t *Terrain) WriteTRN(path string) error {
	if err := t.TRN().WriteFile(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	t.log.Info("wrote terrain mesh", zap.String("path", path), zap.Int("div", t.cfg.Div))
	return nil
}
