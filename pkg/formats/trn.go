// Package formats provides readers and writers for terrain mesh files.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TRN format errors.
var (
	ErrInvalidTRNMagic       = errors.New("invalid TRN magic: expected 'TRNM'")
	ErrUnsupportedTRNVersion = errors.New("unsupported TRN version")
	ErrTruncatedTRNData      = errors.New("truncated TRN data")
	ErrInvalidTRNLayout      = errors.New("invalid TRN layout")
)

const (
	trnMagic      = "TRNM"
	trnHeaderSize = 4 + 2 + 4 + 4*4 + 3*4

	// MaxTRNDiv caps the grid division accepted by the parser.
	MaxTRNDiv = 4096
)

// TRNVersion represents the TRN file version.
type TRNVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v TRNVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentTRNVersion is written by Encode.
var CurrentTRNVersion = TRNVersion{Major: 1, Minor: 0}

// TRN is a terrain mesh container: a square grid of div cells per side with
// per-vertex positions, normals and colors plus triangle and line indices.
type TRN struct {
	Version    TRNVersion
	Div        uint32
	MinX, MaxX float32
	MinY, MaxY float32

	Positions []float32 // 3 per vertex
	Normals   []float32 // 3 per vertex
	Colors    []float32 // 4 per vertex
	Faces     []uint32  // 3 per triangle
	Edges     []uint32  // 2 per edge
}

// VertexCount returns the number of vertices.
func (t *TRN) VertexCount() int { return len(t.Positions) / 3 }

// FaceCount returns the number of triangles.
func (t *TRN) FaceCount() int { return len(t.Faces) / 3 }

// EdgeCount returns the number of edge pairs.
func (t *TRN) EdgeCount() int { return len(t.Edges) / 2 }

// Validate checks that buffer sizes agree with the grid division.
func (t *TRN) Validate() error {
	if t.Div == 0 || t.Div > MaxTRNDiv {
		return fmt.Errorf("%w: div %d", ErrInvalidTRNLayout, t.Div)
	}
	side := int(t.Div) + 1
	vc := side * side
	fc := 2 * int(t.Div) * int(t.Div)

	switch {
	case len(t.Positions) != 3*vc:
		return fmt.Errorf("%w: %d position floats, want %d", ErrInvalidTRNLayout, len(t.Positions), 3*vc)
	case len(t.Normals) != 3*vc:
		return fmt.Errorf("%w: %d normal floats, want %d", ErrInvalidTRNLayout, len(t.Normals), 3*vc)
	case len(t.Colors) != 4*vc:
		return fmt.Errorf("%w: %d color floats, want %d", ErrInvalidTRNLayout, len(t.Colors), 4*vc)
	case len(t.Faces) != 3*fc:
		return fmt.Errorf("%w: %d face indices, want %d", ErrInvalidTRNLayout, len(t.Faces), 3*fc)
	case len(t.Edges) != 6*fc:
		return fmt.Errorf("%w: %d edge indices, want %d", ErrInvalidTRNLayout, len(t.Edges), 6*fc)
	}

	for i, idx := range t.Faces {
		if int(idx) >= vc {
			return fmt.Errorf("%w: face index %d = %d out of range", ErrInvalidTRNLayout, i, idx)
		}
	}
	for i, idx := range t.Edges {
		if int(idx) >= vc {
			return fmt.Errorf("%w: edge index %d = %d out of range", ErrInvalidTRNLayout, i, idx)
		}
	}
	return nil
}

// ParseTRN parses a TRN file from raw bytes.
func ParseTRN(data []byte) (*TRN, error) {
	if len(data) < trnHeaderSize {
		return nil, ErrTruncatedTRNData
	}

	if string(data[0:4]) != trnMagic {
		return nil, ErrInvalidTRNMagic
	}

	// Version is stored as [minor, major]
	version := TRNVersion{
		Major: data[5],
		Minor: data[4],
	}
	if version.Major != CurrentTRNVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTRNVersion, version)
	}

	r := bytes.NewReader(data[6:])
	t := &TRN{Version: version}

	var header struct {
		Div                    uint32
		MinX, MaxX, MinY, MaxY float32
		Vertices, Faces, Edges uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTRNData)
	}

	if header.Div == 0 || header.Div > MaxTRNDiv {
		return nil, fmt.Errorf("%w: div %d", ErrInvalidTRNLayout, header.Div)
	}
	side := header.Div + 1
	if header.Vertices != side*side || header.Faces != 2*header.Div*header.Div || header.Edges != 3*header.Faces {
		return nil, fmt.Errorf("%w: counts %d/%d/%d for div %d",
			ErrInvalidTRNLayout, header.Vertices, header.Faces, header.Edges, header.Div)
	}

	t.Div = header.Div
	t.MinX, t.MaxX = header.MinX, header.MaxX
	t.MinY, t.MaxY = header.MinY, header.MaxY

	vc := int(header.Vertices)
	t.Positions = make([]float32, 3*vc)
	t.Normals = make([]float32, 3*vc)
	t.Colors = make([]float32, 4*vc)
	t.Faces = make([]uint32, 3*int(header.Faces))
	t.Edges = make([]uint32, 2*int(header.Edges))

	sections := []struct {
		name string
		dst  any
	}{
		{"positions", t.Positions},
		{"normals", t.Normals},
		{"colors", t.Colors},
		{"faces", t.Faces},
		{"edges", t.Edges},
	}
	for _, s := range sections {
		if err := binary.Read(r, binary.LittleEndian, s.dst); err != nil {
			return nil, fmt.Errorf("%w: reading %s", ErrTruncatedTRNData, s.name)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTRNFile parses a TRN file from disk.
func ParseTRNFile(path string) (*TRN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TRN file: %w", err)
	}
	return ParseTRN(data)
}

// WriteTo encodes the container to w.
func (t *TRN) WriteTo(w io.Writer) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	cw.Write([]byte(trnMagic))
	cw.Write([]byte{CurrentTRNVersion.Minor, CurrentTRNVersion.Major})

	fields := []any{
		t.Div,
		t.MinX, t.MaxX, t.MinY, t.MaxY,
		uint32(t.VertexCount()), uint32(t.FaceCount()), uint32(t.EdgeCount()),
		t.Positions, t.Normals, t.Colors, t.Faces, t.Edges,
	}
	for _, f := range fields {
		if cw.err != nil {
			break
		}
		if err := binary.Write(cw, binary.LittleEndian, f); err != nil {
			return cw.n, fmt.Errorf("writing TRN: %w", err)
		}
	}
	if cw.err != nil {
		return cw.n, fmt.Errorf("writing TRN: %w", cw.err)
	}
	return cw.n, nil
}

// Encode returns the container as bytes.
func (t *TRN) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := t.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes the container to path, creating parent directories.
func (t *TRN) WriteFile(path string) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// GetAltitudeRange returns the minimum and maximum vertex z.
func (t *TRN) GetAltitudeRange() (min, max float32) {
	if len(t.Positions) < 3 {
		return 0, 0
	}
	min, max = t.Positions[2], t.Positions[2]
	for p := 5; p < len(t.Positions); p += 3 {
		z := t.Positions[p]
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	return min, max
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
