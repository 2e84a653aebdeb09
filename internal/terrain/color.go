package terrain

import "github.com/go-gl/mathgl/mgl32"

// Band thresholds.
const (
	peakThreshold = 0.10
	hillThreshold = 0.05
)

var bandColors = [...]mgl32.Vec4{
	BandPeak:    {0, 0, 1, 1},
	BandHill:    {1, 0, 1, 1},
	BandLowland: {1, 0, 0, 1},
	BandBasin:   {0.2, 0.1, 0, 1},
	BandLevel:   {0, 1, 0, 1},
}

// BandFor classifies an elevation. The first matching threshold wins.
func BandFor(elevation float64) Band {
	switch {
	case elevation > peakThreshold:
		return BandPeak
	case elevation > hillThreshold:
		return BandHill
	case elevation > 0:
		return BandLowland
	case elevation < 0:
		return BandBasin
	default:
		return BandLevel
	}
}

// Color returns the RGBA constant for the band.
func (b Band) Color() mgl32.Vec4 {
	if b < BandPeak || b > BandLevel {
		return mgl32.Vec4{1, 1, 1, 1}
	}
	return bandColors[b]
}

// ColorFor returns the vertex color for an elevation.
func ColorFor(elevation float64) mgl32.Vec4 {
	return BandFor(elevation).Color()
}
