package axis

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/RMahshie/spectra/pkg/models"
)

// Points regenerates offset + i*scale for i in [0, size)
func Points(offset, scale float64, size int) []float64 {
	if size <= 0 {
		return nil
	}

	index := make([]float64, size)
	base := make([]float64, size)
	for i := range index {
		index[i] = float64(i)
		base[i] = offset
	}

	out := make([]float64, size)
	vecmath.ScaleBlock(out, index, scale)
	vecmath.AddBlockInPlace(out, base)
	return out
}

// AxisPoints returns the position of every index along a, whatever its representation
func AxisPoints(a models.Axis) []float64 {
	if a.IsUniform() {
		return Points(a.Offset, a.Scale, a.Size)
	}
	out := make([]float64, len(a.Values))
	copy(out, a.Values)
	return out
}
