package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/spectra/pkg/models"
)

func lineScan() *models.Signal {
	sig := &models.Signal{
		Data:  []float64{1, 2, 3, 4, 5, 6},
		Shape: []int{2, 3},
		Axes: []models.Axis{
			{Name: "Y", Units: "µm", Navigate: true, IndexInArray: 0, Kind: models.AxisUniform, Scale: 1, Size: 2},
			{Name: "Wavelength", Units: "nm", IndexInArray: 1, Kind: models.AxisData, Size: 3, Values: []float64{500, 500.5, 501.5}},
		},
	}
	sig.Metadata.General.Title = "scan"
	sig.Metadata.Signal.Quantity = "Intensity (Counts/s)"
	return sig
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(lineScan(), 1, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestNew_Labels(t *testing.T) {
	p, err := New(lineScan(), 1)
	require.NoError(t, err)
	assert.Equal(t, "scan [1]", p.Title.Text)
	assert.Equal(t, "Wavelength (nm)", p.X.Label.Text)
	assert.Equal(t, "Intensity (Counts/s)", p.Y.Label.Text)
	assert.Equal(t, 500.0, p.X.Min)
	assert.Equal(t, 501.5, p.X.Max)
}

func TestNew_UniformAxis(t *testing.T) {
	sig := &models.Signal{
		Data:  []float64{3, 2, 1},
		Shape: []int{3},
		Axes:  []models.Axis{{Name: "Energy", Units: "eV", Kind: models.AxisUniform, Offset: 2, Scale: -0.5, Size: 3}},
	}
	sig.Metadata.General.OriginalFilename = "e.xml"

	p, err := New(sig, 0)
	require.NoError(t, err)
	assert.Equal(t, "e.xml", p.Title.Text)
	assert.Equal(t, "Intensity", p.Y.Label.Text)
	assert.Equal(t, 1.0, p.X.Min)
	assert.Equal(t, 2.0, p.X.Max)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(lineScan(), 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = New(lineScan(), -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	noAxis := &models.Signal{Data: []float64{1}, Shape: []int{1}}
	_, err = New(noAxis, 0)
	assert.ErrorIs(t, err, ErrNoSignalAxis)

	short := lineScan()
	short.Axes[1].Values = []float64{500, 501}
	_, err = New(short, 0)
	assert.Error(t, err)
}
