// Package render renders loaded spectra as PNG line plots.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/RMahshie/spectra/internal/axis"
	"github.com/RMahshie/spectra/pkg/models"
)

// ContentType of rendered images
const ContentType = "image/png"

var (
	ErrIndexOutOfRange = errors.New("spectrum index out of range")
	ErrNoSignalAxis    = errors.New("signal has no signal axis")
)

var lineColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// Render draws the spectrum at the flattened navigation index as a PNG
func Render(sig *models.Signal, index int, w io.Writer) error {
	p, err := New(sig, index)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// New builds the plot for one spectrum without encoding it
func New(sig *models.Signal, index int) (*plot.Plot, error) {
	signalAxis, ok := sig.SignalAxis()
	if !ok {
		return nil, ErrNoSignalAxis
	}
	intensities, ok := sig.Spectrum(index)
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, sig.NavigationSize())
	}

	positions := axis.AxisPoints(signalAxis)
	if len(positions) != len(intensities) {
		return nil, fmt.Errorf("signal axis has %d points, spectrum has %d", len(positions), len(intensities))
	}

	pts := make(plotter.XYs, len(positions))
	for i := range positions {
		pts[i] = plotter.XY{X: positions[i], Y: intensities[i]}
	}

	p := plot.New()
	p.Title.Text = title(sig, index)
	p.X.Label.Text = label(signalAxis.Name, signalAxis.Units)
	p.Y.Label.Text = sig.Metadata.Signal.Quantity
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "Intensity"
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	p.Add(line)

	return p, nil
}

func title(sig *models.Signal, index int) string {
	name := sig.Metadata.General.Title
	if name == "" {
		name = sig.Metadata.General.OriginalFilename
	}
	if sig.NavigationSize() > 1 {
		return fmt.Sprintf("%s [%d]", name, index)
	}
	return name
}

func label(name, units string) string {
	if units == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, units)
}
