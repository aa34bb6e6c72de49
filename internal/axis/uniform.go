// Package axis decides how the position sequence of a loaded axis is stored:
// as an (offset, scale, size) triple or as the explicit list of values.
package axis

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/spectra/pkg/models"
)

var (
	// ErrInsufficientPoints is returned for axes with fewer than two positions
	ErrInsufficientPoints = errors.New("axis needs at least 2 points")
	// ErrNonFinite is returned when an axis contains NaN or Inf
	ErrNonFinite = errors.New("axis contains non-finite values")
)

// Tolerance decides when two steps count as equal: |a-b| <= Absolute + Relative*max(|a|,|b|)
type Tolerance struct {
	Absolute float64
	Relative float64
}

// DefaultTolerance is used when no tolerance is configured
var DefaultTolerance = Tolerance{Absolute: 1e-8, Relative: 1e-5}

// Equal reports whether a and b agree within the tolerance
func (t Tolerance) Equal(a, b float64) bool {
	return math.Abs(a-b) <= t.Absolute+t.Relative*math.Max(math.Abs(a), math.Abs(b))
}

// Options controls a uniformization
type Options struct {
	Name       string
	UseUniform bool
	Tolerance  Tolerance
}

// Result is the chosen representation of an axis
type Result struct {
	Kind    models.AxisKind
	Offset  float64
	Scale   float64
	Size    int
	Values  []float64
	Warning *models.AxisWarning
}

// Apply copies the representation into an axis, keeping its name, units and placement
func (r Result) Apply(a *models.Axis) {
	a.Kind = r.Kind
	a.Size = r.Size
	a.Offset = r.Offset
	a.Scale = r.Scale
	a.Values = r.Values
}

// Uniformize picks the representation of a signal axis.
// With UseUniform false the values are kept as they are. Otherwise the axis
// becomes offset=values[0], scale=values[1]-values[0], size=len(values), and
// a single warning is raised when the last step differs from the first one.
func Uniformize(values []float64, opts Options) (Result, error) {
	if err := validate(values); err != nil {
		return Result{}, fmt.Errorf("%s axis: %w", opts.Name, err)
	}

	if !opts.UseUniform {
		raw := make([]float64, len(values))
		copy(raw, values)
		return Result{Kind: models.AxisData, Size: len(values), Values: raw}, nil
	}

	first := values[1] - values[0]
	return Result{
		Kind:    models.AxisUniform,
		Offset:  values[0],
		Scale:   first,
		Size:    len(values),
		Warning: checkSteps(values, opts),
	}, nil
}

// Navigation builds a navigation axis. Navigation axes are always uniform:
// offset is the smallest position and scale the mean step magnitude. The
// step check only warns when UseUniform is set.
func Navigation(values []float64, opts Options) (Result, error) {
	if err := validate(values); err != nil {
		return Result{}, fmt.Errorf("%s axis: %w", opts.Name, err)
	}

	n := len(values)
	res := Result{
		Kind:   models.AxisUniform,
		Offset: minimum(values),
		Scale:  math.Abs(values[0]-values[n-1]) / float64(n-1),
		Size:   n,
	}
	if opts.UseUniform {
		res.Warning = checkSteps(values, opts)
	}
	return res, nil
}

// checkSteps compares the first and last step and logs one warning when they differ
func checkSteps(values []float64, opts Options) *models.AxisWarning {
	n := len(values)
	first := values[1] - values[0]
	last := values[n-1] - values[n-2]

	tol := opts.Tolerance
	if tol == (Tolerance{}) {
		tol = DefaultTolerance
	}
	if tol.Equal(first, last) {
		return nil
	}

	w := &models.AxisWarning{
		Axis:      opts.Name,
		FirstStep: first,
		LastStep:  last,
		Variation: math.Abs(first - last),
	}
	// relative variation is only meaningful away from zero
	if lo := minimum(values); !DefaultTolerance.Equal(lo, 0) {
		rel := math.Abs(math.Abs(first)/lo - math.Abs(last)/lo)
		w.RelativeVariation = &rel
	}
	w.Message = fmt.Sprintf("the step of the %s axis varies (%g between first 2 and last 2 points); consider a non-uniform axis", opts.Name, w.Variation)

	event := log.Warn().
		Str("axis", opts.Name).
		Float64("first_step", first).
		Float64("last_step", last).
		Float64("variation", w.Variation)
	if w.RelativeVariation != nil {
		event = event.Float64("relative_variation", *w.RelativeVariation)
	}
	event.Msg("Axis is not uniform, approximating with first step")

	return w
}

func validate(values []float64) error {
	if len(values) < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientPoints, len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
	}
	return nil
}

func minimum(values []float64) float64 {
	lo := values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
	}
	return lo
}
