package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RMahshie/spectra/internal/axis"
	"github.com/RMahshie/spectra/internal/lsx"
)

// Option keys accepted by OptionsFromMap
const (
	OptionUseUniformSignalAxis = "use_uniform_signal_axis"
	// OptionUseUniformWavelengthAxis is the older name of OptionUseUniformSignalAxis
	OptionUseUniformWavelengthAxis = "use_uniform_wavelength_axis"
)

var ErrUnknownOption = errors.New("unknown loading option")

// Options controls format selection and loading
type Options struct {
	// Reader selects a format explicitly; required for extensions several formats share
	Reader               string
	UseUniformSignalAxis bool
	Tolerance            axis.Tolerance
}

// DefaultOptions returns options with the uniform signal axis enabled
func DefaultOptions() Options {
	return Options{UseUniformSignalAxis: true, Tolerance: axis.DefaultTolerance}
}

// OptionsFromMap applies key=value loading options on top of the defaults
func OptionsFromMap(values map[string]string) (Options, error) {
	opts := DefaultOptions()
	err := opts.apply(values)
	return opts, err
}

// With returns a copy of o with values applied
func (o Options) With(values map[string]string) (Options, error) {
	err := o.apply(values)
	return o, err
}

// apply sets the options named in values. The canonical key wins over its older alias.
func (o *Options) apply(values map[string]string) error {
	var signal, legacy *bool
	for key, raw := range values {
		name := strings.ToLower(strings.TrimSpace(key))
		if name != OptionUseUniformSignalAxis && name != OptionUseUniformWavelengthAxis {
			return fmt.Errorf("%w: %q", ErrUnknownOption, key)
		}
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("option %s: invalid boolean %q", key, raw)
		}
		if name == OptionUseUniformSignalAxis {
			signal = &v
		} else {
			legacy = &v
		}
	}

	switch {
	case signal != nil:
		o.UseUniformSignalAxis = *signal
	case legacy != nil:
		o.UseUniformSignalAxis = *legacy
	}
	return nil
}

func (o Options) lsx() lsx.Options {
	return lsx.Options{
		UseUniformSignalAxis: o.UseUniformSignalAxis,
		Tolerance:            o.Tolerance,
	}
}
