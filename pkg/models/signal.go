package models

// AxisKind tells how an axis stores its positions
type AxisKind string

const (
	// AxisUniform axes are described by offset, scale and size
	AxisUniform AxisKind = "uniform"
	// AxisData axes keep every position explicitly
	AxisData AxisKind = "data"
)

// Axis describes one dimension of a signal array
type Axis struct {
	Name         string   `json:"name" doc:"Axis name, e.g. Wavelength or X"`
	Units        string   `json:"units,omitempty" doc:"Axis units"`
	Navigate     bool     `json:"navigate" doc:"True for navigation (spatial) axes"`
	IndexInArray int      `json:"index_in_array" doc:"Position of the axis in the data shape"`
	Kind         AxisKind `json:"kind" enum:"uniform,data" doc:"Axis representation"`

	// Uniform representation
	Offset float64 `json:"offset" doc:"First position of a uniform axis"`
	Scale  float64 `json:"scale" doc:"Step of a uniform axis"`
	Size   int     `json:"size" doc:"Number of positions"`

	// Explicit representation
	Values []float64 `json:"values,omitempty" doc:"Positions of a non-uniform axis"`
}

// IsUniform reports whether the axis is stored as offset/scale/size
func (a Axis) IsUniform() bool {
	return a.Kind == AxisUniform
}

// AxisWarning reports that an axis was approximated as uniform although its spacing varies
type AxisWarning struct {
	Axis              string   `json:"axis" doc:"Name of the axis"`
	FirstStep         float64  `json:"first_step" doc:"Difference between the first two positions"`
	LastStep          float64  `json:"last_step" doc:"Difference between the last two positions"`
	Variation         float64  `json:"variation" doc:"Absolute difference between first and last step"`
	RelativeVariation *float64 `json:"relative_variation,omitempty" doc:"Step variation relative to the smallest position"`
	Message           string   `json:"message" doc:"Human-readable warning"`
}

// OriginalMetadata holds the file metadata grouped by section
// ("date", "experimental setup", "file information"). Values are strings or float64.
type OriginalMetadata map[string]map[string]any

// Signal is the neutral result of loading a file
type Signal struct {
	Data             []float64        `json:"data" doc:"Intensities in row-major order"`
	Shape            []int            `json:"shape" doc:"Data shape, signal dimension last"`
	Axes             []Axis           `json:"axes" doc:"Axes ordered by index_in_array"`
	Metadata         Metadata         `json:"metadata"`
	OriginalMetadata OriginalMetadata `json:"original_metadata"`
	SignalType       string           `json:"signal_type" doc:"Resolved signal type, empty for generic signals"`
	Warnings         []AxisWarning    `json:"warnings,omitempty" doc:"Non-fatal axis warnings raised while loading"`
}

// SignalAxis returns the non-navigation axis, if any
func (s *Signal) SignalAxis() (Axis, bool) {
	for _, a := range s.Axes {
		if !a.Navigate {
			return a, true
		}
	}
	return Axis{}, false
}

// NavigationSize is the number of spectra stored in the signal
func (s *Signal) NavigationSize() int {
	n := 1
	for i := 0; i < len(s.Shape)-1; i++ {
		n *= s.Shape[i]
	}
	return n
}

// Spectrum returns the intensities at the flattened navigation index
func (s *Signal) Spectrum(index int) ([]float64, bool) {
	if len(s.Shape) == 0 || index < 0 || index >= s.NavigationSize() {
		return nil, false
	}
	width := s.Shape[len(s.Shape)-1]
	start := index * width
	if start+width > len(s.Data) {
		return nil, false
	}
	return s.Data[start : start+width], true
}

// Metadata is the standardized metadata tree of a loaded signal
type Metadata struct {
	General               General               `json:"General"`
	Signal                SignalInfo            `json:"Signal"`
	Sample                Sample                `json:"Sample"`
	AcquisitionInstrument AcquisitionInstrument `json:"Acquisition_instrument"`
}

// General holds file-level information
type General struct {
	Title            string `json:"title,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Date             string `json:"date,omitempty"`
	Time             string `json:"time,omitempty"`
}

// SignalInfo describes what the data represents
type SignalInfo struct {
	RecordBy   string `json:"record_by,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
	SignalType string `json:"signal_type"`
}

// Sample describes the measured sample
type Sample struct {
	Description string `json:"description,omitempty"`
}

// AcquisitionInstrument groups the instrument settings
type AcquisitionInstrument struct {
	Laser        Laser        `json:"Laser"`
	Spectrometer Spectrometer `json:"Spectrometer"`
	Detector     Detector     `json:"Detector"`
}

// Laser holds excitation settings
type Laser struct {
	Wavelength             *float64    `json:"wavelength,omitempty"`
	ObjectiveMagnification *float64    `json:"objective_magnification,omitempty"`
	Filter                 LaserFilter `json:"Filter"`
	Polarizer              Polarizer   `json:"Polarizer"`
}

// LaserFilter holds the neutral density filter
type LaserFilter struct {
	OpticalDensity *float64 `json:"optical_density,omitempty"`
}

// Polarizer holds a polarizer configuration
type Polarizer struct {
	PolarizerType string   `json:"polarizer_type,omitempty"`
	Angle         *float64 `json:"angle,omitempty"`
}

// Grating holds the spectrometer grating
type Grating struct {
	GrooveDensity *float64 `json:"groove_density,omitempty"`
}

// Spectrometer holds spectrometer settings
type Spectrometer struct {
	CentralWavelength *float64  `json:"central_wavelength,omitempty"`
	Model             string    `json:"model,omitempty"`
	Grating           Grating   `json:"Grating"`
	EntranceSlitWidth *float64  `json:"entrance_slit_width,omitempty"`
	Pinhole           *float64  `json:"pinhole,omitempty"`
	SpectralRange     string    `json:"spectral_range,omitempty"`
	Polarizer         Polarizer `json:"Polarizer"`
}

// Detector holds detector settings
type Detector struct {
	Model            string             `json:"model,omitempty"`
	DelayTime        *float64           `json:"delay_time,omitempty"`
	Binning          *float64           `json:"binning,omitempty"`
	Temperature      *float64           `json:"temperature,omitempty"`
	ExposurePerFrame *float64           `json:"exposure_per_frame,omitempty"`
	Frames           *float64           `json:"frames,omitempty"`
	IntegrationTime  *float64           `json:"integration_time,omitempty"`
	Processing       DetectorProcessing `json:"processing"`
}

// DetectorProcessing holds the on/off processing switches reported by the instrument
type DetectorProcessing struct {
	Autofocus      string `json:"autofocus,omitempty"`
	Swift          string `json:"swift,omitempty"`
	AutoExposure   string `json:"auto_exposure,omitempty"`
	SpikeFilter    string `json:"spike_filter,omitempty"`
	DeNoise        string `json:"de_noise,omitempty"`
	ICSCorrection  string `json:"ics_correction,omitempty"`
	DarkCorrection string `json:"dark_correction,omitempty"`
	InstProcess    string `json:"inst_process,omitempty"`
}
