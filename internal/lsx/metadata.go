package lsx

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/spectra/pkg/models"
)

// Original metadata sections
const (
	sectionDate     = "date"
	sectionSetup    = "experimental setup"
	sectionFileInfo = "file information"
)

// numericKeys are converted to float64 in the experimental setup section
var numericKeys = []string{
	"Acq. time (s)",
	"Accumulations",
	"Delay time (s)",
	"Binning",
	"Detector temperature (°C)",
	"Objective",
	"Grating",
	"ND Filter",
	"Laser (nm)",
	"Spectro (nm)",
	"Hole",
	"Laser Pol. (°)",
	"Raman Pol. (°)",
	"X (µm)",
	"Y (µm)",
	"Z (µm)",
	"Full time(s)",
}

// secondValueKeys take the second stored value (the precise one) instead of the display value
var secondValueKeys = map[string]bool{
	"Objective":    true,
	"Grating":      true,
	"ND Filter":    true,
	"Laser (nm)":   true,
	"Spectro (nm)": true,
}

// renamedKeys move units into the key name
var renamedKeys = map[string]string{
	"Grating":   "Grating (gr/mm)",
	"ND Filter": "ND Filter (%)",
}

// entry is one metadata line: a key with a display value and an optional precise value
type entry struct {
	key    string
	first  *string
	second *string
}

func readEntries(section *node) []entry {
	if section == nil {
		return nil
	}
	var entries []entry
	for i := range section.Children {
		var e entry
		for j := range section.Children[i].Children {
			leaf := &section.Children[i].Children[j]
			v := leaf.value()
			switch leaf.ID {
			case idEntryKey:
				e.key = v
			case idEntryFirst:
				e.first = &v
			case idEntrySecond:
				e.second = &v
			}
		}
		if e.key == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// pick returns the value that should be kept for an entry
func (e entry) pick(preferSecond bool) string {
	if preferSecond && e.second != nil {
		return *e.second
	}
	if e.first != nil {
		return *e.first
	}
	if e.second != nil {
		return *e.second
	}
	return ""
}

// readOriginalMetadata fills the date, experimental setup and file information sections
func (rd *reader) readOriginalMetadata() {
	var date, setup, fileInfo *node
	for i := range rd.metadataHead.Children {
		child := &rd.metadataHead.Children[i]
		switch child.ID {
		case idDate:
			date = child
		case idSetup:
			setup = child
		case idFileInfo:
			fileInfo = child
		}
	}

	rd.original = models.OriginalMetadata{
		sectionDate:     plainSection(readEntries(date)),
		sectionSetup:    setupSection(readEntries(setup)),
		sectionFileInfo: plainSection(readEntries(fileInfo)),
	}
	rd.original[sectionSetup]["measurement_type"] = rd.measurementType
	rd.original[sectionSetup]["title"] = rd.title
}

func plainSection(entries []entry) map[string]any {
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.key] = e.pick(false)
	}
	return out
}

func setupSection(entries []entry) map[string]any {
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.key] = e.pick(secondValueKeys[e.key])
	}

	for _, key := range numericKeys {
		raw, ok := out[key].(string)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			log.Warn().Str("key", key).Str("value", raw).Msg("Keeping non-numeric metadata value as text")
			continue
		}
		out[key] = v
	}

	for from, to := range renamedKeys {
		if v, ok := out[from]; ok {
			out[to] = v
			delete(out, from)
		}
	}
	return out
}

// recordBy maps the LabSpec measurement type
func (rd *reader) recordBy() string {
	switch rd.measurementType {
	case "Spectrum":
		return "spectrum"
	case "SpIm":
		return "image"
	}
	return ""
}

// mapMetadata translates original metadata into the standard metadata tree
func (rd *reader) mapMetadata() models.Metadata {
	var md models.Metadata
	setup := rd.original[sectionSetup]
	fileInfo := rd.original[sectionFileInfo]

	md.General.Title = rd.title
	md.General.OriginalFilename = rd.filename
	md.General.Notes = stringValue(fileInfo, "Remark")
	if acquired := stringValue(rd.original[sectionDate], "Acquired"); acquired != "" {
		if date, clock, ok := strings.Cut(acquired, " "); ok {
			md.General.Date = date
			md.General.Time = clock
		}
	}

	md.Signal.RecordBy = rd.recordBy()
	intensity, hasType := setup["signal type"].(string)
	units, hasUnits := setup["signal units"].(string)
	if hasType && hasUnits {
		if intensity == "Intens" {
			intensity = "Intensity"
		}
		if units == "Cnt/sec" {
			units = "Counts/s"
		}
		md.Signal.Quantity = intensity + " (" + units + ")"
	}

	md.Sample.Description = stringValue(fileInfo, "Sample")

	laser := &md.AcquisitionInstrument.Laser
	laser.Wavelength = floatValue(setup, "Laser (nm)")
	laser.ObjectiveMagnification = floatValue(setup, "Objective")
	if od := floatValue(setup, "ND Filter (%)"); od != nil {
		fraction := *od / 100
		laser.Filter.OpticalDensity = &fraction
	}
	laser.Polarizer.PolarizerType = stringValue(setup, "Laser. Pol.")
	laser.Polarizer.Angle = floatValue(setup, "Laser Pol. (°)")

	spectrometer := &md.AcquisitionInstrument.Spectrometer
	spectrometer.CentralWavelength = floatValue(setup, "Spectro (nm)")
	spectrometer.Model = stringValue(setup, "Instrument")
	spectrometer.Grating.GrooveDensity = floatValue(setup, "Grating (gr/mm)")
	if hole := floatValue(setup, "Hole"); hole != nil {
		width := *hole / 100
		pinhole := width
		spectrometer.EntranceSlitWidth = &width
		spectrometer.Pinhole = &pinhole
	}
	spectrometer.SpectralRange = stringValue(setup, "Range")
	spectrometer.Polarizer.PolarizerType = stringValue(setup, "Raman. Pol.")
	spectrometer.Polarizer.Angle = floatValue(setup, "Raman Pol. (°)")

	detector := &md.AcquisitionInstrument.Detector
	detector.Model = stringValue(setup, "Detector")
	detector.DelayTime = floatValue(setup, "Delay time (s)")
	detector.Binning = floatValue(setup, "Binning")
	detector.Temperature = floatValue(setup, "Detector temperature (°C)")
	detector.ExposurePerFrame = floatValue(setup, "Acq. time (s)")
	detector.Frames = floatValue(setup, "Accumulations")
	if detector.Frames != nil && detector.ExposurePerFrame != nil {
		total := *detector.Frames * *detector.ExposurePerFrame
		detector.IntegrationTime = &total
	}

	processing := &detector.Processing
	processing.Autofocus = stringValue(setup, "Autofocus")
	processing.Swift = stringValue(setup, "SWIFT")
	processing.AutoExposure = stringValue(setup, "AutoExposure")
	processing.SpikeFilter = stringValue(setup, "Spike filter")
	processing.DeNoise = stringValue(setup, "DeNoise")
	processing.ICSCorrection = stringValue(setup, "ICS correction")
	processing.DarkCorrection = stringValue(setup, "Dark correction")
	processing.InstProcess = stringValue(setup, "Inst. Process")

	return md
}

func stringValue(section map[string]any, key string) string {
	switch v := section[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return ""
}

func floatValue(section map[string]any, key string) *float64 {
	v, ok := section[key].(float64)
	if !ok {
		return nil
	}
	return &v
}
