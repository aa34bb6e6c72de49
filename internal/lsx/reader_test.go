package lsx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/spectra/pkg/models"
)

var wavelengths = []float64{
	537.361, 536.918, 536.474, 536.031, 535.586, 535.142, 534.697,
	534.252, 533.807, 533.361, 532.915, 532.468, 532.022, 531.575,
	531.128, 530.68, 530.232, 529.784, 529.336, 528.887, 528.438,
	527.988, 527.539, 527.089, 526.639, 526.188, 525.737, 525.286,
	524.835, 524.383, 523.931, 523.479, 523.027, 522.574,
}

var specData = []float64{
	1496, 1242, 1094, 986, 948, 900, 858, 855, 840, 822, 824, 820, 810, 809, 791,
	781, 771, 782, 795, 790, 777, 771, 769, 767, 756, 755, 759, 740, 743, 763,
	759, 727, 764, 760,
}

func loadFixture(t *testing.T, name string, useUniform bool) *models.Signal {
	t.Helper()
	log.Logger = zerolog.Nop()

	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	opts := DefaultOptions()
	opts.UseUniformSignalAxis = useUniform
	sig, err := Read(f, name, opts)
	require.NoError(t, err)
	return sig
}

func TestReadSpectrum_Data(t *testing.T) {
	uniform := loadFixture(t, "jobinyvon_test_spec.xml", true)
	nonUniform := loadFixture(t, "jobinyvon_test_spec.xml", false)

	assert.Equal(t, []int{34}, uniform.Shape)
	assert.Equal(t, specData, uniform.Data)
	assert.Equal(t, uniform.Data, nonUniform.Data)
}

func TestReadSpectrum_Axes(t *testing.T) {
	uniform := loadFixture(t, "jobinyvon_test_spec.xml", true)
	require.Len(t, uniform.Axes, 1)

	a := uniform.Axes[0]
	assert.Equal(t, "Wavelength", a.Name)
	assert.Equal(t, "nm", a.Units)
	assert.False(t, a.Navigate)
	assert.Equal(t, 0, a.IndexInArray)
	assert.Equal(t, models.AxisUniform, a.Kind)
	assert.Equal(t, 537.361, a.Offset)
	assert.InDelta(t, -0.443, a.Scale, 1e-9)
	assert.Equal(t, 34, a.Size)
	assert.Nil(t, a.Values)

	// first step -0.443, last step -0.453
	require.Len(t, uniform.Warnings, 1)
	assert.Equal(t, "Wavelength", uniform.Warnings[0].Axis)

	nonUniform := loadFixture(t, "jobinyvon_test_spec.xml", false)
	require.Len(t, nonUniform.Axes, 1)
	b := nonUniform.Axes[0]
	assert.Equal(t, models.AxisData, b.Kind)
	assert.Equal(t, wavelengths, b.Values)
	assert.Equal(t, 34, b.Size)
	assert.Empty(t, nonUniform.Warnings)
}

func TestReadSpectrum_OriginalMetadata(t *testing.T) {
	want := models.OriginalMetadata{
		"date": {
			"Acquired": "27.06.2022 16:26:24",
		},
		"experimental setup": {
			"Acq. time (s)":             1.0,
			"Accumulations":             2.0,
			"Range":                     "Visible",
			"Autofocus":                 "Off",
			"AutoExposure":              "Off",
			"Spike filter":              "Multiple accum.",
			"Delay time (s)":            0.0,
			"Binning":                   30.0,
			"Readout mode":              "Signal",
			"DeNoise":                   "Off",
			"ICS correction":            "Off",
			"Dark correction":           "Off",
			"Inst. Process":             "Off",
			"Detector temperature (°C)": -118.94,
			"Instrument":                "LabRAM HR Evol",
			"Detector":                  "Symphony VIS",
			"Objective":                 100.0,
			"Grating (gr/mm)":           1800.0,
			"ND Filter (%)":             10.0,
			"Laser (nm)":                632.817,
			"Spectro (nm)":              530.0006245,
			"Hole":                      100.02125,
			"Laser Pol. (°)":            0.0,
			"Raman Pol. (°)":            0.0,
			"StageXY":                   "Marzhauser",
			"StageZ":                    "Marzhauser",
			"X (µm)":                    0.0,
			"Y (µm)":                    0.0,
			"Z (µm)":                    0.0,
			"Full time(s)":              3.0,
			"measurement_type":          "Spectrum",
			"title":                     "jobinyvon_test_spec",
			"signal type":               "Intens",
			"signal units":              "Cnt/sec",
		},
		"file information": {
			"Project": "A",
			"Sample":  "test",
			"Site":    "C",
			"Title":   "ev21738_1",
			"Remark":  "PL",
			"Date":    "27.06.2022 16:26",
		},
	}

	for _, useUniform := range []bool{true, false} {
		sig := loadFixture(t, "jobinyvon_test_spec.xml", useUniform)
		if diff := cmp.Diff(want, sig.OriginalMetadata); diff != "" {
			t.Errorf("original metadata mismatch (uniform=%v) (-want +got):\n%s", useUniform, diff)
		}
	}
}

func TestReadSpectrum_Metadata(t *testing.T) {
	sig := loadFixture(t, "jobinyvon_test_spec.xml", true)
	md := sig.Metadata

	assert.Equal(t, "jobinyvon_test_spec", md.General.Title)
	assert.Equal(t, "jobinyvon_test_spec.xml", md.General.OriginalFilename)
	assert.Equal(t, "PL", md.General.Notes)
	assert.Equal(t, "27.06.2022", md.General.Date)
	assert.Equal(t, "16:26:24", md.General.Time)
	assert.Equal(t, "spectrum", md.Signal.RecordBy)
	assert.Equal(t, "Intensity (Counts/s)", md.Signal.Quantity)
	assert.Equal(t, "test", md.Sample.Description)

	det := md.AcquisitionInstrument.Detector
	assert.Equal(t, "Symphony VIS", det.Model)
	assert.InDelta(t, 30, *det.Binning, 1e-12)
	assert.InDelta(t, 1, *det.ExposurePerFrame, 1e-12)
	assert.InDelta(t, 2, *det.Frames, 1e-12)
	assert.InDelta(t, 2, *det.IntegrationTime, 1e-12)
	assert.InDelta(t, -118.94, *det.Temperature, 1e-12)
	assert.InDelta(t, 0, *det.DelayTime, 1e-12)
	assert.Equal(t, models.DetectorProcessing{
		Autofocus:      "Off",
		AutoExposure:   "Off",
		SpikeFilter:    "Multiple accum.",
		DeNoise:        "Off",
		ICSCorrection:  "Off",
		DarkCorrection: "Off",
		InstProcess:    "Off",
	}, det.Processing)

	laser := md.AcquisitionInstrument.Laser
	assert.InDelta(t, 632.817, *laser.Wavelength, 1e-12)
	assert.InDelta(t, 100, *laser.ObjectiveMagnification, 1e-12)
	assert.InDelta(t, 0.1, *laser.Filter.OpticalDensity, 1e-12)
	assert.InDelta(t, 0, *laser.Polarizer.Angle, 1e-12)

	spec := md.AcquisitionInstrument.Spectrometer
	assert.Equal(t, "LabRAM HR Evol", spec.Model)
	assert.Equal(t, "Visible", spec.SpectralRange)
	assert.InDelta(t, 1800, *spec.Grating.GrooveDensity, 1e-12)
	assert.InDelta(t, 530.0006245, *spec.CentralWavelength, 1e-12)
	assert.InDelta(t, 1.0002125, *spec.EntranceSlitWidth, 1e-12)
	assert.InDelta(t, 1.0002125, *spec.Pinhole, 1e-12)

	nonUniform := loadFixture(t, "jobinyvon_test_spec.xml", false)
	if diff := cmp.Diff(md, nonUniform.Metadata); diff != "" {
		t.Errorf("metadata depends on axis option (-uniform +non-uniform):\n%s", diff)
	}
}

func TestReadLinescan(t *testing.T) {
	sig := loadFixture(t, "jobinyvon_test_linescan.xml", true)

	assert.Equal(t, []int{3, 34}, sig.Shape)
	require.Len(t, sig.Axes, 2)
	assert.Equal(t, models.Axis{
		Name: "Y", Units: "µm", Navigate: true, IndexInArray: 0,
		Kind: models.AxisUniform, Offset: 0, Scale: 0.5, Size: 3,
	}, sig.Axes[0])
	assert.Equal(t, "Wavelength", sig.Axes[1].Name)
	assert.Equal(t, 1, sig.Axes[1].IndexInArray)
	assert.Equal(t, "image", sig.Metadata.Signal.RecordBy)

	row2, ok := sig.Spectrum(2)
	require.True(t, ok)
	assert.Equal(t, []float64{1546, 1292, 1124, 1020, 950, 901, 890, 865, 865, 847, 837, 824, 827, 808, 818,
		809, 810, 814, 798, 784, 790, 785, 771, 790, 786, 786, 773, 771, 772, 768,
		782, 762, 757, 781}, row2)

	nonUniform := loadFixture(t, "jobinyvon_test_linescan.xml", false)
	assert.Equal(t, sig.Data, nonUniform.Data)
	assert.Equal(t, sig.Axes[0], nonUniform.Axes[0], "navigation axes stay uniform")
	assert.Equal(t, models.AxisData, nonUniform.Axes[1].Kind)
	assert.Equal(t, wavelengths, nonUniform.Axes[1].Values)
}

func TestReadLinescan_NegativeRowSize(t *testing.T) {
	log.Logger = zerolog.Nop()
	raw, err := os.ReadFile(filepath.Join("testdata", "jobinyvon_test_linescan.xml"))
	require.NoError(t, err)
	doc := strings.Replace(string(raw), `<LSX_Row Size="34">`, `<LSX_Row Size="-1">`, 1)

	require.NotPanics(t, func() {
		_, err = Read(strings.NewReader(doc), "linescan.xml", DefaultOptions())
	})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestReadMap(t *testing.T) {
	sig := loadFixture(t, "jobinyvon_test_map.xml", true)

	assert.Equal(t, []int{3, 3, 34}, sig.Shape)
	assert.Len(t, sig.Data, 9*34)
	require.Len(t, sig.Axes, 3)
	assert.Equal(t, "Y", sig.Axes[0].Name)
	assert.Equal(t, "X", sig.Axes[1].Name)
	assert.Equal(t, "Wavelength", sig.Axes[2].Name)
	for i, a := range sig.Axes {
		assert.Equal(t, i, a.IndexInArray)
	}
	assert.Equal(t, 9, sig.NavigationSize())

	// rows are stored lexicographically: row 3 is (y=1, x=0)
	row3 := []float64{1655, 1380, 1194, 1090, 1019, 982, 948, 932, 911, 900, 883, 878, 851, 866, 852,
		875, 860, 849, 858, 829, 840, 856, 861, 844, 838, 794, 797, 771, 791, 783,
		788, 795, 777, 775}
	assert.Equal(t, row3, sig.Data[(1*3+0)*34:(1*3+1)*34])

	last, ok := sig.Spectrum(8)
	require.True(t, ok)
	assert.Equal(t, 1629.0, last[0])
	_, ok = sig.Spectrum(9)
	assert.False(t, ok)
}

// minimalDoc builds a small LabSpec document for error cases
func minimalDoc(signalAxis, extraAxes, rows string) string {
	return fmt.Sprintf(`<LSX_Data>
<LSX_Tree>
<LSX ID="0x6C7469D9">t</LSX>
<LSX ID="0x6D707974">Spectrum</LSX>
<LSX ID="0x6C62D4D9"></LSX>
<LSX ID="0x7A74D9D6"><LSX ID="0x7B697861">%s%s</LSX></LSX>
</LSX_Tree>
<LSX_Matrix>%s</LSX_Matrix>
</LSX_Data>`, signalAxis, extraAxes, rows)
}

func signalAxisXML(name, units, values string) string {
	return fmt.Sprintf(`<LSX ID="0x1"><LSX ID="0x6D707974">%s</LSX><LSX ID="0x7C696E75">%s</LSX><LSX ID="0x7D6CD4DB">%s</LSX></LSX>`, name, units, values)
}

func navAxisXML(id, name, values string) string {
	return fmt.Sprintf(`<LSX ID="%s"><LSX ID="0x6D707974">%s</LSX><LSX ID="0x7C696E75">um</LSX><LSX ID="0x7D6CD4DB">%s</LSX></LSX>`, id, name, values)
}

func TestRead_SignalAxisNames(t *testing.T) {
	log.Logger = zerolog.Nop()
	tests := []struct {
		units     string
		wantName  string
		wantUnits string
	}{
		{units: "nm", wantName: "Wavelength", wantUnits: "nm"},
		{units: "eV", wantName: "Energy", wantUnits: "eV"},
		{units: "1/cm", wantName: "Wavenumber", wantUnits: "1/cm"},
		{units: "1/cm (rel)", wantName: "Wavenumber", wantUnits: "1/cm"},
		{units: "Hz", wantName: "Wavelength", wantUnits: "Hz"},
	}

	for _, tt := range tests {
		t.Run(tt.units, func(t *testing.T) {
			doc := minimalDoc(signalAxisXML("Spectr", tt.units, "1 2 3"), "", `<LSX_Row Size="3">5 6 7</LSX_Row>`)
			sig, err := Read(strings.NewReader(doc), "a.xml", DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, sig.Axes[0].Name)
			assert.Equal(t, tt.wantUnits, sig.Axes[0].Units)
		})
	}
}

func TestRead_Errors(t *testing.T) {
	log.Logger = zerolog.Nop()
	okAxis := signalAxisXML("Spectr", "nm", "1 2 3")

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "no tree",
			doc:     `<LSX_Data><LSX_Matrix></LSX_Matrix></LSX_Data>`,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "no rows",
			doc:     minimalDoc(okAxis, "", ""),
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "missing signal axis",
			doc:     minimalDoc("", "", `<LSX_Row Size="3">1 2 3</LSX_Row>`),
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "signal axis and row disagree",
			doc:     minimalDoc(okAxis, "", `<LSX_Row Size="4">1 2 3 4</LSX_Row>`),
			wantErr: ErrShapeMismatch,
		},
		{
			name:    "ragged rows",
			doc:     minimalDoc(okAxis, navAxisXML("0x2", "X", "0 1"), `<LSX_Row Size="3">1 2 3</LSX_Row><LSX_Row Size="3">1 2</LSX_Row>`),
			wantErr: ErrShapeMismatch,
		},
		{
			name:    "rows without navigation axes",
			doc:     minimalDoc(okAxis, "", `<LSX_Row Size="3">1 2 3</LSX_Row><LSX_Row Size="3">1 2 3</LSX_Row>`),
			wantErr: ErrShapeMismatch,
		},
		{
			name:    "negative row size",
			doc:     minimalDoc(okAxis, navAxisXML("0x2", "X", "0 1"), `<LSX_Row Size="-1">1 2 3</LSX_Row><LSX_Row Size="3">1 2 3</LSX_Row>`),
			wantErr: ErrShapeMismatch,
		},
		{
			name:    "row size larger than row",
			doc:     minimalDoc(okAxis, navAxisXML("0x2", "X", "0 1"), `<LSX_Row Size="999999999999">1 2 3</LSX_Row><LSX_Row Size="3">1 2 3</LSX_Row>`),
			wantErr: ErrShapeMismatch,
		},
		{
			name:    "empty first row",
			doc:     minimalDoc(okAxis, navAxisXML("0x2", "X", "0 1"), `<LSX_Row Size="0"></LSX_Row><LSX_Row Size="3">1 2 3</LSX_Row>`),
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "navigation axes do not cover rows",
			doc:     minimalDoc(okAxis, navAxisXML("0x2", "X", "0 1 2"), `<LSX_Row Size="3">1 2 3</LSX_Row><LSX_Row Size="3">1 2 3</LSX_Row>`),
			wantErr: ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = Read(strings.NewReader(tt.doc), "bad.xml", DefaultOptions())
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRead_SinglePointSignalAxis(t *testing.T) {
	doc := minimalDoc(signalAxisXML("Spectr", "nm", "500"), "", `<LSX_Row Size="1">5</LSX_Row>`)
	for _, useUniform := range []bool{true, false} {
		opts := DefaultOptions()
		opts.UseUniformSignalAxis = useUniform
		_, err := Read(strings.NewReader(doc), "short.xml", opts)
		assert.Error(t, err)
	}
}

func TestRead_MalformedXML(t *testing.T) {
	_, err := Read(strings.NewReader("<LSX_Data><LSX_Tree>"), "broken.xml", DefaultOptions())
	assert.Error(t, err)
}
