// Package lsx reads the XML files LabSpec writes for Jobin-Yvon (HORIBA)
// spectrometers: single spectra, line scans and maps.
//
// A file holds one LSX_Tree with metadata and axes and one LSX_Matrix with
// one LSX_Row of intensities per spectrum, in lexicographic order.
package lsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/spectra/internal/axis"
	"github.com/RMahshie/spectra/pkg/models"
)

var (
	// ErrInvalidDocument is returned when the XML does not have the LabSpec layout
	ErrInvalidDocument = errors.New("not a valid Jobin-Yvon xml file")
	// ErrShapeMismatch is returned when the data rows do not match the axes
	ErrShapeMismatch = errors.New("data does not match axes")
)

// Options controls how a file is loaded
type Options struct {
	// UseUniformSignalAxis stores the signal axis as offset/scale/size instead of explicit values
	UseUniformSignalAxis bool
	Tolerance            axis.Tolerance
}

// DefaultOptions returns the documented loading defaults
func DefaultOptions() Options {
	return Options{UseUniformSignalAxis: true, Tolerance: axis.DefaultTolerance}
}

// Read loads a LabSpec XML document. filename is only used for metadata.
func Read(r io.Reader, filename string, opts Options) (*models.Signal, error) {
	doc, err := decode(r)
	if err != nil {
		return nil, err
	}

	rd := &reader{opts: opts, filename: filename}
	if err := rd.parseFile(doc); err != nil {
		return nil, err
	}
	rd.readOriginalMetadata()
	if err := rd.readAxes(); err != nil {
		return nil, err
	}
	if err := rd.readData(); err != nil {
		return nil, err
	}

	return &models.Signal{
		Data:             rd.data,
		Shape:            rd.shape,
		Axes:             rd.sortedAxes(),
		Metadata:         rd.mapMetadata(),
		OriginalMetadata: rd.original,
		Warnings:         rd.warnings,
	}, nil
}

type reader struct {
	opts     Options
	filename string

	tree   *node
	matrix *matrix

	metadataHead    *node
	navTree         *node
	title           string
	measurementType string

	original models.OriginalMetadata

	signalAxis *models.Axis
	nav1       *models.Axis
	nav2       *models.Axis
	warnings   []models.AxisWarning

	data  []float64
	shape []int
}

// parseFile locates the tree, the matrix and the top-level entries
func (rd *reader) parseFile(doc *document) error {
	if len(doc.Trees) != 1 {
		return fmt.Errorf("%w: expected 1 LSX_Tree, found %d", ErrInvalidDocument, len(doc.Trees))
	}
	if len(doc.Matrices) != 1 {
		return fmt.Errorf("%w: expected 1 LSX_Matrix, found %d", ErrInvalidDocument, len(doc.Matrices))
	}
	rd.tree = &doc.Trees[0]
	rd.matrix = &doc.Matrices[0]

	for i := range rd.tree.Children {
		child := &rd.tree.Children[i]
		switch child.ID {
		case idMetadataHead:
			rd.metadataHead = child
		case idTitle:
			rd.title = child.value()
		case idName:
			rd.measurementType = child.value()
		case idAxesContainer:
			if nav := child.child(idNavTree); nav != nil {
				rd.navTree = nav
			}
		}
	}

	if rd.metadataHead == nil {
		return fmt.Errorf("%w: metadata element %s missing", ErrInvalidDocument, idMetadataHead)
	}
	if rd.navTree == nil {
		return fmt.Errorf("%w: axes element %s missing", ErrInvalidDocument, idNavTree)
	}
	return nil
}

// readAxes extracts the intensity description, the signal axis and up to two navigation axes
func (rd *reader) readAxes() error {
	for i := range rd.navTree.Children {
		child := &rd.navTree.Children[i]
		switch child.ID {
		case idIntensity:
			rd.readIntensity(child)
		case idSignalAxis:
			a, err := rd.readSignalAxis(child)
			if err != nil {
				return err
			}
			rd.signalAxis = a
		case idNavigationAxis1:
			a, err := rd.readNavigationAxis(child, "nav1")
			if err != nil {
				return err
			}
			rd.nav1 = a
		case idNavigationAxis2:
			a, err := rd.readNavigationAxis(child, "nav2")
			if err != nil {
				return err
			}
			rd.nav2 = a
		}
	}

	if rd.signalAxis == nil {
		return fmt.Errorf("%w: signal axis missing", ErrInvalidDocument)
	}
	return nil
}

// readIntensity stores the intensity type and units; per-row minima/maxima are ignored
func (rd *reader) readIntensity(n *node) {
	setup := rd.original[sectionSetup]
	if name := n.child(idName); name != nil {
		setup["signal type"] = name.value()
	}
	if units := n.child(idUnits); units != nil {
		setup["signal units"] = units.value()
	}
}

func (rd *reader) readSignalAxis(n *node) (*models.Axis, error) {
	a := &models.Axis{}
	var values []float64
	for i := range n.Children {
		child := &n.Children[i]
		switch child.ID {
		case idAxisValues:
			v, err := parseFloats(child.Text)
			if err != nil {
				return nil, fmt.Errorf("signal axis: %w", err)
			}
			values = v
		case idName:
			a.Name = child.value()
		case idUnits:
			a.Units = child.value()
		}
	}
	if values == nil {
		return nil, fmt.Errorf("%w: signal axis has no values", ErrInvalidDocument)
	}

	if a.Name == "Spectr" {
		switch {
		case strings.HasPrefix(a.Units, "1/"):
			a.Name = "Wavenumber"
			a.Units = truncate(a.Units, 4)
		case a.Units == "nm":
			a.Name = "Wavelength"
		case a.Units == "eV":
			a.Name = "Energy"
		default:
			log.Warn().Str("units", a.Units).Msg("Cannot extract type of signal axis, using Wavelength as name (nm, eV and 1/cm can be read)")
			a.Name = "Wavelength"
		}
	}

	res, err := axis.Uniformize(values, axis.Options{
		Name:       a.Name,
		UseUniform: rd.opts.UseUniformSignalAxis,
		Tolerance:  rd.opts.Tolerance,
	})
	if err != nil {
		return nil, err
	}
	res.Apply(a)
	rd.addWarning(res.Warning)
	return a, nil
}

// readNavigationAxis returns nil when the axis has fewer than two positions
func (rd *reader) readNavigationAxis(n *node, tag string) (*models.Axis, error) {
	a := &models.Axis{Navigate: true}
	var values []float64
	for i := range n.Children {
		child := &n.Children[i]
		switch child.ID {
		case idName:
			a.Name = child.value()
		case idUnits:
			a.Units = child.value()
		case idAxisValues:
			v, err := parseFloats(child.Text)
			if err != nil {
				return nil, fmt.Errorf("%s axis: %w", tag, err)
			}
			values = v
		}
	}
	if len(values) < 2 {
		return nil, nil
	}

	name := a.Name
	if name == "" {
		name = tag
	}
	res, err := axis.Navigation(values, axis.Options{
		Name:       name,
		UseUniform: rd.opts.UseUniformSignalAxis,
		Tolerance:  rd.opts.Tolerance,
	})
	if err != nil {
		return nil, err
	}
	res.Apply(a)
	rd.addWarning(res.Warning)
	return a, nil
}

func (rd *reader) addWarning(w *models.AxisWarning) {
	if w != nil {
		rd.warnings = append(rd.warnings, *w)
	}
}

// sortedAxes orders axes as (nav2, nav1, signal); the signal axis is always last
func (rd *reader) sortedAxes() []models.Axis {
	var axes []models.Axis
	if rd.nav2 != nil {
		axes = append(axes, *rd.nav2)
	}
	if rd.nav1 != nil {
		axes = append(axes, *rd.nav1)
	}
	axes = append(axes, *rd.signalAxis)
	for i := range axes {
		axes[i].IndexInArray = i
	}
	return axes
}

// readData reads the rows and reshapes them from lexicographic order to the axes
func (rd *reader) readData() error {
	rows := rd.matrix.Rows
	if len(rows) == 0 {
		return fmt.Errorf("%w: LSX_Matrix has no rows", ErrInvalidDocument)
	}

	if len(rows) == 1 {
		values, err := parseFloats(rows[0].Text)
		if err != nil {
			return fmt.Errorf("row 0: %w", err)
		}
		if rd.nav1 != nil || rd.nav2 != nil {
			return fmt.Errorf("%w: one row but navigation axes present", ErrShapeMismatch)
		}
		rd.data = values
		rd.shape = []int{len(values)}
		return rd.checkSignalSize(len(values))
	}

	first, err := parseFloats(rows[0].Text)
	if err != nil {
		return fmt.Errorf("row 0: %w", err)
	}
	cols, err := rowSize(rows[0], len(first))
	if err != nil {
		return err
	}

	data := make([]float64, 0, len(rows)*cols)
	data = append(data, first...)
	for i := 1; i < len(rows); i++ {
		values, err := parseFloats(rows[i].Text)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if len(values) != cols {
			return fmt.Errorf("%w: row %d has %d values, expected %d", ErrShapeMismatch, i, len(values), cols)
		}
		data = append(data, values...)
	}

	var shape []int
	switch {
	case rd.nav2 != nil && rd.nav1 != nil:
		shape = []int{rd.nav2.Size, rd.nav1.Size, cols}
	case rd.nav2 != nil:
		shape = []int{rd.nav2.Size, cols}
	case rd.nav1 != nil:
		shape = []int{rd.nav1.Size, cols}
	default:
		return fmt.Errorf("%w: %d rows but no navigation axes", ErrShapeMismatch, len(rows))
	}

	if got := product(shape[:len(shape)-1]); got != len(rows) {
		return fmt.Errorf("%w: navigation axes describe %d spectra, file has %d rows", ErrShapeMismatch, got, len(rows))
	}

	rd.data = data
	rd.shape = shape
	return rd.checkSignalSize(cols)
}

func (rd *reader) checkSignalSize(cols int) error {
	if rd.signalAxis.Size != cols {
		return fmt.Errorf("%w: signal axis has %d points, rows have %d", ErrShapeMismatch, rd.signalAxis.Size, cols)
	}
	return nil
}

// rowSize checks the declared row length against the parsed value count
func rowSize(r row, parsed int) (int, error) {
	if parsed < 1 {
		return 0, fmt.Errorf("%w: row 0 is empty", ErrInvalidDocument)
	}
	s := strings.TrimSpace(r.Size)
	if s == "" {
		return parsed, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid row size %q", ErrInvalidDocument, s)
	}
	if n != parsed {
		return 0, fmt.Errorf("%w: row 0 declares %d values, has %d", ErrShapeMismatch, n, parsed)
	}
	return n, nil
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
