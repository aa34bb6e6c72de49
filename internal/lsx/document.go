package lsx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Element IDs used by LabSpec in the LSX tree
const (
	idMetadataHead    = "0x6C62D4D9"
	idTitle           = "0x6C7469D9"
	idName            = "0x6D707974" // measurement type at top level, axis name inside axes
	idAxesContainer   = "0x7A74D9D6"
	idNavTree         = "0x7B697861"
	idDate            = "0x7CECDBD7"
	idSetup           = "0x8716361"
	idFileInfo        = "0x7C73E2D2"
	idEntryKey        = "0x6D6D616E"
	idEntryFirst      = "0x7D6C61DB"
	idEntrySecond     = "0x8736F70"
	idUnits           = "0x7C696E75"
	idAxisValues      = "0x7D6CD4DB"
	idIntensity       = "0x0"
	idSignalAxis      = "0x1"
	idNavigationAxis1 = "0x2"
	idNavigationAxis2 = "0x3"
)

// document is the root of a LabSpec XML export
type document struct {
	XMLName  xml.Name
	Trees    []node   `xml:"LSX_Tree"`
	Matrices []matrix `xml:"LSX_Matrix"`
}

// node is any element of the LSX tree; leaves carry their value as text
type node struct {
	XMLName  xml.Name
	Format   string `xml:"Format,attr"`
	ID       string `xml:"ID,attr"`
	Size     string `xml:"Size,attr"`
	Text     string `xml:",chardata"`
	Children []node `xml:",any"`
}

type matrix struct {
	Rows []row `xml:"LSX_Row"`
}

type row struct {
	Size string `xml:"Size,attr"`
	Text string `xml:",chardata"`
}

// value returns the trimmed text content of a leaf
func (n *node) value() string {
	return strings.TrimSpace(n.Text)
}

// child returns the first direct child with the given ID
func (n *node) child(id string) *node {
	for i := range n.Children {
		if n.Children[i].ID == id {
			return &n.Children[i]
		}
	}
	return nil
}

func decode(r io.Reader) (*document, error) {
	var doc document
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode xml: %w", err)
	}
	return &doc, nil
}

// charsetReader handles the single-byte encodings LabSpec declares in its xml header
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

// parseFloats parses a whitespace separated list of numbers
func parseFloats(text string) ([]float64, error) {
	fields := strings.Fields(text)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d: %w", f, i, err)
		}
		out[i] = v
	}
	return out, nil
}
