// Package loader dispatches files to format readers.
//
// A file is read by the format named in Options.Reader or, without one, by the
// single format claiming its extension. Extensions shared by several formats
// require the reader to be named.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/spectra/internal/signaltype"
	"github.com/RMahshie/spectra/pkg/models"
)

var (
	ErrAmbiguousFormat   = errors.New("file extension is shared by several formats, select a reader explicitly")
	ErrUnknownReader     = errors.New("unknown reader")
	ErrUnsupportedFormat = errors.New("no reader supports this file extension")
	ErrDuplicateFormat   = errors.New("format already registered")
)

// ReadFunc reads one file into a signal
type ReadFunc func(r io.Reader, filename string, opts Options) (*models.Signal, error)

// Descriptor describes how a format is selected
type Descriptor struct {
	Name       string
	Aliases    []string
	Extensions []string
	// ExplicitOnly formats are never picked from the extension alone
	ExplicitOnly bool
}

type Format struct {
	Descriptor
	Read ReadFunc
}

// Registry holds the known formats
type Registry struct {
	formats  []Format
	resolver signaltype.Resolver
}

// NewRegistry creates an empty registry. resolver may be nil, in which case
// signals keep the type their reader gave them.
func NewRegistry(resolver signaltype.Resolver) *Registry {
	return &Registry{resolver: resolver}
}

// NewDefaultRegistry creates a registry with every built-in format
func NewDefaultRegistry(resolver signaltype.Resolver) *Registry {
	r := NewRegistry(resolver)
	if err := r.Register(JobinYvon()); err != nil {
		panic(err)
	}
	return r
}

// Register adds a format; names and aliases must be unique
func (r *Registry) Register(f Format) error {
	if f.Read == nil {
		return fmt.Errorf("format %q has no read function", f.Name)
	}
	for _, name := range append([]string{f.Name}, f.Aliases...) {
		if existing, ok := r.byName(name); ok {
			return fmt.Errorf("%w: %q (registered by %s)", ErrDuplicateFormat, name, existing.Name)
		}
	}
	r.formats = append(r.formats, f)
	return nil
}

// Formats returns the registered format descriptors
func (r *Registry) Formats() []Descriptor {
	out := make([]Descriptor, len(r.formats))
	for i, f := range r.formats {
		out[i] = f.Descriptor
	}
	return out
}

// Select picks the format for filename. An explicit reader always wins.
func (r *Registry) Select(filename, reader string) (Format, error) {
	if strings.TrimSpace(reader) != "" {
		f, ok := r.byName(reader)
		if !ok {
			return Format{}, fmt.Errorf("%w: %q", ErrUnknownReader, reader)
		}
		return f, nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	var matches []Format
	for _, f := range r.formats {
		for _, e := range f.Extensions {
			if strings.EqualFold(e, ext) {
				matches = append(matches, f)
				break
			}
		}
	}

	switch {
	case len(matches) == 0:
		return Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	case len(matches) > 1 || matches[0].ExplicitOnly:
		return Format{}, fmt.Errorf("%w: %q", ErrAmbiguousFormat, filename)
	}
	return matches[0], nil
}

// Load reads the file at path
func (r *Registry) Load(path string, opts Options) (*models.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return r.LoadReader(f, filepath.Base(path), opts)
}

// LoadBytes reads an in-memory file; name supplies the extension and original filename
func (r *Registry) LoadBytes(name string, data []byte, opts Options) (*models.Signal, error) {
	return r.LoadReader(bytes.NewReader(data), name, opts)
}

// LoadReader reads a file from rd
func (r *Registry) LoadReader(rd io.Reader, filename string, opts Options) (*models.Signal, error) {
	format, err := r.Select(filename, opts.Reader)
	if err != nil {
		return nil, err
	}

	sig, err := format.Read(rd, filename, opts)
	if err != nil {
		return nil, fmt.Errorf("%s reader: %w", format.Name, err)
	}
	if r.resolver != nil {
		sig.SignalType = r.resolver.Resolve(sig)
	}
	sig.Metadata.Signal.SignalType = sig.SignalType

	log.Debug().
		Str("file", filename).
		Str("reader", format.Name).
		Ints("shape", sig.Shape).
		Int("warnings", len(sig.Warnings)).
		Msg("Loaded signal")
	return sig, nil
}

func (r *Registry) byName(name string) (Format, bool) {
	key := normalize(name)
	for _, f := range r.formats {
		if normalize(f.Name) == key {
			return f, true
		}
		for _, alias := range f.Aliases {
			if normalize(alias) == key {
				return f, true
			}
		}
	}
	return Format{}, false
}

// normalize makes reader names case, space and underscore insensitive
func normalize(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}
