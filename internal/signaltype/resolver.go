// Package signaltype decides which signal type a loaded spectrum gets.
//
// Optional analysis extensions are declared once at startup as capabilities.
// Readers stay neutral and the resolver labels their output.
package signaltype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/spectra/pkg/models"
)

// Capability names an optional extension available to the process
type Capability string

const (
	// Luminescence enables the luminescence signal type
	Luminescence Capability = "luminescence"
)

// Signal types
const (
	TypeGeneric      = ""
	TypeLuminescence = "Luminescence"
)

var ErrUnknownCapability = errors.New("unknown capability")

var known = map[Capability]bool{
	Luminescence: true,
}

// Resolver assigns a signal type to a loaded signal
type Resolver interface {
	Resolve(sig *models.Signal) string
}

// CapabilityResolver resolves signal types from the capabilities declared at startup
type CapabilityResolver struct {
	caps map[Capability]bool
}

// NewResolver builds a resolver. A missing luminescence capability is logged
// once since every spectrum will then load as a generic signal.
func NewResolver(caps ...Capability) *CapabilityResolver {
	r := &CapabilityResolver{caps: make(map[Capability]bool, len(caps))}
	for _, c := range caps {
		r.caps[c] = true
	}
	if !r.Has(Luminescence) {
		log.Warn().Msg("Luminescence capability not enabled, spectra load as generic signals")
	}
	return r
}

func (r *CapabilityResolver) Has(c Capability) bool {
	return r.caps[c]
}

func (r *CapabilityResolver) Resolve(_ *models.Signal) string {
	if r.Has(Luminescence) {
		return TypeLuminescence
	}
	return TypeGeneric
}

// ParseCapabilities reads a comma separated capability list such as "luminescence"
func ParseCapabilities(s string) ([]Capability, error) {
	var caps []Capability
	for _, field := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(field))
		if name == "" {
			continue
		}
		c := Capability(name)
		if !known[c] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
		}
		caps = append(caps, c)
	}
	return caps, nil
}
