package loader

import (
	"io"

	"github.com/RMahshie/spectra/internal/lsx"
	"github.com/RMahshie/spectra/pkg/models"
)

// JobinYvonName is the canonical reader name for LabSpec XML files
const JobinYvonName = "JobinYvon"

// JobinYvon describes the LabSpec XML format. Other formats also write .xml
// so the reader has to be selected explicitly.
func JobinYvon() Format {
	return Format{
		Descriptor: Descriptor{
			Name:         JobinYvonName,
			Aliases:      []string{"Jobin Yvon", "jobin_yvon", "horiba", "labspec"},
			Extensions:   []string{"xml"},
			ExplicitOnly: true,
		},
		Read: func(r io.Reader, filename string, opts Options) (*models.Signal, error) {
			return lsx.Read(r, filename, opts.lsx())
		},
	}
}
