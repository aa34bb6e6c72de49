// Command jyload reads a LabSpec file and prints the loaded signal as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/RMahshie/spectra/internal/loader"
	"github.com/RMahshie/spectra/internal/render"
	"github.com/RMahshie/spectra/internal/signaltype"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("jyload failed")
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("jyload", pflag.ContinueOnError)
	reader := flags.StringP("reader", "r", loader.JobinYvonName, "reader used to load the file")
	options := flags.StringToStringP("option", "o", nil, "reader option as key=value, e.g. use_uniform_signal_axis=false")
	plotPath := flags.String("plot", "", "write a PNG of one spectrum to this path")
	index := flags.Int("index", 0, "flattened navigation index of the spectrum to plot")
	capabilities := flags.String("capabilities", "", "comma separated capabilities, e.g. luminescence")
	quiet := flags.BoolP("quiet", "q", false, "only log errors")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "Usage: jyload FILE [flags]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("expected exactly one file, got %d", flags.NArg())
	}
	if *quiet {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}

	caps, err := signaltype.ParseCapabilities(*capabilities)
	if err != nil {
		return err
	}
	opts := loader.DefaultOptions()
	opts.Reader = *reader
	if opts, err = opts.With(*options); err != nil {
		return err
	}

	registry := loader.NewDefaultRegistry(signaltype.NewResolver(caps...))
	sig, err := registry.Load(flags.Arg(0), opts)
	if err != nil {
		return err
	}

	if *plotPath != "" {
		f, err := os.Create(*plotPath)
		if err != nil {
			return fmt.Errorf("failed to create plot file: %w", err)
		}
		if err := render.Render(sig, *index, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write plot file: %w", err)
		}
		log.Info().Str("path", *plotPath).Int("index", *index).Msg("Plot written")
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sig)
}
