// Package processing turns uploaded files into stored signals.
package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/spectra/internal/loader"
	"github.com/RMahshie/spectra/internal/repository"
	"github.com/RMahshie/spectra/internal/storage"
	"github.com/RMahshie/spectra/pkg/models"
)

// Progress reported while a spectrum is processed
const (
	ProgressStarted    = 10
	ProgressDownloaded = 30
	ProgressLoaded     = 60
	ProgressStoring    = 90
	ProgressCompleted  = 100
)

// Loader reads an in-memory file into a signal
type Loader interface {
	LoadBytes(name string, data []byte, opts loader.Options) (*models.Signal, error)
}

type ProcessingService interface {
	ProcessSpectrum(ctx context.Context, spectrumID uuid.UUID) error
}

type processingService struct {
	store      storage.ObjectStore
	repository repository.SpectrumRepository
	loader     Loader
	defaults   loader.Options
}

// NewProcessingService creates the pipeline. defaults supplies the tolerance and the
// reader used when a spectrum record does not name one.
func NewProcessingService(store storage.ObjectStore, repo repository.SpectrumRepository, l Loader, defaults loader.Options) ProcessingService {
	return &processingService{
		store:      store,
		repository: repo,
		loader:     l,
		defaults:   defaults,
	}
}

// ProcessSpectrum downloads, loads and stores one spectrum. Download and load
// failures mark the spectrum as failed and are not returned.
func (s *processingService) ProcessSpectrum(ctx context.Context, spectrumID uuid.UUID) error {
	logger := log.With().Str("spectrumID", spectrumID.String()).Logger()

	if err := s.repository.UpdateStatus(ctx, spectrumID, models.StatusProcessing, ProgressStarted); err != nil {
		return err
	}

	spectrum, err := s.repository.GetByID(ctx, spectrumID)
	if err != nil {
		return err
	}
	if spectrum.ObjectKey == nil {
		return s.fail(ctx, spectrumID, "Spectrum has no uploaded file", errors.New("missing object key"))
	}

	data, err := s.store.DownloadFile(ctx, *spectrum.ObjectKey)
	if err != nil {
		return s.fail(ctx, spectrumID, "Failed to download file", err)
	}
	logger.Info().Int("bytes", len(data)).Msg("Downloaded spectrum file")
	if err := s.repository.UpdateStatus(ctx, spectrumID, models.StatusProcessing, ProgressDownloaded); err != nil {
		return err
	}

	opts := s.defaults
	if spectrum.Reader != "" {
		opts.Reader = spectrum.Reader
	}
	opts.UseUniformSignalAxis = spectrum.UseUniformSignalAxis

	signal, err := s.loader.LoadBytes(spectrum.Filename, data, opts)
	if err != nil {
		return s.fail(ctx, spectrumID, "Failed to load file", err)
	}
	for _, w := range signal.Warnings {
		logger.Warn().Str("axis", w.Axis).Float64("variation", w.Variation).Msg(w.Message)
	}
	if err := s.repository.UpdateStatus(ctx, spectrumID, models.StatusProcessing, ProgressLoaded); err != nil {
		return err
	}

	if err := s.repository.UpdateStatus(ctx, spectrumID, models.StatusProcessing, ProgressStoring); err != nil {
		return err
	}
	if err := s.repository.StoreSignal(ctx, &models.SpectrumSignal{
		SpectrumID: spectrum.ID,
		Signal:     signal,
	}); err != nil {
		return fmt.Errorf("failed to store signal: %w", err)
	}

	if err := s.repository.UpdateStatus(ctx, spectrumID, models.StatusCompleted, ProgressCompleted); err != nil {
		return err
	}
	logger.Info().Ints("shape", signal.Shape).Str("signalType", signal.SignalType).Msg("Spectrum processed")
	return nil
}

// fail records a user facing error; the status update error is the only one returned
func (s *processingService) fail(ctx context.Context, id uuid.UUID, msg string, cause error) error {
	log.Error().Err(cause).Str("spectrumID", id.String()).Msg(msg)
	return s.repository.UpdateError(ctx, id, fmt.Sprintf("%s: %v", msg, cause))
}
