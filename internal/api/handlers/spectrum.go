package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/spectra/internal/axis"
	"github.com/RMahshie/spectra/internal/loader"
	"github.com/RMahshie/spectra/internal/processing"
	"github.com/RMahshie/spectra/internal/render"
	"github.com/RMahshie/spectra/internal/repository"
	"github.com/RMahshie/spectra/internal/storage"
	"github.com/RMahshie/spectra/pkg/models"
)

// FormatSelector resolves the reader a file will be loaded with
type FormatSelector interface {
	Select(filename, reader string) (loader.Format, error)
}

// SpectrumHandler handles spectrum-related HTTP requests
type SpectrumHandler struct {
	repo          repository.SpectrumRepository
	store         storage.ObjectStore
	processingSvc processing.ProcessingService
	formats       FormatSelector
	defaults      loader.Options
}

// NewSpectrumHandler creates a new spectrum handler
func NewSpectrumHandler(repo repository.SpectrumRepository, store storage.ObjectStore, processingSvc processing.ProcessingService, formats FormatSelector, defaults loader.Options) *SpectrumHandler {
	return &SpectrumHandler{
		repo:          repo,
		store:         store,
		processingSvc: processingSvc,
		formats:       formats,
		defaults:      defaults,
	}
}

// CreateSpectrum creates a spectrum record and returns an upload URL
func (h *SpectrumHandler) CreateSpectrum(ctx context.Context, req *models.CreateSpectrumRequest) (*models.CreateSpectrumResponse, error) {
	body := req.Body
	log.Info().Int64("fileSize", body.FileSize).Str("filename", body.Filename).Msg("Creating new spectrum")

	if body.FileSize < 1 {
		return nil, huma.Error400BadRequest("File is empty.", nil)
	}
	if body.FileSize > 100*1024*1024 {
		return nil, huma.Error400BadRequest("File too large. The limit is 100 MB.", nil)
	}

	reader := body.Reader
	if reader == "" {
		reader = h.defaults.Reader
	}
	format, err := h.formats.Select(body.Filename, reader)
	if err != nil {
		return nil, huma.Error400BadRequest(readerErrorMessage(err), err)
	}

	useUniform := h.defaults.UseUniformSignalAxis
	if body.UseUniformSignalAxis != nil {
		useUniform = *body.UseUniformSignalAxis
	}

	spectrumID := uuid.New()
	objectKey := storage.ObjectKey(spectrumID.String())

	uploadURL, err := h.store.GenerateUploadURL(ctx, objectKey, body.MimeType)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidContentType) {
			return nil, huma.Error400BadRequest("File format not supported. Upload an XML file.", err)
		}
		return nil, huma.Error500InternalServerError("Failed to prepare upload. Please try again.", err)
	}

	now := time.Now()
	spectrum := &models.Spectrum{
		ID:                   spectrumID.String(),
		SessionID:            body.SessionID,
		Filename:             body.Filename,
		Reader:               format.Name,
		UseUniformSignalAxis: useUniform,
		Status:               models.StatusPending,
		Progress:             0,
		ObjectKey:            &objectKey,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := h.repo.Create(ctx, spectrum); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create spectrum", err)
	}

	expiresIn := int(storage.UploadURLExpiry().Seconds())
	log.Info().Str("spectrumID", spectrum.ID).Str("reader", format.Name).Int("expiresIn", expiresIn).Msg("Spectrum created, returning upload URL")
	return &models.CreateSpectrumResponse{
		Body: models.CreateSpectrumResponseBody{
			ID:        spectrum.ID,
			UploadURL: uploadURL,
			ExpiresIn: expiresIn,
		},
	}, nil
}

// StartProcessing starts loading an uploaded file in the background
func (h *SpectrumHandler) StartProcessing(ctx context.Context, req *models.SpectrumIDRequest) (*models.StartProcessingResponse, error) {
	_, spectrumID, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := h.repo.ClaimProcessing(ctx, spectrumID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyProcessing):
			return nil, huma.Error409Conflict("Spectrum is already being processed", err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, huma.Error404NotFound("Spectrum not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to start processing", err)
	}

	log.Info().Str("spectrumID", spectrumID.String()).Msg("Starting background processing")
	go func() {
		bg := context.Background()
		if err := h.processingSvc.ProcessSpectrum(bg, spectrumID); err != nil {
			log.Error().Err(err).Str("spectrumID", spectrumID.String()).Msg("Processing failed")
			if err := h.repo.UpdateError(bg, spectrumID, fmt.Sprintf("Processing failed: %v", err)); err != nil {
				log.Error().Err(err).Str("spectrumID", spectrumID.String()).Msg("Failed to record processing error")
			}
		}
	}()

	resp := &models.StartProcessingResponse{}
	resp.Body.Message = "Processing started successfully"
	return resp, nil
}

// GetSpectrumStatus returns the current status of a spectrum
func (h *SpectrumHandler) GetSpectrumStatus(ctx context.Context, req *models.SpectrumIDRequest) (*models.GetSpectrumStatusResponse, error) {
	spectrum, _, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &models.GetSpectrumStatusResponse{
		Body: models.GetSpectrumStatusResponseBody{
			ID:       spectrum.ID,
			Status:   spectrum.Status,
			Progress: spectrum.Progress,
			Message:  statusMessage(spectrum.Status, spectrum.Progress),
			Error:    spectrum.ErrorMsg,
		},
	}, nil
}

// GetSpectrum returns the loaded signal
func (h *SpectrumHandler) GetSpectrum(ctx context.Context, req *models.SpectrumIDRequest) (*models.GetSpectrumResponse, error) {
	spectrum, stored, err := h.loadedSignal(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &models.GetSpectrumResponse{
		Body: models.GetSpectrumResponseBody{
			ID:       spectrum.ID,
			Filename: spectrum.Filename,
			Reader:   spectrum.Reader,
			Signal:   stored.Signal,
			LoadedAt: stored.CreatedAt,
		},
	}, nil
}

// GetSpectrumAxes returns every axis with its positions regenerated
func (h *SpectrumHandler) GetSpectrumAxes(ctx context.Context, req *models.SpectrumIDRequest) (*models.GetSpectrumAxesResponse, error) {
	spectrum, stored, err := h.loadedSignal(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	resp := &models.GetSpectrumAxesResponse{}
	resp.Body.ID = spectrum.ID
	resp.Body.Axes = make([]models.AxisPoints, 0, len(stored.Signal.Axes))
	for _, a := range stored.Signal.Axes {
		resp.Body.Axes = append(resp.Body.Axes, models.AxisPoints{Axis: a, Points: axis.AxisPoints(a)})
	}
	return resp, nil
}

// GetSpectrumPlot renders one spectrum of the signal as PNG
func (h *SpectrumHandler) GetSpectrumPlot(ctx context.Context, req *models.GetSpectrumPlotRequest) (*models.GetSpectrumPlotResponse, error) {
	_, stored, err := h.loadedSignal(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := render.Render(stored.Signal, req.Index, &buf); err != nil {
		if errors.Is(err, render.ErrIndexOutOfRange) {
			return nil, huma.Error400BadRequest("Spectrum index out of range", err)
		}
		return nil, huma.Error500InternalServerError("Failed to render spectrum", err)
	}

	return &models.GetSpectrumPlotResponse{
		ContentType: render.ContentType,
		Body:        buf.Bytes(),
	}, nil
}

// ListSessionSpectra lists the spectra uploaded in a session
func (h *SpectrumHandler) ListSessionSpectra(ctx context.Context, req *models.ListSessionSpectraRequest) (*models.ListSessionSpectraResponse, error) {
	spectra, err := h.repo.GetBySessionID(ctx, req.SessionID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list spectra", err)
	}

	resp := &models.ListSessionSpectraResponse{}
	resp.Body.Spectra = spectra
	return resp, nil
}

// lookup parses id and fetches the spectrum, translating failures to HTTP errors
func (h *SpectrumHandler) lookup(ctx context.Context, id string) (*models.Spectrum, uuid.UUID, error) {
	spectrumID, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, huma.Error400BadRequest("Invalid spectrum ID", err)
	}

	spectrum, err := h.repo.GetByID(ctx, spectrumID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, uuid.Nil, huma.Error404NotFound("Spectrum not found", err)
	}
	if err != nil {
		return nil, uuid.Nil, huma.Error500InternalServerError("Failed to get spectrum", err)
	}
	return spectrum, spectrumID, nil
}

func (h *SpectrumHandler) loadedSignal(ctx context.Context, id string) (*models.Spectrum, *models.SpectrumSignal, error) {
	spectrum, spectrumID, err := h.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if spectrum.Status != models.StatusCompleted {
		return nil, nil, huma.Error409Conflict("Spectrum not yet loaded",
			fmt.Errorf("spectrum status is %s", spectrum.Status))
	}

	stored, err := h.repo.GetSignal(ctx, spectrumID)
	if err != nil {
		return nil, nil, huma.Error500InternalServerError("Failed to get signal", err)
	}
	return spectrum, stored, nil
}

func readerErrorMessage(err error) string {
	switch {
	case errors.Is(err, loader.ErrAmbiguousFormat):
		return "Several readers handle this file type. Choose a reader explicitly."
	case errors.Is(err, loader.ErrUnknownReader):
		return "Unknown reader."
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return "File type not supported."
	}
	return "Cannot select a reader for this file."
}

// statusMessage creates a human-readable status message
func statusMessage(status string, progress int) string {
	switch status {
	case models.StatusPending:
		return "Waiting for upload..."
	case models.StatusProcessing:
		switch {
		case progress < processing.ProgressDownloaded:
			return "Downloading file..."
		case progress < processing.ProgressLoaded:
			return "Reading spectra..."
		default:
			return "Storing signal..."
		}
	case models.StatusCompleted:
		return "Spectrum loaded!"
	case models.StatusFailed:
		return "Loading failed."
	}
	return "Unknown status"
}
