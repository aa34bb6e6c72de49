package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RMahshie/spectra/pkg/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyProcessing is returned when a spectrum is claimed twice
	ErrAlreadyProcessing = errors.New("spectrum is already being processed")
)

// SpectrumRepository defines the interface for spectrum data operations
type SpectrumRepository interface {
	Create(ctx context.Context, spectrum *models.Spectrum) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Spectrum, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]*models.Spectrum, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	// ClaimProcessing moves a spectrum that is not processing to processing, atomically
	ClaimProcessing(ctx context.Context, id uuid.UUID) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	StoreSignal(ctx context.Context, signal *models.SpectrumSignal) error
	GetSignal(ctx context.Context, spectrumID uuid.UUID) (*models.SpectrumSignal, error)
}

// PrepareCreate fills the ID and timestamps a new spectrum is missing
func PrepareCreate(spectrum *models.Spectrum, now func() time.Time) {
	if spectrum.ID == "" {
		spectrum.ID = uuid.New().String()
	}
	if spectrum.Status == "" {
		spectrum.Status = models.StatusPending
	}
	t := now().UTC()
	if spectrum.CreatedAt.IsZero() {
		spectrum.CreatedAt = t
	}
	if spectrum.UpdatedAt.IsZero() {
		spectrum.UpdatedAt = spectrum.CreatedAt
	}
}

// PrepareSignal fills the ID and timestamp a new stored signal is missing
func PrepareSignal(signal *models.SpectrumSignal, now func() time.Time) {
	if signal.ID == "" {
		signal.ID = uuid.New().String()
	}
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = now().UTC()
	}
}
