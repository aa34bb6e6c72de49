package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RMahshie/spectra/internal/repository"
	"github.com/RMahshie/spectra/pkg/models"
)

const spectrumColumns = `id, session_id, filename, reader, use_uniform_signal_axis, status, progress,
	object_key, error_message, created_at, updated_at, completed_at`

// SpectrumRepository implements repository.SpectrumRepository for PostgreSQL
type SpectrumRepository struct {
	db *sql.DB
}

// NewSpectrumRepository creates a new PostgreSQL spectrum repository
func NewSpectrumRepository(db *sql.DB) repository.SpectrumRepository {
	return &SpectrumRepository{db: db}
}

// Create inserts a new spectrum record
func (r *SpectrumRepository) Create(ctx context.Context, spectrum *models.Spectrum) error {
	repository.PrepareCreate(spectrum, time.Now)

	query := `
		INSERT INTO spectra (id, session_id, filename, reader, use_uniform_signal_axis, status, progress,
		                     object_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		spectrum.ID,
		spectrum.SessionID,
		spectrum.Filename,
		spectrum.Reader,
		spectrum.UseUniformSignalAxis,
		spectrum.Status,
		spectrum.Progress,
		spectrum.ObjectKey,
		spectrum.CreatedAt,
		spectrum.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}
	return nil
}

// GetByID retrieves a spectrum by ID
func (r *SpectrumRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Spectrum, error) {
	query := `SELECT ` + spectrumColumns + ` FROM spectra WHERE id = $1`

	spectrum, err := scanSpectrum(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("spectrum %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return spectrum, nil
}

// GetBySessionID retrieves the spectra of a session, newest first
func (r *SpectrumRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*models.Spectrum, error) {
	query := `SELECT ` + spectrumColumns + ` FROM spectra WHERE session_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spectra := []*models.Spectrum{}
	for rows.Next() {
		spectrum, err := scanSpectrum(rows)
		if err != nil {
			return nil, err
		}
		spectra = append(spectra, spectrum)
	}
	return spectra, rows.Err()
}

// UpdateStatus updates the status and progress of a spectrum
func (r *SpectrumRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE spectra
		SET status = $1::text, progress = $2, updated_at = NOW(),
		    completed_at = CASE WHEN $1::text = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3`

	return exec(ctx, r.db, id, query, status, progress, id)
}

// ClaimProcessing marks a spectrum as processing unless another job already holds it
func (r *SpectrumRepository) ClaimProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE spectra
		SET status = 'processing', progress = 0, error_message = NULL, updated_at = NOW()
		WHERE id = $1 AND status <> 'processing'`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return claimed(ctx, r, id, res)
}

// UpdateError marks a spectrum as failed
func (r *SpectrumRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE spectra
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	return exec(ctx, r.db, id, query, errorMsg, id)
}

// StoreSignal stores the loaded signal of a spectrum, replacing an earlier one
func (r *SpectrumRepository) StoreSignal(ctx context.Context, signal *models.SpectrumSignal) error {
	repository.PrepareSignal(signal, time.Now)

	payload, err := json.Marshal(signal.Signal)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	query := `
		INSERT INTO spectrum_signals (id, spectrum_id, signal, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (spectrum_id) DO UPDATE SET signal = EXCLUDED.signal, created_at = EXCLUDED.created_at`

	_, err = r.db.ExecContext(ctx, query, signal.ID, signal.SpectrumID, string(payload), signal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store signal: %w", err)
	}
	return nil
}

// GetSignal retrieves the stored signal of a spectrum
func (r *SpectrumRepository) GetSignal(ctx context.Context, spectrumID uuid.UUID) (*models.SpectrumSignal, error) {
	query := `
		SELECT id, spectrum_id, signal, created_at
		FROM spectrum_signals
		WHERE spectrum_id = $1`

	var stored models.SpectrumSignal
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, spectrumID).Scan(
		&stored.ID,
		&stored.SpectrumID,
		&payload,
		&stored.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("signal of spectrum %s: %w", spectrumID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var signal models.Signal
	if err := json.Unmarshal(payload, &signal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signal: %w", err)
	}
	stored.Signal = &signal
	return &stored, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpectrum(row scanner) (*models.Spectrum, error) {
	var spectrum models.Spectrum
	var objectKey, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&spectrum.ID,
		&spectrum.SessionID,
		&spectrum.Filename,
		&spectrum.Reader,
		&spectrum.UseUniformSignalAxis,
		&spectrum.Status,
		&spectrum.Progress,
		&objectKey,
		&errorMsg,
		&spectrum.CreatedAt,
		&spectrum.UpdatedAt,
		&completedAt)
	if err != nil {
		return nil, err
	}

	if objectKey.Valid {
		spectrum.ObjectKey = &objectKey.String
	}
	if errorMsg.Valid {
		spectrum.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		spectrum.CompletedAt = &completedAt.Time
	}
	return &spectrum, nil
}

// claimed tells a lost claim apart from a missing spectrum
func claimed(ctx context.Context, r repository.SpectrumRepository, id uuid.UUID, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("spectrum %s: %w", id, repository.ErrAlreadyProcessing)
}

// exec runs an update and reports ErrNotFound when no row matched
func exec(ctx context.Context, db *sql.DB, id uuid.UUID, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("spectrum %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
