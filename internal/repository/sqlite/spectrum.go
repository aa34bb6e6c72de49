// Package sqlite stores spectra in a local SQLite database. Timestamps are
// kept as fixed-width UTC text.
package sqlite

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

// SpectrumRepository implements repository.SpectrumRepository for SQLite
type SpectrumRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSpectrumRepository creates a new SQLite spectrum repository
func NewSpectrumRepository(db *sql.DB) repository.SpectrumRepository {
	return &SpectrumRepository{db: db, now: time.Now}
}

func (r *SpectrumRepository) Create(ctx context.Context, spectrum *models.Spectrum) error {
	repository.PrepareCreate(spectrum, r.now)

	query := `
		INSERT INTO spectra (id, session_id, filename, reader, use_uniform_signal_axis, status, progress,
		                     object_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		spectrum.ID,
		spectrum.SessionID,
		spectrum.Filename,
		spectrum.Reader,
		spectrum.UseUniformSignalAxis,
		spectrum.Status,
		spectrum.Progress,
		spectrum.ObjectKey,
		formatTime(spectrum.CreatedAt),
		formatTime(spectrum.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}
	return nil
}

func (r *SpectrumRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Spectrum, error) {
	query := `SELECT ` + spectrumColumns + ` FROM spectra WHERE id = ?`

	spectrum, err := scanSpectrum(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("spectrum %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return spectrum, nil
}

func (r *SpectrumRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*models.Spectrum, error) {
	query := `SELECT ` + spectrumColumns + ` FROM spectra WHERE session_id = ? ORDER BY created_at DESC`

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

func (r *SpectrumRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	now := formatTime(r.now())
	query := `
		UPDATE spectra
		SET status = ?, progress = ?, updated_at = ?,
		    completed_at = CASE WHEN ? = 'completed' THEN ? ELSE completed_at END
		WHERE id = ?`

	return r.exec(ctx, id, query, status, progress, now, status, now, id.String())
}

func (r *SpectrumRepository) ClaimProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE spectra
		SET status = 'processing', progress = 0, error_message = NULL, updated_at = ?
		WHERE id = ? AND status <> 'processing'`

	res, err := r.db.ExecContext(ctx, query, formatTime(r.now()), id.String())
	if err != nil {
		return err
	}
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

func (r *SpectrumRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE spectra
		SET status = 'failed', error_message = ?, updated_at = ?
		WHERE id = ?`

	return r.exec(ctx, id, query, errorMsg, formatTime(r.now()), id.String())
}

// StoreSignal stores the loaded signal of a spectrum, replacing an earlier one
func (r *SpectrumRepository) StoreSignal(ctx context.Context, signal *models.SpectrumSignal) error {
	repository.PrepareSignal(signal, r.now)

	payload, err := json.Marshal(signal.Signal)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	query := `
		INSERT INTO spectrum_signals (id, spectrum_id, signal, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (spectrum_id) DO UPDATE SET signal = excluded.signal, created_at = excluded.created_at`

	_, err = r.db.ExecContext(ctx, query, signal.ID, signal.SpectrumID, string(payload), formatTime(signal.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to store signal: %w", err)
	}
	return nil
}

func (r *SpectrumRepository) GetSignal(ctx context.Context, spectrumID uuid.UUID) (*models.SpectrumSignal, error) {
	query := `
		SELECT id, spectrum_id, signal, created_at
		FROM spectrum_signals
		WHERE spectrum_id = ?`

	var stored models.SpectrumSignal
	var payload, createdAt string
	err := r.db.QueryRowContext(ctx, query, spectrumID.String()).Scan(
		&stored.ID,
		&stored.SpectrumID,
		&payload,
		&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("signal of spectrum %s: %w", spectrumID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if stored.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	var signal models.Signal
	if err := json.Unmarshal([]byte(payload), &signal); err != nil {
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
	var objectKey, errorMsg, completedAt sql.NullString
	var createdAt, updatedAt string

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
		&createdAt,
		&updatedAt,
		&completedAt)
	if err != nil {
		return nil, err
	}

	if spectrum.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if spectrum.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if objectKey.Valid {
		spectrum.ObjectKey = &objectKey.String
	}
	if errorMsg.Valid {
		spectrum.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		spectrum.CompletedAt = &t
	}
	return &spectrum, nil
}

func (r *SpectrumRepository) exec(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

// timeLayout has fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
