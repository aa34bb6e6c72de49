// Package repositorytest holds the behaviour every SpectrumRepository must share.
package repositorytest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/spectra/internal/repository"
	"github.com/RMahshie/spectra/pkg/models"
)

// SampleSignal returns a small line scan with metadata and a warning
func SampleSignal() *models.Signal {
	laser := 632.817
	od := 0.1
	rel := 0.02
	return &models.Signal{
		Data:  []float64{1, 2, 3, 4, 5, 6},
		Shape: []int{2, 3},
		Axes: []models.Axis{
			{Name: "Y", Units: "µm", Navigate: true, IndexInArray: 0, Kind: models.AxisUniform, Offset: 0, Scale: 0.5, Size: 2},
			{Name: "Wavelength", Units: "nm", IndexInArray: 1, Kind: models.AxisData, Size: 3, Values: []float64{500, 500.5, 501.5}},
		},
		Metadata: models.Metadata{
			General: models.General{Title: "scan", OriginalFilename: "scan.xml", Date: "27.06.2022", Time: "16:26:24"},
			Signal:  models.SignalInfo{RecordBy: "image", Quantity: "Intensity (Counts/s)"},
			AcquisitionInstrument: models.AcquisitionInstrument{
				Laser: models.Laser{Wavelength: &laser, Filter: models.LaserFilter{OpticalDensity: &od}},
			},
		},
		OriginalMetadata: models.OriginalMetadata{
			"date":               {"Acquired": "27.06.2022 16:26:24"},
			"experimental setup": {"Laser (nm)": 632.817, "Instrument": "LabRAM HR Evol"},
			"file information":   {"Sample": "test"},
		},
		SignalType: "Luminescence",
		Warnings: []models.AxisWarning{
			{Axis: "Wavelength", FirstStep: 0.5, LastStep: 1, Variation: 0.5, RelativeVariation: &rel, Message: "not uniform"},
		},
	}
}

// Run exercises a repository created by newRepo against an empty, migrated schema
func Run(t *testing.T, newRepo func(t *testing.T) repository.SpectrumRepository) {
	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		key := "spectra/a.xml"
		spectrum := &models.Spectrum{
			SessionID:            "session-create",
			Filename:             "a.xml",
			Reader:               "JobinYvon",
			UseUniformSignalAxis: false,
			ObjectKey:            &key,
		}
		require.NoError(t, repo.Create(ctx, spectrum))
		require.NotEmpty(t, spectrum.ID)
		assert.Equal(t, models.StatusPending, spectrum.Status)

		got, err := repo.GetByID(ctx, uuid.MustParse(spectrum.ID))
		require.NoError(t, err)
		assert.Equal(t, spectrum.ID, got.ID)
		assert.Equal(t, "session-create", got.SessionID)
		assert.Equal(t, "a.xml", got.Filename)
		assert.Equal(t, "JobinYvon", got.Reader)
		assert.False(t, got.UseUniformSignalAxis)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, 0, got.Progress)
		require.NotNil(t, got.ObjectKey)
		assert.Equal(t, key, *got.ObjectKey)
		assert.Nil(t, got.ErrorMsg)
		assert.Nil(t, got.CompletedAt)
		assert.WithinDuration(t, spectrum.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("missing spectrum", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		id := uuid.New()

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, id, models.StatusProcessing, 10), repository.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateError(ctx, id, "boom"), repository.ErrNotFound)
		assert.ErrorIs(t, repo.ClaimProcessing(ctx, id), repository.ErrNotFound)
		_, err = repo.GetSignal(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("status lifecycle", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		spectrum := &models.Spectrum{SessionID: "session-status", Filename: "b.xml", Reader: "JobinYvon", UseUniformSignalAxis: true}
		require.NoError(t, repo.Create(ctx, spectrum))
		id := uuid.MustParse(spectrum.ID)

		require.NoError(t, repo.UpdateStatus(ctx, id, models.StatusProcessing, 30))
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, got.Status)
		assert.Equal(t, 30, got.Progress)
		assert.Nil(t, got.CompletedAt)

		require.NoError(t, repo.UpdateStatus(ctx, id, models.StatusCompleted, 100))
		got, err = repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
		assert.Equal(t, 100, got.Progress)
		assert.NotNil(t, got.CompletedAt)
	})

	t.Run("claim processing once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		spectrum := &models.Spectrum{SessionID: "session-claim", Filename: "d.xml", Reader: "JobinYvon"}
		require.NoError(t, repo.Create(ctx, spectrum))
		id := uuid.MustParse(spectrum.ID)

		require.NoError(t, repo.ClaimProcessing(ctx, id))
		assert.ErrorIs(t, repo.ClaimProcessing(ctx, id), repository.ErrAlreadyProcessing)

		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, got.Status)

		// a failed spectrum can be processed again
		require.NoError(t, repo.UpdateError(ctx, id, "failed to load file"))
		require.NoError(t, repo.ClaimProcessing(ctx, id))
		got, err = repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, got.Status)
		assert.Nil(t, got.ErrorMsg)
	})

	t.Run("concurrent claims", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		spectrum := &models.Spectrum{SessionID: "session-race", Filename: "e.xml", Reader: "JobinYvon"}
		require.NoError(t, repo.Create(ctx, spectrum))
		id := uuid.MustParse(spectrum.ID)

		var wg sync.WaitGroup
		var won atomic.Int32
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.ClaimProcessing(ctx, id)
				if err == nil {
					won.Add(1)
					return
				}
				assert.ErrorIs(t, err, repository.ErrAlreadyProcessing)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), won.Load())
	})

	t.Run("update error", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		spectrum := &models.Spectrum{SessionID: "session-error", Filename: "c.xml", Reader: "JobinYvon"}
		require.NoError(t, repo.Create(ctx, spectrum))
		id := uuid.MustParse(spectrum.ID)

		require.NoError(t, repo.UpdateError(ctx, id, "failed to load file"))
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, got.Status)
		require.NotNil(t, got.ErrorMsg)
		assert.Equal(t, "failed to load file", *got.ErrorMsg)
	})

	t.Run("session listing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		for i, name := range []string{"first.xml", "second.xml", "third.xml"} {
			require.NoError(t, repo.Create(ctx, &models.Spectrum{
				SessionID: "session-list",
				Filename:  name,
				Reader:    "JobinYvon",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}
		require.NoError(t, repo.Create(ctx, &models.Spectrum{SessionID: "other-session", Filename: "x.xml", Reader: "JobinYvon"}))

		spectra, err := repo.GetBySessionID(ctx, "session-list")
		require.NoError(t, err)
		require.Len(t, spectra, 3)
		assert.Equal(t, "third.xml", spectra[0].Filename)
		assert.Equal(t, "first.xml", spectra[2].Filename)

		empty, err := repo.GetBySessionID(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("signal round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		spectrum := &models.Spectrum{SessionID: "session-signal", Filename: "d.xml", Reader: "JobinYvon"}
		require.NoError(t, repo.Create(ctx, spectrum))
		id := uuid.MustParse(spectrum.ID)

		stored := &models.SpectrumSignal{SpectrumID: spectrum.ID, Signal: SampleSignal()}
		require.NoError(t, repo.StoreSignal(ctx, stored))
		require.NotEmpty(t, stored.ID)

		got, err := repo.GetSignal(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, spectrum.ID, got.SpectrumID)
		if diff := cmp.Diff(SampleSignal(), got.Signal); diff != "" {
			t.Errorf("signal mismatch (-want +got):\n%s", diff)
		}

		// storing again replaces the signal
		replacement := SampleSignal()
		replacement.SignalType = ""
		require.NoError(t, repo.StoreSignal(ctx, &models.SpectrumSignal{SpectrumID: spectrum.ID, Signal: replacement}))
		got, err = repo.GetSignal(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "", got.Signal.SignalType)
	})
}
