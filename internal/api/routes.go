package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/spectra/internal/api/handlers"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, spectrumHandler *handlers.SpectrumHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "createSpectrum",
		Method:        http.MethodPost,
		Path:          "/api/spectra",
		Summary:       "Create a new spectrum",
		Description:   "Creates a spectrum record, selects its reader and returns an upload URL",
		Tags:          []string{"Spectra"},
		DefaultStatus: http.StatusCreated,
	}, spectrumHandler.CreateSpectrum)

	huma.Register(api, huma.Operation{
		OperationID: "startProcessing",
		Method:      http.MethodPost,
		Path:        "/api/spectra/{id}/process",
		Summary:     "Start loading a spectrum",
		Description: "Starts reading an uploaded LabSpec file in the background",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.StartProcessing)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrumStatus",
		Method:      http.MethodGet,
		Path:        "/api/spectra/{id}/status",
		Summary:     "Get spectrum status",
		Description: "Returns the current status and progress of a spectrum",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.GetSpectrumStatus)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrum",
		Method:      http.MethodGet,
		Path:        "/api/spectra/{id}",
		Summary:     "Get loaded spectrum",
		Description: "Returns the loaded signal with its data, axes and metadata",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.GetSpectrum)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrumAxes",
		Method:      http.MethodGet,
		Path:        "/api/spectra/{id}/axes",
		Summary:     "Get axis positions",
		Description: "Returns every axis with its positions, regenerated for uniform axes",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.GetSpectrumAxes)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrumPlot",
		Method:      http.MethodGet,
		Path:        "/api/spectra/{id}/plot",
		Summary:     "Plot one spectrum",
		Description: "Renders the spectrum at a flattened navigation index as PNG",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.GetSpectrumPlot)

	huma.Register(api, huma.Operation{
		OperationID: "listSessionSpectra",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/spectra",
		Summary:     "List session spectra",
		Description: "Lists the spectra created in a client session, newest first",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.ListSessionSpectra)
}
