package models

import (
	"time"
)

// Spectrum processing states
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// CreateSpectrumRequestBody is the body of a create spectrum request
type CreateSpectrumRequestBody struct {
	SessionID            string `json:"session_id" minLength:"10" maxLength:"50" required:"true" doc:"Client session identifier"`
	Filename             string `json:"filename" minLength:"1" maxLength:"255" required:"true" doc:"Original file name, e.g. 'map_01.xml'"`
	FileSize             int64  `json:"file_size" minimum:"1" maximum:"104857600" required:"true" doc:"File size in bytes"`
	MimeType             string `json:"mime_type" enum:"application/xml,text/xml" required:"true" doc:"File MIME type"`
	Reader               string `json:"reader,omitempty" doc:"Reader selector, defaults to 'Jobin Yvon'"`
	UseUniformSignalAxis *bool  `json:"use_uniform_signal_axis,omitempty" doc:"Store the signal axis as offset/scale (default true)"`
}

// CreateSpectrumRequest represents a request to create a new spectrum upload
type CreateSpectrumRequest struct {
	Body CreateSpectrumRequestBody
}

// CreateSpectrumResponseBody is the body of the create spectrum response
type CreateSpectrumResponseBody struct {
	ID        string `json:"id" doc:"Spectrum unique identifier"`
	UploadURL string `json:"upload_url" doc:"Pre-signed URL for file upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// CreateSpectrumResponse represents the response from creating a spectrum
type CreateSpectrumResponse struct {
	Body CreateSpectrumResponseBody
}

// SpectrumIDRequest addresses a single spectrum
type SpectrumIDRequest struct {
	ID string `path:"id" doc:"Spectrum ID"`
}

// GetSpectrumStatusResponseBody is the body of the status response
type GetSpectrumStatusResponseBody struct {
	ID       string  `json:"id" doc:"Spectrum ID"`
	Status   string  `json:"status" enum:"pending,processing,completed,failed" doc:"Processing status"`
	Progress int     `json:"progress" minimum:"0" maximum:"100" doc:"Processing progress percentage"`
	Message  string  `json:"message,omitempty" doc:"Human-readable status message"`
	Error    *string `json:"error,omitempty" doc:"Failure reason when status is failed"`
}

// GetSpectrumStatusResponse represents the current status of a spectrum
type GetSpectrumStatusResponse struct {
	Body GetSpectrumStatusResponseBody
}

// GetSpectrumResponseBody is the loaded signal with its record information
type GetSpectrumResponseBody struct {
	ID       string    `json:"id" doc:"Spectrum ID"`
	Filename string    `json:"filename" doc:"Original file name"`
	Reader   string    `json:"reader" doc:"Reader used to load the file"`
	Signal   *Signal   `json:"signal" doc:"Loaded signal"`
	LoadedAt time.Time `json:"loaded_at" doc:"When the signal was stored"`
}

// GetSpectrumResponse represents a loaded spectrum
type GetSpectrumResponse struct {
	Body GetSpectrumResponseBody
}

// AxisPoints is an axis together with its regenerated positions
type AxisPoints struct {
	Axis   Axis      `json:"axis"`
	Points []float64 `json:"points" doc:"Position of every index along the axis"`
}

// GetSpectrumAxesResponse lists the axes of a loaded spectrum
type GetSpectrumAxesResponse struct {
	Body struct {
		ID   string       `json:"id" doc:"Spectrum ID"`
		Axes []AxisPoints `json:"axes" doc:"Axes ordered by index_in_array"`
	}
}

// GetSpectrumPlotRequest selects the spectrum to render
type GetSpectrumPlotRequest struct {
	ID    string `path:"id" doc:"Spectrum ID"`
	Index int    `query:"index" minimum:"0" default:"0" doc:"Flattened navigation index of the spectrum to plot"`
}

// GetSpectrumPlotResponse is a rendered PNG
type GetSpectrumPlotResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ListSessionSpectraRequest lists spectra of a client session
type ListSessionSpectraRequest struct {
	SessionID string `path:"session_id" doc:"Client session identifier"`
}

// ListSessionSpectraResponse lists spectra of a client session
type ListSessionSpectraResponse struct {
	Body struct {
		Spectra []*Spectrum `json:"spectra"`
	}
}

// StartProcessingResponse represents the response from starting processing
type StartProcessingResponse struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}

// Spectrum represents an uploaded file and its processing state (for internal use)
type Spectrum struct {
	ID                   string     `json:"id"`
	SessionID            string     `json:"session_id"`
	Filename             string     `json:"filename"`
	Reader               string     `json:"reader"`
	UseUniformSignalAxis bool       `json:"use_uniform_signal_axis"`
	Status               string     `json:"status"`
	Progress             int        `json:"progress"`
	ObjectKey            *string    `json:"object_key,omitempty"`
	ErrorMsg             *string    `json:"error_message,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// SpectrumSignal is a stored signal belonging to a spectrum
type SpectrumSignal struct {
	ID         string    `json:"id"`
	SpectrumID string    `json:"spectrum_id"`
	Signal     *Signal   `json:"signal"`
	CreatedAt  time.Time `json:"created_at"`
}
