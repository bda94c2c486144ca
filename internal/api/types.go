package api

import (
	"ytserve/internal/deps"
	"ytserve/internal/progress"
)

// DownloadFailureDetails accompanies every failed download.
const DownloadFailureDetails = "Check server logs for more information"

// Summarize failure messages.
const (
	InvalidKeyMessage     = "Invalid API key. Please check your API key and try again."
	SummaryFailureMessage = "Failed to generate summary. Please try again later."
)

// GeminiKeyHeader carries the caller's Gemini API key.
const GeminiKeyHeader = "X-Gemini-Key"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusResponse acknowledges control requests.
type StatusResponse struct {
	Status string `json:"status"`
}

// Control acknowledgements.
const (
	StatusCancelled = "cancelled"
	StatusIdle      = "idle"
	StatusReset     = "reset"
)

// CheckTranscriptResponse reports whether a video has captions.
type CheckTranscriptResponse struct {
	HasTranscript bool   `json:"hasTranscript"`
	Error         string `json:"error,omitempty"`
}

// SummarizeRequest is the body of POST /summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
}

// SummarizeResponse carries the generated summary.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// ServerStatus aggregates server runtime information for API consumers.
type ServerStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Version      string             `json:"version"`
	Bind         string             `json:"bind"`
	LockFilePath string             `json:"lockFilePath"`
	Downloading  bool               `json:"downloading"`
	Progress     progress.Snapshot  `json:"progress"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// FromDependencyStatuses converts dependency checks to their API form.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}
