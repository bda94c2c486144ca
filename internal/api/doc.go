// Package api defines wire-format types shared by the HTTP server and the CLI
// client.
//
// # Key Types
//
// ErrorResponse: the `{error[, details]}` body every failing endpoint returns.
//
// StatusResponse: the `{status}` acknowledgement of /cancel and /reset-progress.
//
// ServerStatus: pid, lock file, version, dependency availability and the
// current progress snapshot served from /api/status.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Domain
// payloads that already carry JSON tags (format options, playlist info,
// transcripts, progress snapshots) are served as-is rather than copied here.
package api
