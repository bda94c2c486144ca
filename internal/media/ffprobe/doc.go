// Package ffprobe inspects finished downloads with ffprobe.
//
// The download service uses it to confirm the file it is about to return
// actually carries the expected streams before the temporary copy is deleted.
// Inspection is optional: when the binary is missing the Prober reports
// ErrUnavailable and callers skip verification.
package ffprobe
