// Package services defines shared utilities consumed by the HTTP handlers and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation and video identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP status codes.
package services
