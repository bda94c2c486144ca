// Package preflight provides readiness checks for the binaries, directories
// and remote APIs ytserve depends on.
//
// These checks run in two contexts:
//   - The server logs a dependency snapshot at startup and serves the same
//     statuses from /api/status.
//   - The CLI "ytserve status" command runs RunAll to display local health,
//     optionally verifying a Gemini key.
package preflight
