// Package daemon runs the ytserve HTTP backend.
//
// It wires the download service, metadata catalog, transcript service and
// summarizer behind a single net/http mux, with flock-based locking to
// prevent multiple instances on one state directory. Requests pass through
// correlation, access logging and CORS middleware before reaching handlers,
// which translate service errors into JSON `{error[, details]}` bodies.
//
// Keep orchestration here: extraction, transcript lookup and summarization
// live in their own packages while the daemon focuses on startup, shutdown
// and the HTTP surface.
package daemon
