// Package main hosts the ytserve CLI entrypoint and command graph.
//
// `ytserve serve` runs the HTTP backend in the foreground. Every other command
// is a thin client of a running server: it resolves the bind address from the
// config (or --server), calls the API, and renders the reply as tables or
// status lines.
package main
