// Package apiclient is the HTTP client the ytserve CLI uses to talk to a
// running server.
package apiclient
