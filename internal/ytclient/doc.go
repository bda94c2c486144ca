// Package ytclient talks to YouTube directly through github.com/kkdai/youtube.
//
// It supplies caption track listings to the transcript service and a native
// playlist lister the catalog falls back to when yt-dlp cannot flatten a
// playlist.
package ytclient
