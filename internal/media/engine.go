package media

import (
	"context"

	"ytserve/internal/progress"
)

// DownloadRequest describes one blocking download.
type DownloadRequest struct {
	URL       string
	Selection Selection
	// OutputDir receives the file; the name follows the video title.
	OutputDir string
}

// Engine is the media extraction collaborator.
type Engine interface {
	// Probe returns metadata and stream formats without downloading.
	Probe(ctx context.Context, videoURL string) (*VideoInfo, error)
	// Playlist flat-extracts the entries of a playlist.
	Playlist(ctx context.Context, playlistURL string) (*PlaylistInfo, error)
	// Download blocks until the file is written into req.OutputDir or ctx is
	// cancelled. onProgress may be called from another goroutine.
	Download(ctx context.Context, req DownloadRequest, onProgress func(progress.Sample)) error
}
