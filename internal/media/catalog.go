package media

import (
	"context"
	"log/slog"
	"strings"

	"ytserve/internal/logging"
	"ytserve/internal/services"
)

// PlaylistLister lists playlists without yt-dlp.
type PlaylistLister interface {
	Playlist(ctx context.Context, playlistID string) (*PlaylistInfo, error)
}

// Catalog answers metadata questions: which formats a video offers and which
// videos a playlist holds.
type Catalog struct {
	engine   Engine
	fallback PlaylistLister
	logger   *slog.Logger
}

// NewCatalog builds a Catalog. fallback may be nil to disable the native
// playlist lookup.
func NewCatalog(engine Engine, fallback PlaylistLister, logger *slog.Logger) *Catalog {
	return &Catalog{engine: engine, fallback: fallback, logger: logging.NewComponentLogger(logger, "catalog")}
}

// Formats returns the format options offered for videoID.
func (c *Catalog) Formats(ctx context.Context, videoID string) ([]FormatOption, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "formats", "validate", "No video ID provided", nil)
	}
	ctx = services.WithVideoID(ctx, videoID)
	info, err := c.engine.Probe(ctx, WatchURL(videoID))
	if err != nil {
		logging.WithContext(ctx, c.logger).Error("format probe failed", logging.Error(err))
		return nil, err
	}
	options := BuildFormatOptions(info.Formats)
	logging.WithContext(ctx, c.logger).Debug("formats resolved",
		logging.Int("streams", len(info.Formats)),
		logging.Int("options", len(options)),
	)
	return options, nil
}

// Playlist returns the title and entries of playlistID, falling back to the
// native lister when yt-dlp fails.
func (c *Catalog) Playlist(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, services.Wrap(services.ErrValidation, "playlist", "validate", "No playlist ID provided", nil)
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.String("playlist_id", playlistID))

	info, err := c.engine.Playlist(ctx, PlaylistURL(playlistID))
	if err == nil {
		return info, nil
	}
	if c.fallback == nil || ctx.Err() != nil {
		logger.Error("playlist lookup failed", logging.Error(err))
		return nil, err
	}

	logging.WarnWithContext(logger, "yt-dlp playlist lookup failed; trying native client", "playlist_fallback",
		logging.Error(err),
		logging.String(logging.FieldImpact, "durations may be less precise"),
	)
	info, fallbackErr := c.fallback.Playlist(ctx, playlistID)
	if fallbackErr != nil {
		logger.Error("native playlist lookup failed", logging.Error(fallbackErr))
		return nil, err
	}
	return info, nil
}
