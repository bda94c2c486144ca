package ytclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"ytserve/internal/logging"
	"ytserve/internal/media"
	"ytserve/internal/services"
	"ytserve/internal/transcript"
)

const generatedKind = "asr"

// Client wraps a kkdai youtube client.
type Client struct {
	yt     *youtube.Client
	logger *slog.Logger
}

// New builds a Client. A nil httpClient gets one with the given timeout.
func New(httpClient *http.Client, timeout time.Duration, logger *slog.Logger) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		yt:     &youtube.Client{HTTPClient: httpClient},
		logger: logging.NewComponentLogger(logger, "youtube"),
	}
}

// Tracks implements transcript.TrackSource.
func (c *Client) Tracks(ctx context.Context, videoID string) ([]transcript.Track, error) {
	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, wrapError(ctx, "tracks", err)
	}
	tracks := make([]transcript.Track, 0, len(video.CaptionTracks))
	for _, ct := range video.CaptionTracks {
		if track, ok := convertTrack(ct); ok {
			tracks = append(tracks, track)
		}
	}
	logging.WithContext(ctx, c.logger).Debug("caption tracks listed", logging.Int("tracks", len(tracks)))
	return tracks, nil
}

// convertTrack reports false for tracks missing a language or URL.
func convertTrack(ct youtube.CaptionTrack) (transcript.Track, bool) {
	if strings.TrimSpace(ct.LanguageCode) == "" || strings.TrimSpace(ct.BaseURL) == "" {
		return transcript.Track{}, false
	}
	return transcript.Track{
		Code:         ct.LanguageCode,
		Name:         strings.TrimSpace(ct.Name.SimpleText),
		Generated:    ct.Kind == generatedKind,
		Translatable: ct.IsTranslatable,
		BaseURL:      ct.BaseURL,
	}, true
}

// Playlist implements media.PlaylistLister.
func (c *Client) Playlist(ctx context.Context, playlistID string) (*media.PlaylistInfo, error) {
	playlist, err := c.yt.GetPlaylistContext(ctx, media.PlaylistURL(playlistID))
	if err != nil {
		return nil, wrapError(ctx, "playlist", err)
	}
	return convertPlaylist(playlist), nil
}

func convertPlaylist(playlist *youtube.Playlist) *media.PlaylistInfo {
	info := &media.PlaylistInfo{Title: strings.TrimSpace(playlist.Title), Videos: []media.PlaylistEntry{}}
	if info.Title == "" {
		info.Title = "Playlist"
	}
	for _, entry := range playlist.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		info.Videos = append(info.Videos, media.PlaylistEntry{
			ID:       entry.ID,
			Title:    entry.Title,
			Duration: int(entry.Duration / time.Second),
		})
	}
	return info
}

func wrapError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return services.Wrap(services.ErrCanceled, "youtube", op, "Request cancelled", err)
	}
	switch {
	case errors.Is(err, youtube.ErrInvalidPlaylist),
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return services.Wrap(services.ErrValidation, "youtube", op, "Invalid video or playlist ID", err)
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate):
		return services.Wrap(services.ErrNotFound, "youtube", op, "Video is private or requires login", err)
	}
	var status *youtube.ErrPlayabiltyStatus
	if errors.As(err, &status) {
		return services.Wrap(services.ErrNotFound, "youtube", op, "Video unavailable", err)
	}
	return services.Wrap(services.ErrExternalTool, "youtube", op, "YouTube request failed", err)
}
