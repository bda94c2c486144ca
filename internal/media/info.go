package media

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	watchURLBase    = "https://www.youtube.com/watch?v="
	playlistURLBase = "https://www.youtube.com/playlist?list="
)

// WatchURL returns the canonical watch page for a video ID.
func WatchURL(videoID string) string {
	return watchURLBase + url.QueryEscape(strings.TrimSpace(videoID))
}

// PlaylistURL returns the canonical playlist page for a playlist ID.
func PlaylistURL(playlistID string) string {
	return playlistURLBase + url.QueryEscape(strings.TrimSpace(playlistID))
}

// StreamFormat is one stream yt-dlp reports for a video. Missing codecs are
// recorded as "none" so absent and explicit values compare the same way.
type StreamFormat struct {
	FormatID string
	Ext      string
	VCodec   string
	ACodec   string
	Height   int
	Filesize int64
	ABR      float64
	Protocol string
}

// VideoInfo is the subset of yt-dlp metadata the server consumes.
type VideoInfo struct {
	ID       string
	Title    string
	Duration float64
	Formats  []StreamFormat
}

// PlaylistEntry is one video of a flat-extracted playlist.
type PlaylistEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// PlaylistInfo describes a playlist without downloading its videos.
type PlaylistInfo struct {
	Title  string          `json:"title"`
	Videos []PlaylistEntry `json:"videos"`
}

type rawFormat struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	VCodec   *string  `json:"vcodec"`
	ACodec   *string  `json:"acodec"`
	Height   *float64 `json:"height"`
	Filesize *float64 `json:"filesize"`
	ABR      *float64 `json:"abr"`
	Protocol string   `json:"protocol"`
}

type rawVideo struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Duration *float64    `json:"duration"`
	Formats  []rawFormat `json:"formats"`
}

type rawPlaylist struct {
	Title   *string `json:"title"`
	Entries []struct {
		ID       string   `json:"id"`
		Title    *string  `json:"title"`
		Duration *float64 `json:"duration"`
	} `json:"entries"`
}

// ParseVideoInfo decodes the output of `yt-dlp --dump-single-json` for a video.
func ParseVideoInfo(data []byte) (*VideoInfo, error) {
	var raw rawVideo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode video metadata: %w", err)
	}
	info := &VideoInfo{
		ID:       raw.ID,
		Title:    raw.Title,
		Duration: floatValue(raw.Duration),
		Formats:  make([]StreamFormat, 0, len(raw.Formats)),
	}
	for _, f := range raw.Formats {
		info.Formats = append(info.Formats, StreamFormat{
			FormatID: f.FormatID,
			Ext:      f.Ext,
			VCodec:   codecValue(f.VCodec),
			ACodec:   codecValue(f.ACodec),
			Height:   int(floatValue(f.Height)),
			Filesize: int64(floatValue(f.Filesize)),
			ABR:      floatValue(f.ABR),
			Protocol: f.Protocol,
		})
	}
	return info, nil
}

// ParsePlaylistInfo decodes the output of a flat playlist extraction.
func ParsePlaylistInfo(data []byte) (*PlaylistInfo, error) {
	var raw rawPlaylist
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode playlist metadata: %w", err)
	}
	info := &PlaylistInfo{Title: "Playlist", Videos: make([]PlaylistEntry, 0, len(raw.Entries))}
	if raw.Title != nil && strings.TrimSpace(*raw.Title) != "" {
		info.Title = *raw.Title
	}
	for _, entry := range raw.Entries {
		title := ""
		if entry.Title != nil {
			title = *entry.Title
		}
		info.Videos = append(info.Videos, PlaylistEntry{
			ID:       entry.ID,
			Title:    title,
			Duration: int(floatValue(entry.Duration)),
		})
	}
	return info, nil
}

func codecValue(v *string) string {
	if v == nil || *v == "" {
		return "none"
	}
	return *v
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
