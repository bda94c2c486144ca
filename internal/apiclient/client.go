package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/vfaronov/httpheader"

	"ytserve/internal/api"
	"ytserve/internal/media"
	"ytserve/internal/progress"
	"ytserve/internal/transcript"
)

// ErrAPIUnavailable is returned when no server answers at the bind address.
var ErrAPIUnavailable = errors.New("ytserve API unavailable")

// APIError is a non-2xx reply decoded from the server's error body.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, msg, e.Details)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, msg)
}

// Client calls the ytserve HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for bind, which may be "host:port" or a full URL.
func New(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("server address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		// No timeout - downloads block until yt-dlp finishes; callers cancel via ctx.
		http: &http.Client{},
	}, nil
}

// BaseURL returns the server root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Status fetches /api/status.
func (c *Client) Status(ctx context.Context) (api.ServerStatus, error) {
	var out api.ServerStatus
	err := c.getJSON(ctx, "/api/status", nil, &out)
	return out, err
}

// Formats fetches the format options of videoID.
func (c *Client) Formats(ctx context.Context, videoID string) ([]media.FormatOption, error) {
	var out []media.FormatOption
	err := c.getJSON(ctx, "/formats", url.Values{"videoId": {videoID}}, &out)
	return out, err
}

// Playlist fetches the entries of playlistID.
func (c *Client) Playlist(ctx context.Context, playlistID string) (*media.PlaylistInfo, error) {
	var out media.PlaylistInfo
	if err := c.getJSON(ctx, "/playlist-info", url.Values{"playlistId": {playlistID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TranscriptLanguages lists the caption tracks of videoID.
func (c *Client) TranscriptLanguages(ctx context.Context, videoID string) ([]transcript.Language, error) {
	var out []transcript.Language
	err := c.getJSON(ctx, "/get-transcript-languages", url.Values{"videoId": {videoID}}, &out)
	return out, err
}

// CheckTranscript reports whether videoID has captions.
func (c *Client) CheckTranscript(ctx context.Context, videoID string) (api.CheckTranscriptResponse, error) {
	var out api.CheckTranscriptResponse
	err := c.getJSON(ctx, "/check-transcript", url.Values{"videoId": {videoID}}, &out)
	return out, err
}

// Transcript fetches the transcript of videoID in lang; empty lang uses the
// server default.
func (c *Client) Transcript(ctx context.Context, videoID, lang string) (*transcript.Transcript, error) {
	values := url.Values{"videoId": {videoID}}
	if strings.TrimSpace(lang) != "" {
		values.Set("language", lang)
	}
	var out transcript.Transcript
	if err := c.getJSON(ctx, "/get-transcript", values, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Progress polls the download progress record.
func (c *Client) Progress(ctx context.Context) (progress.Snapshot, error) {
	var out progress.Snapshot
	err := c.getJSON(ctx, "/progress", nil, &out)
	return out, err
}

// Cancel stops the in-flight download and returns the server acknowledgement.
func (c *Client) Cancel(ctx context.Context) (string, error) {
	var out api.StatusResponse
	err := c.getJSON(ctx, "/cancel", nil, &out)
	return out.Status, err
}

// ResetProgress restores the default progress record.
func (c *Client) ResetProgress(ctx context.Context) error {
	var out api.StatusResponse
	return c.getJSON(ctx, "/reset-progress", nil, &out)
}

// Summarize sends text to the server's summarizer with apiKey.
func (c *Client) Summarize(ctx context.Context, apiKey, text string) (string, error) {
	body, err := json.Marshal(api.SummarizeRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/summarize", nil), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.GeminiKeyHeader, apiKey)

	var out api.SummarizeResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// Download is a streaming download response. Callers must close Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Download starts a download and returns the response stream once the server
// begins sending the file.
func (c *Client) Download(ctx context.Context, videoID, formatID string) (*Download, error) {
	values := url.Values{"videoId": {videoID}, "formatId": {formatID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/download", values), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapTransport(err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	_, filename, _ := httpheader.ContentDisposition(resp.Header)
	return &Download{
		Body:        resp.Body,
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

func (c *Client) endpoint(path string, values url.Values) string {
	ref := &url.URL{Path: path}
	if len(values) > 0 {
		ref.RawQuery = values.Encode()
	}
	return c.base.ResolveReference(ref).String()
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, values), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body api.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func wrapTransport(err error) error {
	if IsAPIUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
	}
	return err
}

// IsAPIUnavailable reports whether err means no server is listening.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
