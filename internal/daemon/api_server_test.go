package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ytserve/internal/api"
	"ytserve/internal/logging"
	"ytserve/internal/media"
	"ytserve/internal/progress"
	"ytserve/internal/services"
	"ytserve/internal/testsupport"
	"ytserve/internal/transcript"
)

type downloaderStub struct {
	result      *media.DownloadResult
	err         error
	gotVideo    string
	gotFormatID string
}

func (s *downloaderStub) Download(_ context.Context, videoID, formatID string) (*media.DownloadResult, error) {
	s.gotVideo = videoID
	s.gotFormatID = formatID
	return s.result, s.err
}

type catalogStub struct {
	formats  []media.FormatOption
	playlist *media.PlaylistInfo
	err      error
}

func (s *catalogStub) Formats(_ context.Context, videoID string) ([]media.FormatOption, error) {
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "formats", "validate", "No video ID provided", nil)
	}
	return s.formats, s.err
}

func (s *catalogStub) Playlist(_ context.Context, playlistID string) (*media.PlaylistInfo, error) {
	if playlistID == "" {
		return nil, services.Wrap(services.ErrValidation, "playlist", "validate", "No playlist ID provided", nil)
	}
	return s.playlist, s.err
}

type transcriptStub struct {
	langs   []transcript.Language
	result  *transcript.Transcript
	err     error
	gotLang string
}

func (s *transcriptStub) Languages(context.Context, string) ([]transcript.Language, error) {
	return s.langs, s.err
}

func (s *transcriptStub) Check(_ context.Context, videoID string) (bool, error) {
	if videoID == "" {
		return false, services.Wrap(services.ErrValidation, "transcript", "check", "No video ID provided", nil)
	}
	return s.err == nil, s.err
}

func (s *transcriptStub) Get(_ context.Context, _ string, lang string) (*transcript.Transcript, error) {
	s.gotLang = lang
	return s.result, s.err
}

type summarizerStub struct {
	summary string
	err     error
	gotKey  string
	gotText string
}

func (s *summarizerStub) Summarize(_ context.Context, apiKey, text string) (string, error) {
	s.gotKey = apiKey
	s.gotText = text
	return s.summary, s.err
}

type fixture struct {
	daemon      *Daemon
	downloads   *downloaderStub
	catalog     *catalogStub
	transcripts *transcriptStub
	summarizer  *summarizerStub
	tracker     *progress.Tracker
}

func newFixture(t *testing.T, opts ...progress.Option) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	f := &fixture{
		downloads:   &downloaderStub{},
		catalog:     &catalogStub{},
		transcripts: &transcriptStub{},
		summarizer:  &summarizerStub{},
		tracker:     progress.NewTracker(opts...),
	}
	d, err := New(cfg, Services{
		Downloads:   f.downloads,
		Catalog:     f.catalog,
		Transcripts: f.transcripts,
		Summarizer:  f.summarizer,
		Tracker:     f.tracker,
	}, logging.NewNop(), "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.daemon = d
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.daemon.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestFormatsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.catalog.formats = []media.FormatOption{{FormatID: "1080p", Extension: "mp4", Type: "video"}}

	w := f.do(t, http.MethodGet, "/formats?videoId=abc", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var options []media.FormatOption
	if err := json.Unmarshal(w.Body.Bytes(), &options); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(options) != 1 || options[0].FormatID != "1080p" {
		t.Fatalf("unexpected options %+v", options)
	}

	w = f.do(t, http.MethodGet, "/formats", "", nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Error != "No video ID provided" {
		t.Fatalf("expected missing id error, got %d %s", w.Code, w.Body.String())
	}

	f.catalog.err = services.Wrap(services.ErrExternalTool, "ytdlp", "probe", "ERROR: Video unavailable", errors.New("exit 1"))
	w = f.do(t, http.MethodGet, "/formats?videoId=abc", "", nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Error != "ERROR: Video unavailable" {
		t.Fatalf("expected collaborator error as 400, got %d %s", w.Code, w.Body.String())
	}
}

func TestDownloadEndpoint(t *testing.T) {
	f := newFixture(t)
	f.downloads.result = &media.DownloadResult{
		Filename:    "My Song.mp3",
		ContentType: "audio/mp3",
		Audio:       true,
		Data:        []byte("ID3data"),
	}

	w := f.do(t, http.MethodGet, "/download?videoId=abc&formatId=audio_140", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if f.downloads.gotVideo != "abc" || f.downloads.gotFormatID != "audio_140" {
		t.Fatalf("unexpected download args %q %q", f.downloads.gotVideo, f.downloads.gotFormatID)
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/mp3" {
		t.Fatalf("unexpected content type %q", ct)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, "attachment") || !strings.Contains(disposition, "My Song.mp3") {
		t.Fatalf("unexpected content disposition %q", disposition)
	}
	if w.Body.String() != "ID3data" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestDownloadEndpointErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/download?videoId=abc", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing formatId, got %d", w.Code)
	}
	if f.downloads.gotVideo != "" {
		t.Fatal("downloader should not be called without formatId")
	}

	f.downloads.err = services.Wrap(services.ErrValidation, "download", "validate", "Invalid formatId", nil)
	w = f.do(t, http.MethodGet, "/download?videoId=abc&formatId=audio_", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty audio stream, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error != "Invalid formatId" {
		t.Fatalf("unexpected error body %+v", resp)
	}

	f.downloads.err = services.Wrap(services.ErrExternalTool, "download", "locate output", "Downloaded file not found", errors.New("no media"))
	w = f.do(t, http.MethodGet, "/download?videoId=abc&formatId=720p", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != "Downloaded file not found" || resp.Details != api.DownloadFailureDetails {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestProgressResetAndCancel(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/cancel", "", nil)
	var status api.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil || w.Code != http.StatusOK || status.Status != api.StatusIdle {
		t.Fatalf("expected idle cancel, got %d %s", w.Code, w.Body.String())
	}

	_, job := f.tracker.Begin(context.Background())
	f.tracker.Update(job, progress.Sample{DownloadedBytes: 50, TotalBytes: 100})

	w = f.do(t, http.MethodGet, "/progress", "", nil)
	var snap progress.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if snap.Progress != 50 || snap.Status != progress.StatusDownloading {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w = f.do(t, http.MethodGet, "/cancel", "", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil || status.Status != api.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", w.Body.String())
	}
	if got := f.tracker.Snapshot(); got.Status != progress.StatusCancelled || got.Progress != 0 {
		t.Fatalf("unexpected record after cancel %+v", got)
	}

	w = f.do(t, http.MethodGet, "/reset-progress", "", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil || status.Status != api.StatusReset {
		t.Fatalf("expected reset, got %s", w.Body.String())
	}
	w = f.do(t, http.MethodGet, "/progress", "", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if snap != progress.Default() {
		t.Fatalf("expected default record after reset, got %+v", snap)
	}
}

func TestCancelTerminationFailure(t *testing.T) {
	f := newFixture(t, progress.WithTerminator(func(context.CancelFunc) error {
		return errors.New("permission denied")
	}))
	_, job := f.tracker.Begin(context.Background())
	f.tracker.Update(job, progress.Sample{DownloadedBytes: 10, TotalBytes: 100})

	w := f.do(t, http.MethodGet, "/cancel", "", nil)
	if w.Code != http.StatusInternalServerError || decodeError(t, w).Error != "permission denied" {
		t.Fatalf("expected 500 with error, got %d %s", w.Code, w.Body.String())
	}
	if got := f.tracker.Snapshot(); got.Status != progress.StatusDownloading || got.Progress != 10 {
		t.Fatalf("record should be unchanged, got %+v", got)
	}
}

func TestPlaylistEndpoint(t *testing.T) {
	f := newFixture(t)
	f.catalog.playlist = &media.PlaylistInfo{Title: "Mix", Videos: []media.PlaylistEntry{{ID: "a", Title: "A", Duration: 61}}}

	w := f.do(t, http.MethodGet, "/playlist-info?playlistId=PL1", "", nil)
	var info media.PlaylistInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil || info.Title != "Mix" || len(info.Videos) != 1 {
		t.Fatalf("unexpected playlist response %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/playlist-info", "", nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Error != "No playlist ID provided" {
		t.Fatalf("expected missing playlist id error, got %d %s", w.Code, w.Body.String())
	}
}

func TestTranscriptEndpoints(t *testing.T) {
	f := newFixture(t)
	f.transcripts.langs = []transcript.Language{{Code: "en", Name: "English"}}
	f.transcripts.result = &transcript.Transcript{Text: "[00:01] hi", Language: "French", IsGenerated: true}

	w := f.do(t, http.MethodGet, "/get-transcript-languages?videoId=abc", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"isGenerated":false`) {
		t.Fatalf("unexpected languages response %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/check-transcript?videoId=abc", "", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"hasTranscript":true}` {
		t.Fatalf("unexpected check response %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/check-transcript", "", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"hasTranscript":false,"error":"No video ID provided"}` {
		t.Fatalf("unexpected missing id response %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/get-transcript?videoId=abc&language=fr", "", nil)
	var got transcript.Transcript
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.Language != "French" || !got.IsGenerated {
		t.Fatalf("unexpected transcript response %d %s", w.Code, w.Body.String())
	}
	if f.transcripts.gotLang != "fr" {
		t.Fatalf("expected language passthrough, got %q", f.transcripts.gotLang)
	}

	f.transcripts.err = services.Wrap(services.ErrNotFound, "transcript", "tracks", "Transcripts are disabled for this video", transcript.ErrNoTranscript)
	w = f.do(t, http.MethodGet, "/check-transcript?videoId=abc", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Transcripts are disabled") {
		t.Fatalf("expected 200 with error, got %d %s", w.Code, w.Body.String())
	}
	for _, path := range []string{"/get-transcript?videoId=abc", "/get-transcript-languages?videoId=abc"} {
		w = f.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	f := newFixture(t)
	f.summarizer.summary = "Short."

	headers := map[string]string{api.GeminiKeyHeader: "k", "Content-Type": "application/json"}
	w := f.do(t, http.MethodPost, "/summarize", `{"text":"hello"}`, headers)
	var resp api.SummarizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || w.Code != http.StatusOK || resp.Summary != "Short." {
		t.Fatalf("unexpected summarize response %d %s", w.Code, w.Body.String())
	}
	if f.summarizer.gotKey != "k" || f.summarizer.gotText != "hello" {
		t.Fatalf("unexpected summarizer args %q %q", f.summarizer.gotKey, f.summarizer.gotText)
	}

	w = f.do(t, http.MethodGet, "/summarize", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/summarize", `{not json`, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestSummarizeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"empty text", services.Wrap(services.ErrValidation, "gemini", "summarize", "No text provided", nil), http.StatusBadRequest, "No text provided"},
		{"missing key", services.Wrap(services.ErrUnauthorized, "gemini", "summarize", "No API key provided", nil), http.StatusUnauthorized, "No API key provided"},
		{"upstream", services.Wrap(services.ErrExternalTool, "gemini", "generate", "", errors.New("http 503")), http.StatusInternalServerError, api.SummaryFailureMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.summarizer.err = tt.err
			w := f.do(t, http.MethodPost, "/summarize", `{"text":""}`, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if got := decodeError(t, w).Error; got != tt.wantError {
				t.Fatalf("expected error %q, got %q", tt.wantError, got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodOptions, "/summarize", "", map[string]string{"Origin": "http://localhost:3000"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), api.GeminiKeyHeader) {
		t.Fatalf("expected gemini key header to be allowed, got %q", w.Header().Get("Access-Control-Allow-Headers"))
	}

	w = f.do(t, http.MethodGet, "/progress", "", nil)
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Fatalf("expected Content-Disposition exposed, got %q", w.Header().Get("Access-Control-Expose-Headers"))
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	handler := cors([]string{"http://app.local"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	req.Header.Set("Origin", "http://app.local")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "http://app.local" {
		t.Fatalf("expected origin echoed, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected no allow-origin for unknown origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/progress", "", map[string]string{requestIDHeader: "abc-123"})
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected caller request id, got %q", got)
	}
}
