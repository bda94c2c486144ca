package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/vfaronov/httpheader"

	"ytserve/internal/api"
	"ytserve/internal/media"
	"ytserve/internal/progress"
	"ytserve/internal/transcript"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, "", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "127.0.0.1:5000")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestStatusReportsStoppedServer(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, nil)
	addr := srv.URL
	srv.Close()

	out, _, err := runCLI(t, []string{"status"}, addr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[ERROR] Not running")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "State directory")
}

func TestStatusReportsRunningServer(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/status": jsonReply(http.StatusOK, api.ServerStatus{
			Running:     true,
			PID:         42,
			Version:     "test",
			Bind:        "127.0.0.1:5000",
			Downloading: true,
			Progress:    progress.Snapshot{Progress: 12.5, Speed: "1.0 MiB/s", ETA: "00:10", Status: progress.StatusDownloading},
			Dependencies: []api.DependencyStatus{
				{Name: "yt-dlp", Command: "yt-dlp", Available: true},
				{Name: "FFmpeg", Command: "ffmpeg", Available: false, Detail: "not found"},
			},
		}),
	})

	out, _, err := runCLI(t, []string{"status"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid 42, version test)")
	requireContains(t, out, "12.5% at 1.0 MiB/s, ETA 00:10")
	requireContains(t, out, "[OK] Ready (command: yt-dlp)")
	requireContains(t, out, "Missing dependencies: FFmpeg")
}

func TestFormatsRendersTable(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/formats": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("videoId") != "abc123" {
				t.Errorf("videoId = %q", r.URL.Query().Get("videoId"))
			}
			jsonReply(http.StatusOK, []media.FormatOption{
				{FormatID: "1080p", Extension: "mp4", Quality: "1080p", Label: "Full HD (1080p)", VCodec: "avc1", Type: media.FormatVideo},
				{FormatID: "audio_high", Extension: "mp3", Quality: "High Quality", Label: "High Quality Audio", Codec: "opus", Type: media.FormatAudio},
			})(w, r)
		},
	})

	out, _, err := runCLI(t, []string{"formats", "abc123"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	requireContains(t, out, "Full HD (1080p)")
	requireContains(t, out, "avc1")
	requireContains(t, out, "audio_high")
}

func TestFormatsSurfacesServerError(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/formats": jsonReply(http.StatusBadRequest, api.ErrorResponse{Error: "Video unavailable"}),
	})

	_, _, err := runCLI(t, []string{"formats", "gone"}, srv.URL, env.configPath)
	if err == nil {
		t.Fatal("expected error")
	}
	requireContains(t, err.Error(), "Video unavailable")
}

func TestPlaylistRendersDurations(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/playlist-info": jsonReply(http.StatusOK, media.PlaylistInfo{
			Title: "Mix",
			Videos: []media.PlaylistEntry{
				{ID: "v1", Title: "First", Duration: 3661},
				{ID: "v2", Title: "Second", Duration: 0},
			},
		}),
	})

	out, _, err := runCLI(t, []string{"playlist", "PL1"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("playlist: %v", err)
	}
	requireContains(t, out, "Mix (2 videos)")
	requireContains(t, out, "1:01:01")
	requireContains(t, out, "Second")
}

func TestTranscriptPrintsTextAndLanguages(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/get-transcript": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("language"); got != "de" {
				t.Errorf("language = %q", got)
			}
			jsonReply(http.StatusOK, transcript.Transcript{Text: "[00:01] hallo", Language: "German", IsGenerated: false})(w, r)
		},
		"/get-transcript-languages": jsonReply(http.StatusOK, []transcript.Language{
			{Code: "en", Name: "English (auto-generated)", IsGenerated: true},
		}),
	})

	out, stderr, err := runCLI(t, []string{"transcript", "vid", "--lang", "German"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	requireContains(t, out, "[00:01] hallo")
	requireContains(t, stderr, "Language: German")

	out, _, err = runCLI(t, []string{"transcript", "vid", "--list"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("transcript --list: %v", err)
	}
	requireContains(t, out, "English (auto-generated)")
	requireContains(t, out, "yes")
}

func TestGetSavesServerFilename(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/download": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("formatId") != "audio_high" {
				t.Errorf("formatId = %q", r.URL.Query().Get("formatId"))
			}
			w.Header().Set("Content-Type", "audio/mp3")
			httpheader.SetContentDisposition(w.Header(), "attachment", "Song: Live.mp3", nil)
			_, _ = io.WriteString(w, "ID3data")
		},
		"/progress": jsonReply(http.StatusOK, progress.Default()),
	})
	outDir := t.TempDir()

	out, _, err := runCLI(t, []string{"get", "vid", "--format", "audio_high", "--output", outDir, "--quiet"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	target := filepath.Join(outDir, "Song- Live.mp3")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "ID3data" {
		t.Fatalf("content = %q", data)
	}
	requireContains(t, out, "Saved")
}

func TestCancelReportsServerState(t *testing.T) {
	env := setupCLITestEnv(t)
	var status atomic.Value
	status.Store(api.StatusIdle)
	var resets atomic.Int32
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/cancel": func(w http.ResponseWriter, r *http.Request) {
			jsonReply(http.StatusOK, api.StatusResponse{Status: status.Load().(string)})(w, r)
		},
		"/reset-progress": func(w http.ResponseWriter, r *http.Request) {
			resets.Add(1)
			jsonReply(http.StatusOK, api.StatusResponse{Status: api.StatusReset})(w, r)
		},
	})

	out, _, err := runCLI(t, []string{"cancel"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	requireContains(t, out, "No download in progress")

	status.Store(api.StatusCancelled)
	out, _, err = runCLI(t, []string{"cancel", "--reset"}, srv.URL, env.configPath)
	if err != nil {
		t.Fatalf("cancel --reset: %v", err)
	}
	requireContains(t, out, "Download cancelled")
	requireContains(t, out, "Progress reset")
	if got := resets.Load(); got != 1 {
		t.Fatalf("resets = %d, want 1", got)
	}
}

func TestSummarizeSendsKeyAndText(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/summarize": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get(api.GeminiKeyHeader); got != "k-123" {
				t.Errorf("key header = %q", got)
			}
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "long transcript") {
				t.Errorf("body = %s", body)
			}
			jsonReply(http.StatusOK, api.SummarizeResponse{Summary: "short"})(w, r)
		},
	})
	t.Setenv("GEMINI_API_KEY", "k-123")

	out, _, err := runCLIWithInput(t, []string{"summarize"}, srv.URL, env.configPath, "long transcript")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	requireContains(t, out, "short")
}

func TestSummarizeRequiresKey(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLIWithInput(t, []string{"summarize"}, "127.0.0.1:1", env.configPath, "text")
	if err == nil {
		t.Fatal("expected missing key error")
	}
	requireContains(t, err.Error(), "GEMINI_API_KEY")
}

func TestClientCommandsExplainMissingServer(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newFakeServer(t, nil)
	addr := srv.URL
	srv.Close()

	_, _, err := runCLI(t, []string{"cancel"}, addr, env.configPath)
	if err == nil {
		t.Fatal("expected error")
	}
	requireContains(t, err.Error(), "ytserve serve")
}
