package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ytserve/internal/config"
	"ytserve/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckGemini_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	result := CheckGemini(context.Background(), config.Gemini{BaseURL: srv.URL, Model: "m"}, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid.","details":[{"reason":"API_KEY_INVALID"}]}}`))
	}))
	defer srv.Close()

	result := CheckGemini(context.Background(), config.Gemini{BaseURL: srv.URL, Model: "m"}, "bad-key")
	if result.Passed || result.Detail != "API key rejected" {
		t.Fatalf("expected rejected key, got %+v", result)
	}
}

func TestRunAllSkipsGeminiWithoutKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.TempDir = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg, "")
	if len(results) != 2 {
		t.Fatalf("expected two directory checks, got %+v", results)
	}
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("expected %s to pass: %s", r.Name, r.Detail)
		}
	}
}

func TestCheckSystemDepsUsesConfiguredBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithMissingYTDLP())

	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("expected yt-dlp to be missing")
	}
	if !statuses[1].Available || !statuses[2].Available {
		t.Fatalf("expected ffmpeg and ffprobe available, got %+v", statuses)
	}
	if !statuses[2].Optional {
		t.Fatal("expected ffprobe to be optional")
	}
}
