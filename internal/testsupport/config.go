// Package testsupport builds isolated configurations for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ytserve/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The bind address uses an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMissingYTDLP points the yt-dlp binary at a path that does not exist.
func WithMissingYTDLP() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YTDLP.Binary = filepath.Join(b.baseDir, "missing-yt-dlp")
	}
}

// WithStubbedBinaries writes no-op executables for names into a private bin
// directory that becomes ffmpeg_location. Empty names stubs ffmpeg and
// ffprobe. A stubbed yt-dlp is also configured as the yt-dlp binary.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			if name == "yt-dlp" {
				b.cfg.YTDLP.Binary = target
			}
		}
		b.cfg.YTDLP.FFmpegLocation = binDir
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
