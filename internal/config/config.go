package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener configuration.
type Server struct {
	Bind        string   `toml:"bind"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Paths contains directory configuration.
type Paths struct {
	TempDir  string `toml:"temp_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// YTDLP contains settings for the yt-dlp extraction engine.
type YTDLP struct {
	Binary             string `toml:"binary"`
	FFmpegLocation     string `toml:"ffmpeg_location"`
	VideoContainer     string `toml:"video_container"`
	AudioCodec         string `toml:"audio_codec"`
	AudioQuality       string `toml:"audio_quality"`
	ProgressIntervalMS int    `toml:"progress_interval_ms"`
	AutoInstall        bool   `toml:"auto_install"`
}

// Transcripts contains caption lookup settings.
type Transcripts struct {
	DefaultLanguage string `toml:"default_language"`
	// FallbackLanguage is the auto-generated track translated into the requested
	// language when no track exists for it.
	FallbackLanguage string `toml:"fallback_language"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Playlist contains playlist lookup settings.
type Playlist struct {
	NativeFallback bool `toml:"native_fallback"`
}

// Gemini contains connection settings for the summarization model. The API key
// is always supplied per request by the caller.
type Gemini struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ytserve.
//
// Configuration sections by subsystem:
//   - Server: listener address and CORS origins
//   - Paths: temporary download space, lock file and log directories
//   - YTDLP: extraction engine binary and post-processing defaults
//   - Transcripts: default and fallback caption languages
//   - Playlist: playlist lookup behaviour
//   - Gemini: summarization endpoint and model
//   - Logging: log format and level
type Config struct {
	Server      Server      `toml:"server"`
	Paths       Paths       `toml:"paths"`
	YTDLP       YTDLP       `toml:"ytdlp"`
	Transcripts Transcripts `toml:"transcripts"`
	Playlist    Playlist    `toml:"playlist"`
	Gemini      Gemini      `toml:"gemini"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ytserve/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytserve.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.TempDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the file used to enforce a single server instance.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "ytserve.lock")
}

// FFprobeBinary returns the ffprobe executable name, preferring the configured
// ffmpeg location when it is a directory.
func (c *Config) FFprobeBinary() string {
	return siblingBinary(c.YTDLP.FFmpegLocation, "ffprobe")
}

// FFmpegBinary returns the ffmpeg executable yt-dlp will post-process with.
func (c *Config) FFmpegBinary() string {
	return siblingBinary(c.YTDLP.FFmpegLocation, "ffmpeg")
}

// ProgressInterval returns how often yt-dlp progress callbacks fire.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.YTDLP.ProgressIntervalMS) * time.Millisecond
}

// TranscriptTimeout returns the HTTP timeout for caption lookups.
func (c *Config) TranscriptTimeout() time.Duration {
	return time.Duration(c.Transcripts.TimeoutSeconds) * time.Second
}

func siblingBinary(location, name string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return name
	}
	if info, err := os.Stat(location); err == nil && info.IsDir() {
		return filepath.Join(location, name)
	}
	if filepath.Base(location) == name {
		return location
	}
	return filepath.Join(filepath.Dir(location), name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
