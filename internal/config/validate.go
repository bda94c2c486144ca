package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/text/language"
)

var (
	supportedContainers = map[string]struct{}{"mkv": {}, "mp4": {}, "webm": {}, "mov": {}}
	supportedAudio      = map[string]struct{}{"mp3": {}, "m4a": {}, "aac": {}, "opus": {}, "flac": {}, "wav": {}, "vorbis": {}}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateYTDLP(); err != nil {
		return err
	}
	if err := c.validateTranscripts(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateYTDLP() error {
	if _, ok := supportedContainers[c.YTDLP.VideoContainer]; !ok {
		return fmt.Errorf("ytdlp.video_container %q is not supported", c.YTDLP.VideoContainer)
	}
	if _, ok := supportedAudio[c.YTDLP.AudioCodec]; !ok {
		return fmt.Errorf("ytdlp.audio_codec %q is not supported", c.YTDLP.AudioCodec)
	}
	if c.YTDLP.ProgressIntervalMS < 0 {
		return errors.New("ytdlp.progress_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateTranscripts() error {
	if _, err := language.Parse(c.Transcripts.DefaultLanguage); err != nil {
		return fmt.Errorf("transcripts.default_language %q: %w", c.Transcripts.DefaultLanguage, err)
	}
	if _, err := language.Parse(c.Transcripts.FallbackLanguage); err != nil {
		return fmt.Errorf("transcripts.fallback_language %q: %w", c.Transcripts.FallbackLanguage, err)
	}
	if c.Transcripts.TimeoutSeconds < 0 {
		return errors.New("transcripts.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateGemini() error {
	if !strings.HasPrefix(c.Gemini.BaseURL, "http://") && !strings.HasPrefix(c.Gemini.BaseURL, "https://") {
		return fmt.Errorf("gemini.base_url %q must be an http(s) URL", c.Gemini.BaseURL)
	}
	if c.Gemini.TimeoutSeconds < 0 {
		return errors.New("gemini.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}
