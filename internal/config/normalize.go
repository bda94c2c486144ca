package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeYTDLP(); err != nil {
		return err
	}
	c.normalizeTranscripts()
	c.normalizeGemini()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if value, ok := os.LookupEnv("YTSERVE_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = strings.TrimSpace(value)
	}
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.CORSOrigins = origins
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TempDir) != "" {
		if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
			return fmt.Errorf("paths.temp_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeYTDLP() error {
	c.YTDLP.Binary = strings.TrimSpace(c.YTDLP.Binary)
	if value, ok := os.LookupEnv("YTDLP_PATH"); ok && strings.TrimSpace(value) != "" {
		c.YTDLP.Binary = strings.TrimSpace(value)
	}
	if c.YTDLP.Binary == "" {
		c.YTDLP.Binary = defaultYTDLPBinary
	}
	if strings.HasPrefix(c.YTDLP.Binary, "~") {
		expanded, err := expandPath(c.YTDLP.Binary)
		if err != nil {
			return fmt.Errorf("ytdlp.binary: %w", err)
		}
		c.YTDLP.Binary = expanded
	}

	c.YTDLP.FFmpegLocation = strings.TrimSpace(c.YTDLP.FFmpegLocation)
	if c.YTDLP.FFmpegLocation == "" {
		if value, ok := os.LookupEnv("FFMPEG_LOCATION"); ok {
			c.YTDLP.FFmpegLocation = strings.TrimSpace(value)
		}
	}
	if c.YTDLP.FFmpegLocation != "" {
		expanded, err := expandPath(c.YTDLP.FFmpegLocation)
		if err != nil {
			return fmt.Errorf("ytdlp.ffmpeg_location: %w", err)
		}
		c.YTDLP.FFmpegLocation = expanded
	}

	c.YTDLP.VideoContainer = strings.ToLower(strings.TrimSpace(c.YTDLP.VideoContainer))
	if c.YTDLP.VideoContainer == "" {
		c.YTDLP.VideoContainer = defaultVideoContainer
	}
	c.YTDLP.AudioCodec = strings.ToLower(strings.TrimSpace(c.YTDLP.AudioCodec))
	if c.YTDLP.AudioCodec == "" {
		c.YTDLP.AudioCodec = defaultAudioCodec
	}
	c.YTDLP.AudioQuality = strings.TrimSpace(c.YTDLP.AudioQuality)
	if c.YTDLP.AudioQuality == "" {
		c.YTDLP.AudioQuality = defaultAudioQuality
	}
	if c.YTDLP.ProgressIntervalMS == 0 {
		c.YTDLP.ProgressIntervalMS = defaultProgressIntervalMS
	}
	return nil
}

func (c *Config) normalizeTranscripts() {
	c.Transcripts.DefaultLanguage = strings.TrimSpace(c.Transcripts.DefaultLanguage)
	if c.Transcripts.DefaultLanguage == "" {
		c.Transcripts.DefaultLanguage = defaultTranscriptLanguage
	}
	c.Transcripts.FallbackLanguage = strings.TrimSpace(c.Transcripts.FallbackLanguage)
	if c.Transcripts.FallbackLanguage == "" {
		c.Transcripts.FallbackLanguage = defaultFallbackLanguage
	}
	if c.Transcripts.TimeoutSeconds == 0 {
		c.Transcripts.TimeoutSeconds = defaultTranscriptTimeout
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
