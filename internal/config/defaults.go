package config

const (
	defaultBind               = "127.0.0.1:5000"
	defaultStateDir           = "~/.local/state/ytserve"
	defaultLogDir             = "~/.local/state/ytserve/logs"
	defaultYTDLPBinary        = "yt-dlp"
	defaultVideoContainer     = "mkv"
	defaultAudioCodec         = "mp3"
	defaultAudioQuality       = "192"
	defaultProgressIntervalMS = 500
	defaultTranscriptLanguage = "en"
	defaultFallbackLanguage   = "hi"
	defaultTranscriptTimeout  = 30
	defaultGeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel        = "gemini-2.0-flash"
	defaultGeminiTimeout      = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:        defaultBind,
			CORSOrigins: []string{"*"},
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		YTDLP: YTDLP{
			Binary:             defaultYTDLPBinary,
			VideoContainer:     defaultVideoContainer,
			AudioCodec:         defaultAudioCodec,
			AudioQuality:       defaultAudioQuality,
			ProgressIntervalMS: defaultProgressIntervalMS,
		},
		Transcripts: Transcripts{
			DefaultLanguage:  defaultTranscriptLanguage,
			FallbackLanguage: defaultFallbackLanguage,
			TimeoutSeconds:   defaultTranscriptTimeout,
		},
		Playlist: Playlist{
			NativeFallback: true,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
