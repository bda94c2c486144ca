package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"ytserve/internal/config"
	"ytserve/internal/daemon"
	"ytserve/internal/deps"
	"ytserve/internal/logging"
	"ytserve/internal/media"
	"ytserve/internal/media/ffprobe"
	"ytserve/internal/preflight"
	"ytserve/internal/procutil"
	"ytserve/internal/progress"
	"ytserve/internal/services/gemini"
	"ytserve/internal/transcript"
	"ytserve/internal/ytclient"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel string
	Bind     string
	Version  string
}

// Run starts the ytserve HTTP backend and blocks until SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if bind := strings.TrimSpace(opts.Bind); bind != "" {
		cfg.Server.Bind = bind
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ensureYTDLP(signalCtx, logger, cfg)
	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, "ytserve.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, buildServices(cfg, logger), logger, opts.Version)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		logger.Error("ytserve daemon exited",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_run_failed"),
			logging.String(logging.FieldErrorHint, "check that the bind address is free and no other instance holds the lock"),
		)
		return err
	}
	logger.Info("ytserve daemon shutting down")
	return nil
}

func buildServices(cfg *config.Config, logger *slog.Logger) daemon.Services {
	tracker := progress.NewTracker(progress.WithTerminator(procutil.TerminateTree))

	engine := media.NewYTDLP(media.YTDLPOptions{
		Binary:           cfg.YTDLP.Binary,
		FFmpegLocation:   cfg.YTDLP.FFmpegLocation,
		VideoContainer:   cfg.YTDLP.VideoContainer,
		AudioCodec:       cfg.YTDLP.AudioCodec,
		AudioQuality:     cfg.YTDLP.AudioQuality,
		ProgressInterval: cfg.ProgressInterval(),
	}, logger)

	youtube := ytclient.New(nil, cfg.TranscriptTimeout(), logger)
	var fallback media.PlaylistLister
	if cfg.Playlist.NativeFallback {
		fallback = youtube
	}

	return daemon.Services{
		Downloads: media.NewDownloadService(engine, tracker, media.DownloadOptions{
			TempRoot:       cfg.Paths.TempDir,
			VideoContainer: cfg.YTDLP.VideoContainer,
			AudioCodec:     cfg.YTDLP.AudioCodec,
			Inspector:      ffprobe.New(cfg.FFprobeBinary()),
		}, logger),
		Catalog: media.NewCatalog(engine, fallback, logger),
		Transcripts: transcript.NewService(
			youtube,
			transcript.NewTimedTextFetcher(nil, cfg.TranscriptTimeout()),
			transcript.Options{
				DefaultLanguage:  cfg.Transcripts.DefaultLanguage,
				FallbackLanguage: cfg.Transcripts.FallbackLanguage,
			},
			logger,
		),
		Summarizer: gemini.NewClient(gemini.Config{
			BaseURL:        cfg.Gemini.BaseURL,
			Model:          cfg.Gemini.Model,
			TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
		}),
		Tracker: tracker,
	}
}

// ensureYTDLP installs a managed yt-dlp when the configured binary is missing
// and auto_install is enabled.
func ensureYTDLP(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if !cfg.YTDLP.AutoInstall {
		return
	}
	status := deps.CheckBinaries([]deps.Requirement{{Name: "yt-dlp", Command: cfg.YTDLP.Binary}})
	if len(status) == 1 && status[0].Available {
		return
	}
	path, err := media.InstallYTDLP(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "yt-dlp auto-install failed", "ytdlp_install_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "downloads and format lookups will fail"),
			logging.String(logging.FieldErrorHint, "install yt-dlp manually or set ytdlp.binary"),
		)
		return
	}
	cfg.YTDLP.Binary = path
	logger.Info("yt-dlp installed", logging.String("binary", path))
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("bind", cfg.Server.Bind),
		logging.String("video_container", cfg.YTDLP.VideoContainer),
		logging.String("audio_codec", cfg.YTDLP.AudioCodec),
		logging.String("fallback_language", cfg.Transcripts.FallbackLanguage),
		logging.Bool("playlist_native_fallback", cfg.Playlist.NativeFallback),
		logging.String("gemini_model", cfg.Gemini.Model),
	}
	statuses := preflight.CheckSystemDeps(cfg)
	for _, s := range statuses {
		key := strings.ToLower(strings.ReplaceAll(s.Name, "-", "_"))
		attrs = append(attrs,
			logging.Bool(key+"_available", s.Available),
			logging.String(key+"_binary", s.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logging.WarnWithContext(logger, "required dependencies missing", "dependency_missing",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldImpact, "downloads will fail until installed"),
		)
	}
}
