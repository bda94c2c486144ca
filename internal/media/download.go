package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ytserve/internal/fileutil"
	"ytserve/internal/logging"
	"ytserve/internal/media/ffprobe"
	"ytserve/internal/progress"
	"ytserve/internal/services"
)

const (
	audioContentType = "audio/mp3"
	videoContentType = "video/mp4"
)

// Inspector verifies a finished file before it is returned.
type Inspector interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// DownloadOptions configures a DownloadService.
type DownloadOptions struct {
	// TempRoot is the parent of per-download temporary directories. Empty uses
	// the system default.
	TempRoot       string
	VideoContainer string
	AudioCodec     string
	Inspector      Inspector
}

// DownloadResult is a finished download held in memory.
type DownloadResult struct {
	Filename    string
	ContentType string
	Audio       bool
	Data        []byte
}

// DownloadService runs one download at a time per request and reports
// progress through the shared tracker.
type DownloadService struct {
	engine  Engine
	tracker *progress.Tracker
	opts    DownloadOptions
	logger  *slog.Logger
}

// NewDownloadService wires an engine to a tracker.
func NewDownloadService(engine Engine, tracker *progress.Tracker, opts DownloadOptions, logger *slog.Logger) *DownloadService {
	if opts.VideoContainer == "" {
		opts.VideoContainer = "mkv"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "mp3"
	}
	return &DownloadService{
		engine:  engine,
		tracker: tracker,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "download"),
	}
}

// Download fetches videoID in the requested format and returns the file
// contents. The temporary directory is always removed.
func (s *DownloadService) Download(ctx context.Context, videoID, formatID string) (*DownloadResult, error) {
	videoID = strings.TrimSpace(videoID)
	formatID = strings.TrimSpace(formatID)
	if videoID == "" || formatID == "" {
		return nil, services.Wrap(services.ErrValidation, "download", "validate", "videoId and formatId are required", nil)
	}

	ctx = services.WithVideoID(ctx, videoID)
	logger := logging.WithContext(ctx, s.logger)
	selection := Select(formatID)
	if selection.Audio && selection.Format == "" {
		return nil, services.Wrap(services.ErrValidation, "download", "validate", "Invalid formatId", nil)
	}

	tempDir, err := os.MkdirTemp(s.opts.TempRoot, "ytserve-*")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "download", "temp dir", "", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Debug("temporary directory cleanup failed", logging.String("dir", tempDir), logging.Error(err))
		}
	}()

	jobCtx, job := s.tracker.Begin(ctx)
	defer s.tracker.Finish(job)

	logger.Info("download started",
		logging.String("format_id", formatID),
		logging.Bool("audio", selection.Audio),
		logging.String("job_id", job.ID()),
	)

	sampler := logging.NewProgressSampler(25)
	err = s.engine.Download(jobCtx, DownloadRequest{
		URL:       WatchURL(videoID),
		Selection: selection,
		OutputDir: tempDir,
	}, func(sample progress.Sample) {
		s.tracker.Update(job, sample)
		status := string(progress.StatusDownloading)
		if sample.Finished {
			status = string(progress.StatusFinished)
		}
		if sampler.ShouldLog(sample.Percent(), status) {
			logger.Debug("download progress",
				logging.Float64("percent", sample.Percent()),
				logging.String("speed", progress.FormatSpeed(sample.BytesPerSecond)),
			)
		}
	})
	if err != nil {
		if services.IsCanceled(err) {
			logger.Info("download cancelled", logging.String("job_id", job.ID()))
		} else {
			logging.ErrorWithContext(logger, "download failed", "download_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that yt-dlp and ffmpeg are installed and up to date"),
			)
		}
		return nil, err
	}

	path, err := fileutil.FindMedia(tempDir, s.expectedExt(selection))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "download", "locate output", "Downloaded file not found", err)
	}

	if err := s.verify(ctx, logger, path, selection.Audio); err != nil {
		return nil, err
	}

	data, err := fileutil.ReadAndRemove(path)
	var removeErr *fileutil.RemoveError
	switch {
	case errors.As(err, &removeErr):
		logger.Debug("output cleanup failed", logging.Error(err))
	case err != nil:
		return nil, services.Wrap(services.ErrExternalTool, "download", "read output", "", err)
	}

	contentType := videoContentType
	if selection.Audio {
		contentType = audioContentType
	}
	filename := filepath.Base(path)
	logger.Info("download completed",
		logging.String("file", filename),
		logging.Int("bytes", len(data)),
	)
	return &DownloadResult{
		Filename:    filename,
		ContentType: contentType,
		Audio:       selection.Audio,
		Data:        data,
	}, nil
}

func (s *DownloadService) verify(ctx context.Context, logger *slog.Logger, path string, audio bool) error {
	if s.opts.Inspector == nil {
		return nil
	}
	result, err := s.opts.Inspector.Inspect(ctx, path)
	if errors.Is(err, ffprobe.ErrUnavailable) {
		return nil
	}
	if err != nil {
		logging.WarnWithContext(logger, "output inspection failed", "output_inspect_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file returned without stream verification"),
		)
		return nil
	}
	if err := result.Verify(audio); err != nil {
		return services.Wrap(services.ErrExternalTool, "download", "verify output", filepath.Base(path), err)
	}
	logger.Debug("output verified", logging.Float64("duration_seconds", result.DurationSeconds()))
	return nil
}

func (s *DownloadService) expectedExt(sel Selection) string {
	if !sel.Audio {
		return s.opts.VideoContainer
	}
	switch s.opts.AudioCodec {
	case "vorbis":
		return "ogg"
	case "aac":
		return "m4a"
	default:
		return s.opts.AudioCodec
	}
}
