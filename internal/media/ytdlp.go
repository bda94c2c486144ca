package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"ytserve/internal/logging"
	"ytserve/internal/progress"
	"ytserve/internal/services"
)

const outputTemplate = "%(title)s.%(ext)s"

// YTDLPOptions configures the yt-dlp engine.
type YTDLPOptions struct {
	Binary           string
	FFmpegLocation   string
	VideoContainer   string
	AudioCodec       string
	AudioQuality     string
	ProgressInterval time.Duration
}

// YTDLP runs yt-dlp through go-ytdlp.
type YTDLP struct {
	opts   YTDLPOptions
	logger *slog.Logger
}

// NewYTDLP constructs the production engine.
func NewYTDLP(opts YTDLPOptions, logger *slog.Logger) *YTDLP {
	if opts.VideoContainer == "" {
		opts.VideoContainer = "mkv"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "mp3"
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = "192"
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 500 * time.Millisecond
	}
	return &YTDLP{opts: opts, logger: logging.NewComponentLogger(logger, "ytdlp")}
}

// InstallYTDLP downloads a managed yt-dlp build when none is resolvable and
// returns the executable path.
func InstallYTDLP(ctx context.Context) (string, error) {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "install", "", err)
	}
	return resolved.Executable, nil
}

func (e *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if bin := strings.TrimSpace(e.opts.Binary); bin != "" {
		cmd.SetExecutable(bin)
	}
	if loc := strings.TrimSpace(e.opts.FFmpegLocation); loc != "" {
		cmd.FFmpegLocation(loc)
	}
	return cmd
}

// Probe implements Engine.
func (e *YTDLP) Probe(ctx context.Context, videoURL string) (*VideoInfo, error) {
	result, err := e.command().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist().
		Run(ctx, videoURL)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "probe", toolMessage(result), err)
	}
	info, err := ParseVideoInfo([]byte(result.Stdout))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "probe", "", err)
	}
	return info, nil
}

// Playlist implements Engine.
func (e *YTDLP) Playlist(ctx context.Context, playlistURL string) (*PlaylistInfo, error) {
	result, err := e.command().
		FlatPlaylist().
		DumpSingleJSON().
		Run(ctx, playlistURL)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "playlist", toolMessage(result), err)
	}
	info, err := ParsePlaylistInfo([]byte(result.Stdout))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "playlist", "", err)
	}
	return info, nil
}

// Download implements Engine.
func (e *YTDLP) Download(ctx context.Context, req DownloadRequest, onProgress func(progress.Sample)) error {
	cmd := e.command().
		NoPlaylist().
		Format(req.Selection.Format).
		Output(filepath.Join(req.OutputDir, outputTemplate))

	if req.Selection.Audio {
		cmd.ExtractAudio().
			AudioFormat(e.opts.AudioCodec).
			AudioQuality(e.opts.AudioQuality).
			NoKeepVideo()
	} else {
		cmd.MergeOutputFormat(e.opts.VideoContainer).
			RemuxVideo(e.opts.VideoContainer)
	}

	if onProgress != nil {
		cmd.ProgressFunc(e.opts.ProgressInterval, func(update ytdlp.ProgressUpdate) {
			onProgress(sampleFromUpdate(update))
		})
	}

	e.logger.Debug("yt-dlp download starting",
		logging.String("format", req.Selection.Format),
		logging.Bool("audio", req.Selection.Audio),
		logging.String("output_dir", req.OutputDir),
	)
	result, err := cmd.Run(ctx, req.URL)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrCanceled, "ytdlp", "download", "", ctx.Err())
		}
		return services.Wrap(services.ErrExternalTool, "ytdlp", "download", toolMessage(result), err)
	}
	return nil
}

func sampleFromUpdate(update ytdlp.ProgressUpdate) progress.Sample {
	sample := progress.Sample{
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
		ETA:             update.ETA(),
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
			sample.BytesPerSecond = float64(update.DownloadedBytes) / elapsed
		}
	}
	if update.Status == ytdlp.ProgressStatusFinished {
		sample.Finished = true
	}
	return sample
}

// toolMessage extracts the most useful line from a failed yt-dlp run.
func toolMessage(result *ytdlp.Result) string {
	if result != nil {
		for _, line := range strings.Split(strings.TrimSpace(result.Stderr), "\n") {
			if strings.HasPrefix(line, "ERROR:") {
				return strings.TrimSpace(line)
			}
		}
	}
	if result != nil && result.ExitCode != 0 {
		return fmt.Sprintf("yt-dlp exited with code %d", result.ExitCode)
	}
	return ""
}
