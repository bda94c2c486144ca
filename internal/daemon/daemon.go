package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"ytserve/internal/api"
	"ytserve/internal/config"
	"ytserve/internal/logging"
	"ytserve/internal/media"
	"ytserve/internal/preflight"
	"ytserve/internal/progress"
	"ytserve/internal/transcript"
)

const shutdownTimeout = 5 * time.Second

// Downloader fetches a video or audio file into memory.
type Downloader interface {
	Download(ctx context.Context, videoID, formatID string) (*media.DownloadResult, error)
}

// Catalog answers format and playlist questions.
type Catalog interface {
	Formats(ctx context.Context, videoID string) ([]media.FormatOption, error)
	Playlist(ctx context.Context, playlistID string) (*media.PlaylistInfo, error)
}

// Transcripts answers caption questions.
type Transcripts interface {
	Languages(ctx context.Context, videoID string) ([]transcript.Language, error)
	Check(ctx context.Context, videoID string) (bool, error)
	Get(ctx context.Context, videoID, lang string) (*transcript.Transcript, error)
}

// Summarizer turns transcript text into a summary using the caller's key.
type Summarizer interface {
	Summarize(ctx context.Context, apiKey, text string) (string, error)
}

// Services bundles the collaborators the HTTP handlers call.
type Services struct {
	Downloads   Downloader
	Catalog     Catalog
	Transcripts Transcripts
	Summarizer  Summarizer
	Tracker     *progress.Tracker
}

// Daemon owns the HTTP server and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	svc     Services
	version string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	handler http.Handler
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, svc Services, logger *slog.Logger, version string) (*Daemon, error) {
	if cfg == nil || svc.Downloads == nil || svc.Catalog == nil || svc.Transcripts == nil || svc.Summarizer == nil || svc.Tracker == nil {
		return nil, errors.New("daemon requires config, tracker, and all services")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		svc:      svc,
		version:  version,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.handler = newAPIServer(d, logger).routes()
	return d, nil
}

// Handler returns the fully wrapped HTTP handler.
func (d *Daemon) Handler() http.Handler {
	return d.handler
}

// Start acquires the instance lock.
func (d *Daemon) Start() error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another ytserve instance is already running (lock %s)", d.lockPath)
	}
	d.running.Store(true)
	d.logger.Info("ytserve daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels any in-flight download and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if cancelled, err := d.svc.Tracker.Cancel(); err != nil {
		d.logger.Warn("failed to stop in-flight download", logging.Error(err))
	} else if cancelled {
		d.logger.Info("in-flight download cancelled for shutdown")
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("ytserve daemon stopped")
}

// Run starts the daemon, serves HTTP on the configured bind address and
// blocks until ctx is cancelled or the listener fails.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	defer d.Stop()

	listener, err := net.Listen("tcp", d.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return d.Serve(ctx, listener)
}

// Serve runs the HTTP server on listener until ctx is done.
func (d *Daemon) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           d.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Downloads stream only after yt-dlp finishes, which has no upper bound.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if _, err := d.svc.Tracker.Cancel(); err != nil {
			d.logger.Warn("failed to stop in-flight download", logging.Error(err))
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) api.ServerStatus {
	return api.ServerStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Version:      d.version,
		Bind:         strings.TrimSpace(d.cfg.Server.Bind),
		LockFilePath: d.lockPath,
		Downloading:  d.svc.Tracker.Active(),
		Progress:     d.svc.Tracker.Snapshot(),
		Dependencies: api.FromDependencyStatuses(preflight.CheckSystemDeps(d.cfg)),
	}
}
