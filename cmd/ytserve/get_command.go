package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"ytserve/internal/apiclient"
	"ytserve/internal/progress"
	"ytserve/internal/textutil"
)

const progressPollInterval = 500 * time.Millisecond

func newGetCommand(ctx *commandContext) *cobra.Command {
	var formatID string
	var output string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "get <videoId>",
		Short: "Download a video through the server with a progress bar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := strings.TrimSpace(args[0])
			signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withClient(func(client *apiclient.Client) error {
				var bar *progressBar
				if !quiet {
					bar = newProgressBar(signalCtx, cmd.ErrOrStderr(), videoID+" ["+formatID+"]")
				}
				dl, err := downloadWithProgress(signalCtx, client, videoID, formatID, bar)
				if err != nil {
					if signalCtx.Err() != nil {
						// The server keeps running yt-dlp unless told otherwise.
						cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						_, _ = client.Cancel(cancelCtx)
						return context.Canceled
					}
					return err
				}
				defer dl.Body.Close()

				target, err := resolveOutputPath(output, dl.Filename, videoID, dl.ContentType)
				if err != nil {
					return err
				}
				written, err := saveBody(target, dl.Body)
				if err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", target, humanize.IBytes(uint64(written)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&formatID, "format", "f", "1080p", "Format ID from `ytserve formats`")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (current directory when empty)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable the progress bar")
	return cmd
}

// downloadWithProgress blocks on the download request while polling the
// server's progress record into bar.
func downloadWithProgress(ctx context.Context, client *apiclient.Client, videoID, formatID string, bar *progressBar) (*apiclient.Download, error) {
	pollCtx, stopPolling := context.WithCancel(ctx)
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		if bar == nil {
			return
		}
		ticker := time.NewTicker(progressPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				snap, err := client.Progress(pollCtx)
				if err == nil {
					bar.update(snap)
				}
			}
		}
	}()

	dl, err := client.Download(ctx, videoID, formatID)
	stopPolling()
	<-polled
	if bar != nil {
		bar.finish(err == nil)
	}
	return dl, err
}

type progressBar struct {
	container *mpb.Progress
	bar       *mpb.Bar
	detail    atomic.Value
}

func newProgressBar(ctx context.Context, out io.Writer, name string) *progressBar {
	p := &progressBar{container: mpb.NewWithContext(ctx, mpb.WithOutput(out), mpb.WithWidth(40))}
	p.detail.Store(string(progress.StatusStarting))
	p.bar = p.container.AddBar(100,
		mpb.PrependDecorators(decor.Name(name, decor.WCSyncSpaceR)),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 6}),
			decor.Any(func(decor.Statistics) string {
				return " " + p.detail.Load().(string)
			}),
		),
	)
	return p
}

func (p *progressBar) update(snap progress.Snapshot) {
	switch snap.Status {
	case progress.StatusDownloading:
		p.detail.Store(fmt.Sprintf("%s ETA %s", snap.Speed, snap.ETA))
	default:
		p.detail.Store(string(snap.Status))
	}
	p.bar.SetCurrent(int64(snap.Progress))
}

func (p *progressBar) finish(ok bool) {
	if ok {
		p.detail.Store(string(progress.StatusFinished))
		p.bar.SetCurrent(100)
	} else {
		p.bar.Abort(false)
	}
	p.container.Wait()
}

// resolveOutputPath places the server-suggested filename inside output when
// output is a directory or empty.
func resolveOutputPath(output, suggested, videoID, contentType string) (string, error) {
	name := textutil.SanitizeFileName(filepath.Base(suggested))
	if name == "" || name == "." {
		name = videoID + extensionFor(contentType)
	}
	output = strings.TrimSpace(output)
	if output == "" {
		return name, nil
	}
	info, err := os.Stat(output)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(output, name), nil
	case err == nil || errors.Is(err, os.ErrNotExist):
		return output, nil
	default:
		return "", fmt.Errorf("inspect output path: %w", err)
	}
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "audio/mp3", "audio/mpeg":
		return ".mp3"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func saveBody(target string, body io.Reader) (int64, error) {
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}
	written, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return 0, fmt.Errorf("write %s: %w", target, err)
	}
	return written, nil
}
