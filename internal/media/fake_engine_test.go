package media

import (
	"context"
	"os"
	"path/filepath"

	"ytserve/internal/media/ffprobe"
	"ytserve/internal/progress"
)

type fakeEngine struct {
	probe       *VideoInfo
	probeErr    error
	playlist    *PlaylistInfo
	playlistErr error

	files       map[string][]byte
	samples     []progress.Sample
	downloadErr error
	block       bool

	gotRequest DownloadRequest
	gotURL     string
}

func (f *fakeEngine) Probe(_ context.Context, videoURL string) (*VideoInfo, error) {
	f.gotURL = videoURL
	return f.probe, f.probeErr
}

func (f *fakeEngine) Playlist(_ context.Context, playlistURL string) (*PlaylistInfo, error) {
	f.gotURL = playlistURL
	return f.playlist, f.playlistErr
}

func (f *fakeEngine) Download(ctx context.Context, req DownloadRequest, onProgress func(progress.Sample)) error {
	f.gotRequest = req
	for _, s := range f.samples {
		onProgress(s)
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.downloadErr != nil {
		return f.downloadErr
	}
	for name, data := range f.files {
		if err := os.WriteFile(filepath.Join(req.OutputDir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

type fakeInspector struct {
	result ffprobe.Result
	err    error
	calls  int
}

func (f *fakeInspector) Inspect(context.Context, string) (ffprobe.Result, error) {
	f.calls++
	return f.result, f.err
}
