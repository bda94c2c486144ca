package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

// ErrNoOutput is returned when a directory holds no usable media file.
var ErrNoOutput = errors.New("no output file found")

// sniffLen is enough header bytes for every matcher filetype ships.
const sniffLen = 262

// FindMedia locates the file a download produced inside dir. Files with the
// expected extension win; otherwise the largest file whose header sniffs as
// audio or video is returned. Partial downloads are ignored.
func FindMedia(dir, expectedExt string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read output directory: %w", err)
	}

	expectedExt = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(expectedExt)), ".")
	type candidate struct {
		path string
		size int64
	}
	var byExt, sniffed []candidate

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if isPartial(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, name)
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		if expectedExt != "" && ext == expectedExt {
			byExt = append(byExt, candidate{path, info.Size()})
			continue
		}
		if IsMedia(path) {
			sniffed = append(sniffed, candidate{path, info.Size()})
		}
	}

	pick := func(list []candidate) string {
		sort.SliceStable(list, func(i, j int) bool { return list[i].size > list[j].size })
		return list[0].path
	}
	switch {
	case len(byExt) > 0:
		return pick(byExt), nil
	case len(sniffed) > 0:
		return pick(sniffed), nil
	default:
		return "", ErrNoOutput
	}
}

// IsMedia reports whether the file header identifies an audio or video container.
func IsMedia(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	head = head[:n]
	return filetype.IsVideo(head) || filetype.IsAudio(head)
}

// RemoveError reports that a file was read but could not be deleted.
type RemoveError struct {
	Path string
	Err  error
}

func (e *RemoveError) Error() string {
	return fmt.Sprintf("remove %s: %v", e.Path, e.Err)
}

func (e *RemoveError) Unwrap() error { return e.Err }

// ReadAndRemove reads the whole file into memory and deletes it. When only the
// deletion fails the data is still returned together with a *RemoveError.
func ReadAndRemove(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return data, &RemoveError{Path: path, Err: err}
	}
	return data, nil
}

func isPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".part", ".ytdl", ".temp", ".tmp"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return strings.Contains(lower, ".part-frag")
}
