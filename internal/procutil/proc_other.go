//go:build !linux

package procutil

import (
	"errors"
	"fmt"
	"os"
)

// Descendants is not supported outside Linux; the download context alone
// stops yt-dlp there.
func Descendants(int) ([]int, error) {
	return nil, nil
}

// Kill terminates each pid through os.Process.
func Kill(pids []int) error {
	var errs []error
	for _, pid := range pids {
		proc, err := os.FindProcess(pid)
		if err != nil {
			continue
		}
		if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("kill %d: %w", pid, err))
		}
	}
	return errors.Join(errs...)
}
