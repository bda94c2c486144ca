//go:build linux

package procutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

const procRoot = "/proc"

// Descendants returns every live descendant of pid.
func Descendants(pid int) ([]int, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	parents := make(map[int]int, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(procRoot, entry.Name(), "stat"))
		if err != nil {
			// Exited between listing and reading.
			continue
		}
		child, parent, err := parseStat(data)
		if err != nil {
			continue
		}
		parents[child] = parent
	}
	return collectDescendants(pid, parents), nil
}

// Kill sends SIGKILL to every pid. Processes that already exited are ignored.
func Kill(pids []int) error {
	var errs []error
	for _, pid := range pids {
		if pid <= 1 {
			continue
		}
		if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			errs = append(errs, fmt.Errorf("kill %d: %w", pid, err))
		}
	}
	return errors.Join(errs...)
}
