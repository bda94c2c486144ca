package procutil

import (
	"context"
	"fmt"
	"os"
)

// TerminateTree snapshots the descendants of the current process, fires
// cancel, and then kills every snapshotted process still alive. It matches
// the progress.Terminator signature.
func TerminateTree(cancel context.CancelFunc) error {
	pids, err := Descendants(os.Getpid())
	if err != nil {
		cancel()
		return fmt.Errorf("snapshot process tree: %w", err)
	}
	cancel()
	if err := Kill(pids); err != nil {
		return fmt.Errorf("terminate process tree: %w", err)
	}
	return nil
}
