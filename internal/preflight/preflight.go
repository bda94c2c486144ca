package preflight

import (
	"context"
	"strings"

	"ytserve/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for cfg and, when geminiKey is set,
// verifies the key against the configured model.
func RunAll(ctx context.Context, cfg *config.Config, geminiKey string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	// Empty means the system temp dir.
	if cfg.Paths.TempDir != "" {
		results = append(results, CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))
	}
	if strings.TrimSpace(geminiKey) != "" {
		results = append(results, CheckGemini(ctx, cfg.Gemini, geminiKey))
	}
	return results
}
