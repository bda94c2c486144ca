package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ytserve/internal/api"
	"ytserve/internal/apiclient"
	"ytserve/internal/preflight"
	"ytserve/internal/progress"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var geminiKey string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server, dependency and directory status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			status, reachable, err := fetchServerStatus(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if !reachable {
				status.Bind = cfg.Server.Bind
				status.LockFilePath = cfg.LockPath()
				status.Progress = progress.Default()
				status.Dependencies = api.FromDependencyStatuses(preflight.CheckSystemDeps(cfg))
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			checks := preflight.RunAll(cmd.Context(), cfg, envOr(geminiKey, "GEMINI_API_KEY"))
			renderStatus(cmd.OutOrStdout(), status, checks, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVar(&geminiKey, "gemini-key", "", "Also verify this Gemini API key (defaults to $GEMINI_API_KEY)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the server status as JSON")
	return cmd
}

// fetchServerStatus reports reachable=false instead of an error when nothing
// listens at the configured address.
func fetchServerStatus(cmdCtx context.Context, ctx *commandContext) (api.ServerStatus, bool, error) {
	addr, err := ctx.serverAddress()
	if err != nil {
		return api.ServerStatus{}, false, err
	}
	client, err := apiclient.New(addr)
	if err != nil {
		return api.ServerStatus{}, false, fmt.Errorf("server address %q: %w", addr, err)
	}
	status, err := client.Status(cmdCtx)
	if apiclient.IsAPIUnavailable(err) {
		return api.ServerStatus{}, false, nil
	}
	if err != nil {
		return api.ServerStatus{}, false, err
	}
	return status, true, nil
}

func renderStatus(out io.Writer, status api.ServerStatus, checks []preflight.Result, colorize bool) {
	for _, line := range renderSectionHeader("Server", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		detail := fmt.Sprintf("Running (pid %d", status.PID)
		if v := strings.TrimSpace(status.Version); v != "" {
			detail += ", version " + v
		}
		detail += ")"
		fmt.Fprintln(out, renderStatusLine("ytserve", statusOK, detail, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("ytserve", statusError, "Not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Bind address", statusInfo, status.Bind, colorize))
	fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
	fmt.Fprintln(out, renderStatusLine("Download", downloadKind(status), downloadDetail(status), colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range dependencyLines(status.Dependencies, colorize) {
		fmt.Fprintln(out, line)
	}

	if len(checks) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Checks", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
}

func downloadKind(status api.ServerStatus) statusKind {
	if status.Downloading {
		return statusWarn
	}
	if status.Progress.Status == progress.StatusCancelled {
		return statusWarn
	}
	return statusInfo
}

func downloadDetail(status api.ServerStatus) string {
	snap := status.Progress
	if !status.Downloading {
		return fmt.Sprintf("Idle (last status: %s)", snap.Status)
	}
	return fmt.Sprintf("%.1f%% at %s, ETA %s", snap.Progress, snap.Speed, snap.ETA)
}

func dependencyLines(deps []api.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(deps)+1)
	var missing []string
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Summary", statusError,
			"Missing dependencies: "+strings.Join(missing, ", "), colorize))
	}
	return lines
}
