package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ytserve/internal/api"
	"ytserve/internal/apiclient"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the server's in-flight download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				status, err := client.Cancel(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch status {
				case api.StatusCancelled:
					fmt.Fprintln(out, "Download cancelled")
				case api.StatusIdle:
					fmt.Fprintln(out, "No download in progress")
				default:
					fmt.Fprintf(out, "Server replied: %s\n", status)
				}
				if !reset {
					return nil
				}
				if err := client.ResetProgress(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Progress reset")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Also reset the progress record afterwards")
	return cmd
}

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var apiKey string
	var file string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize text (such as a transcript) with Gemini",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey = envOr(apiKey, "GEMINI_API_KEY")
			if apiKey == "" {
				return errors.New("a Gemini API key is required (--key or GEMINI_API_KEY)")
			}
			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("no text to summarize")
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				summary, err := client.Summarize(cmd.Context(), apiKey, text)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&apiKey, "key", "", "Gemini API key (defaults to $GEMINI_API_KEY)")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "File to summarize (- reads stdin)")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// envOr returns value, or the named environment variable when value is blank.
func envOr(value, name string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(name))
}
