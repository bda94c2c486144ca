package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytserve/internal/apiclient"
	"ytserve/internal/language"
	"ytserve/internal/transcript"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var list bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcript <videoId>",
		Short: "Print a video's transcript or list its caption languages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := args[0]
			return ctx.withClient(func(client *apiclient.Client) error {
				if list {
					languages, err := client.TranscriptLanguages(cmd.Context(), videoID)
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, languages)
					}
					fmt.Fprint(cmd.OutOrStdout(), renderTable(
						[]string{"Code", "Name", "Auto-generated"},
						languageRows(languages),
						nil,
					))
					return nil
				}

				code := strings.TrimSpace(lang)
				if code != "" {
					normalized, ok := language.Normalize(code)
					if !ok {
						return fmt.Errorf("unrecognized language %q", code)
					}
					code = normalized
				}
				result, err := client.Transcript(cmd.Context(), videoID, code)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, result)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Language: %s\n", result.Language)
				fmt.Fprintln(cmd.OutOrStdout(), result.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language code or English name (server default when empty)")
	cmd.Flags().BoolVar(&list, "list", false, "List available caption languages instead")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reply as JSON")
	return cmd
}

func languageRows(languages []transcript.Language) [][]string {
	rows := make([][]string, 0, len(languages))
	for _, l := range languages {
		rows = append(rows, []string{l.Code, l.Name, yesNo(l.IsGenerated)})
	}
	return rows
}
