package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ytserve/internal/apiclient"
	"ytserve/internal/media"
)

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "formats <videoId>",
		Short: "List the download options offered for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				options, err := client.Formats(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, options)
				}
				out := cmd.OutOrStdout()
				if len(options) == 0 {
					fmt.Fprintln(out, "No formats available")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"Format ID", "Type", "Quality", "Ext", "Codec", "Label"},
					formatRows(options),
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw format list as JSON")
	return cmd
}

func formatRows(options []media.FormatOption) [][]string {
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		codec := opt.Codec
		if opt.Type == media.FormatVideo {
			codec = opt.VCodec
		}
		rows = append(rows, []string{opt.FormatID, string(opt.Type), opt.Quality, opt.Extension, codec, opt.Label})
	}
	return rows
}

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "playlist <playlistId>",
		Short: "List the videos of a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				info, err := client.Playlist(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, info)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%d videos)\n", info.Title, len(info.Videos))
				if len(info.Videos) == 0 {
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"#", "Video ID", "Title", "Duration"},
					playlistRows(info.Videos),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the playlist as JSON")
	return cmd
}

func playlistRows(videos []media.PlaylistEntry) [][]string {
	rows := make([][]string, 0, len(videos))
	for i, video := range videos {
		rows = append(rows, []string{strconv.Itoa(i + 1), video.ID, video.Title, formatClock(video.Duration)})
	}
	return rows
}

// formatClock renders seconds as m:ss or h:mm:ss; unknown durations are "-".
func formatClock(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds) * time.Second
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
