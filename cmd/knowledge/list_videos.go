package knowledge

import (
	"fmt"

	"github.com/spf13/cobra"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
)

func NewListVideosCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "list-videos",
		Short: "List imported YouTube videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunListVideos(cmd, opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunListVideos(cmd *cobra.Command, opts *Options) error {
	app, err := setupCore(cmd.Context(), opts, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	videos, err := v1.NewVideoLogic(cmd.Context(), app).ListVideos()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d videos:\n", len(videos))
	for _, video := range videos {
		fmt.Fprintf(out, "- %s (ID: %s)\n", video.Title, video.YoutubeID)
		fmt.Fprintf(out, "  Channel: %s\n", video.Channel)
		fmt.Fprintf(out, "  Published: %s\n", video.PublishedAt)
		fmt.Fprintln(out)
	}
	return nil
}
