package knowledge

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
)

func NewImportTranscriptCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "import-transcript <transcript_json>",
		Short: "Import YouTube transcript to KNOWLEDGE database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunImportTranscript(cmd, opts, args[0])
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunImportTranscript(cmd *cobra.Command, opts *Options, path string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Importing transcript from %s...\n", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read transcript file %s: %w", path, err)
	}

	app, err := setupCore(cmd.Context(), opts, out)
	if err != nil {
		return err
	}
	defer app.Close()

	progress := newProgressPrinter(out)
	res, err := v1.NewImporterLogic(cmd.Context(), app, v1.WithProgress(progress.Report)).ImportTranscriptData(raw)
	progress.finish()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created source with ID: %s\n", res.SourceID)
	fmt.Fprintf(out, "Created document with ID: %s\n", res.DocumentID)
	switch {
	case res.VideoExisted:
		fmt.Fprintln(out, "YouTube video record already exists, skipping creation")
	case res.VideoCreated:
		fmt.Fprintln(out, "Created YouTube video record")
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}

	fmt.Fprintf(out, "\nSuccessfully imported transcript for '%s'\n", res.Title)
	fmt.Fprintf(out, "- Source ID: %s\n", res.SourceID)
	fmt.Fprintf(out, "- Document ID: %s\n", res.DocumentID)
	fmt.Fprintf(out, "- Created %d chunks\n", res.CreatedChunks)
	if len(res.FailedChunks) > 0 {
		fmt.Fprintf(out, "- Failed chunks: %v\n", res.FailedChunks)
	}
	return nil
}
