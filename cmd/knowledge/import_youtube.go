package knowledge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quka-ai/knowledge/app/core"
	v1 "github.com/quka-ai/knowledge/app/logic/v1"
	"github.com/quka-ai/knowledge/pkg/errors"
)

type ImportYoutubeOptions struct {
	Options
	SkipExisting bool
	Schedule     string
}

func (o *ImportYoutubeOptions) AddFlags(flagSet *pflag.FlagSet) {
	o.Options.AddFlags(flagSet)
	flagSet.BoolVar(&o.SkipExisting, "skip-existing", false, "skip videos already present in youtube_videos")
	flagSet.StringVar(&o.Schedule, "schedule", "", "re-run the import on a cron schedule, e.g. \"@every 1h\"")
}

func NewImportYoutubeCommand() *cobra.Command {
	opts := &ImportYoutubeOptions{}
	cmd := &cobra.Command{
		Use:   "import-youtube <transcript_directory|s3://bucket/prefix>",
		Short: "Import chunked YouTube transcripts to KNOWLEDGE database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunImportYoutube(cmd, opts, args[0])
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunImportYoutube(cmd *cobra.Command, opts *ImportYoutubeOptions, uri string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Importing YouTube data from %s...\n", uri)

	app, err := setupCore(ctx, &opts.Options, out)
	if err != nil {
		return err
	}
	defer app.Close()

	source, err := v1.OpenTranscriptSource(ctx, app, uri)
	if err != nil {
		return err
	}

	if opts.Schedule == "" {
		return importYoutubeOnce(ctx, app, source, opts, out)
	}

	c, err := newImportScheduler(opts.Schedule, func() {
		if err := importYoutubeOnce(ctx, app, source, opts, out); err != nil {
			slog.Error("scheduled import failed", slog.String("source", source.String()), slog.String("error", errors.Message(err)))
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scheduled import with %q, press Ctrl+C to stop\n", opts.Schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func importYoutubeOnce(ctx context.Context, app *core.Core, source v1.TranscriptSource, opts *ImportYoutubeOptions, out io.Writer) error {
	progress := newProgressPrinter(out)
	logic := v1.NewImporterLogic(ctx, app, v1.WithProgress(progress.Report))

	res, err := logic.ImportYoutubeDir(source, v1.YoutubeImportOptions{SkipExisting: opts.SkipExisting})
	progress.finish()
	if res != nil {
		for _, v := range res.Videos {
			switch v.Status {
			case v1.VIDEO_STATUS_IMPORTED:
				fmt.Fprintf(out, "Finished processing video %s! (%d/%d chunks)\n", v.VideoID, v.CreatedChunks, v.TotalChunks)
			case v1.VIDEO_STATUS_SKIPPED:
				fmt.Fprintf(out, "Skipped video %s: %s\n", v.VideoID, v.Reason)
			default:
				fmt.Fprintf(out, "Failed video %s: %s\n", v.VideoID, v.Reason)
			}
		}
		fmt.Fprintf(out, "\nYouTube data import complete! imported: %d, skipped: %d, failed: %d\n",
			res.Count(v1.VIDEO_STATUS_IMPORTED),
			res.Count(v1.VIDEO_STATUS_SKIPPED),
			res.Count(v1.VIDEO_STATUS_FAILED))
	}
	return err
}

// cronLogger 将 cron 的日志转到 slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Info("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, slog.String("error", err.Error()))...)
}

// newImportScheduler 上一次导入尚未结束时跳过本次触发
func newImportScheduler(schedule string, job func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return c, nil
}
