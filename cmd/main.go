package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quka-ai/knowledge/cmd/knowledge"
	"github.com/quka-ai/knowledge/pkg/errors"
)

func main() {
	root := &cobra.Command{
		Use:           "knowledge",
		Short:         "Supabase knowledge database tools",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		knowledge.NewSetupCommand(),
		knowledge.NewVerifyCommand(),
		knowledge.NewImportTranscriptCommand(),
		knowledge.NewImportYoutubeCommand(),
		knowledge.NewListVideosCommand(),
		knowledge.NewQueryCommand(),
		knowledge.NewMCPCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errors.Message(err))
		os.Exit(1)
	}
}
