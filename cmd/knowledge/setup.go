package knowledge

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/huh"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
)

type SetupOptions struct {
	Options
	Output    string
	Yes       bool
	NoBrowser bool
}

func (o *SetupOptions) AddFlags(flagSet *pflag.FlagSet) {
	o.Options.AddFlags(flagSet)
	flagSet.StringVarP(&o.Output, "output", "o", v1.DEFAULT_SCHEMA_OUTPUT, "file the SQL schema is written to")
	flagSet.BoolVarP(&o.Yes, "yes", "y", false, "open the SQL editor without asking")
	flagSet.BoolVar(&o.NoBrowser, "no-browser", false, "do not open the SQL editor in a browser")
}

func NewSetupCommand() *cobra.Command {
	opts := &SetupOptions{}
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write the KNOWLEDGE database schema and open the Supabase SQL editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSetup(cmd, opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunSetup(cmd *cobra.Command, opts *SetupOptions) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Setting up KNOWLEDGE database in Supabase...")

	app, err := setupCore(cmd.Context(), &opts.Options, out)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := v1.NewSetupLogic(cmd.Context(), app).WriteSchema(opts.Output)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n===========================================================")
	fmt.Fprintln(out, "IMPORTANT: Please set up the database manually using the SQL Editor:")
	for i, step := range res.Instructions {
		fmt.Fprintf(out, "%d. %s\n", i+1, step)
	}
	fmt.Fprint(out, "===========================================================\n\n")
	fmt.Fprintf(out, "The SQL schema has been saved to: %s\n", res.Output)
	fmt.Fprintln(out, "You can copy it from there and paste it into the SQL Editor.")

	if !opts.NoBrowser {
		open := opts.Yes
		if !open {
			if err = huh.NewConfirm().
				Title("Open the Supabase SQL Editor in your browser?").
				Value(&open).
				Run(); err != nil {
				slog.Warn("confirm prompt failed", slog.String("error", err.Error()))
				open = false
			}
		}
		if open {
			if err = browser.OpenURL(res.DashboardURL); err != nil {
				fmt.Fprintf(out, "Could not open browser: %v\n", err)
			} else {
				fmt.Fprintln(out, "Browser opened to Supabase SQL Editor.")
			}
		}
	}

	fmt.Fprintln(out, "\nAfter running the SQL commands, run `knowledge verify` to verify the setup.")
	return nil
}
