package knowledge

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
)

func NewVerifyCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the KNOWLEDGE database tables, vector column and views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunVerify(cmd, opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunVerify(cmd *cobra.Command, opts *Options) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Verifying KNOWLEDGE database in Supabase...")

	app, err := setupCore(cmd.Context(), opts, out)
	if err != nil {
		return err
	}
	defer app.Close()

	res := v1.NewVerifyLogic(cmd.Context(), app).Verify()

	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(out, "Checking for expected tables:")
	for _, t := range res.Tables {
		if t.Found {
			fmt.Fprintf(out, "  %s %s: Found (%d rows)\n", ok("✅"), t.Name, t.Rows)
		} else {
			fmt.Fprintf(out, "  %s %s: Not found or error (%s)\n", bad("❌"), t.Name, t.Error)
		}
	}

	fmt.Fprintln(out, "\nChecking for vector extension and functions:")
	if res.Vector.Found {
		fmt.Fprintf(out, "  %s Vector tables appear to be properly set up\n", ok("✅"))
	} else {
		fmt.Fprintf(out, "  %s Error checking vector tables: %s\n", bad("❌"), res.Vector.Error)
	}

	fmt.Fprintln(out, "\nChecking for views:")
	for _, v := range res.Views {
		if v.Found {
			fmt.Fprintf(out, "  %s %s: Found\n", ok("✅"), v.Name)
		} else {
			fmt.Fprintf(out, "  %s %s: Error checking view (%s)\n", bad("❌"), v.Name, v.Error)
		}
	}

	fmt.Fprintln(out, "\nVerification complete! If any items show as missing, please check the Supabase dashboard.")
	fmt.Fprintln(out, "You may need to run the SQL schema in the SQL Editor at:")
	fmt.Fprintf(out, "  %s\n", res.DashboardURL)
	if !res.OK() {
		return fmt.Errorf("knowledge database is incomplete")
	}
	fmt.Fprintln(out, "\nDatabase verification completed!")
	return nil
}
