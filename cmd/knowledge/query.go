package knowledge

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
)

type QueryOptions struct {
	Options
	Query    string
	Limit    uint64
	ListDocs bool
	Semantic bool
}

func (o *QueryOptions) AddFlags(flagSet *pflag.FlagSet) {
	o.Options.AddFlags(flagSet)
	flagSet.StringVarP(&o.Query, "query", "q", "", "Search query")
	flagSet.Uint64VarP(&o.Limit, "limit", "l", v1.DEFAULT_QUERY_LIMIT, "Maximum number of results")
	flagSet.BoolVarP(&o.ListDocs, "list-docs", "d", false, "List all documents")
	flagSet.BoolVar(&o.Semantic, "semantic", false, "Search by embedding similarity instead of keywords")
}

func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query KNOWLEDGE database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunQuery(cmd, opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunQuery(cmd *cobra.Command, opts *QueryOptions) error {
	if opts.Query == "" && !opts.ListDocs {
		return cmd.Help()
	}

	out := cmd.OutOrStdout()
	if opts.ListDocs {
		fmt.Fprintln(out, "Listing all documents in KNOWLEDGE database")
	} else {
		fmt.Fprintf(out, "Querying KNOWLEDGE database for: %s\n", opts.Query)
	}

	app, err := setupCore(cmd.Context(), &opts.Options, out)
	if err != nil {
		return err
	}
	defer app.Close()

	logic := v1.NewQueryLogic(cmd.Context(), app)
	if opts.ListDocs {
		docs, err := logic.ListDocuments()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Found %d documents\n", len(docs))
		if len(docs) == 0 {
			fmt.Fprintln(out, "No documents found.")
			return nil
		}
		fmt.Fprint(out, "\n===== DOCUMENTS =====\n\n")
		for i, doc := range docs {
			fmt.Fprintf(out, "Document %d: %s\n", i+1, doc.Title)
			fmt.Fprintf(out, "Source: %s (%s)\n", doc.SourceTitle, doc.SourceType)
			fmt.Fprintf(out, "Type: %s\n", doc.DocumentType)
			fmt.Fprintf(out, "Created: %s\n", doc.CreatedAt)
			fmt.Fprintln(out, separator)
			fmt.Fprintln(out)
		}
		return nil
	}

	fmt.Fprintf(out, "Searching for chunks related to: %s\n", opts.Query)
	search := logic.Search
	if opts.Semantic {
		search = logic.SemanticSearch
	}
	chunks, err := search(opts.Query, opts.Limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Found %d related chunks\n", len(chunks))
	if len(chunks) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprint(out, "\n===== SEARCH RESULTS =====\n\n")
	for i, chunk := range chunks {
		fmt.Fprintf(out, "Result %d from: %s\n", i+1, chunk.DocumentTitle)
		fmt.Fprintf(out, "Chunk %d/%d", chunk.ChunkNumber, chunk.TotalChunks)
		if opts.Semantic {
			fmt.Fprintf(out, " (similarity %.3f)", chunk.Similarity)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, separator)
		fmt.Fprintln(out, chunk.Content)
		fmt.Fprintln(out, separator)
		fmt.Fprintln(out)
	}
	return nil
}
