package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quka-ai/knowledge/pkg/mcp"
)

type MCPOptions struct {
	Options
	HTTP string
}

func (o *MCPOptions) AddFlags(flagSet *pflag.FlagSet) {
	o.Options.AddFlags(flagSet)
	flagSet.StringVar(&o.HTTP, "http", "", "serve streamable HTTP on the given address instead of stdio, e.g. :8080")
	flagSet.Lookup("http").NoOptDefVal = "default"
}

func NewMCPCommand() *cobra.Command {
	opts := &MCPOptions{}
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the Supabase table tools over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunMCP(cmd, opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunMCP(cmd *cobra.Command, opts *MCPOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout 属于 stdio transport，不输出任何提示
	app, err := setupCore(ctx, &opts.Options, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.HTTP == "" {
		slog.Info("MCP server listening on stdio")
		return mcp.NewMCPServer(app).RunStdio(ctx)
	}

	addr := opts.HTTP
	if addr == "default" {
		addr = app.Cfg().MCP.Addr
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    addr,
		Handler: mcp.SetupRouter(app),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("MCP server listening", slog.String("addr", addr), slog.String("path", mcp.MCP_PATH))
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
