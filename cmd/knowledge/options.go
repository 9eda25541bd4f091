package knowledge

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"

	"github.com/quka-ai/knowledge/app/core"
	v1 "github.com/quka-ai/knowledge/app/logic/v1"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "load config from the given toml file, environment variables are used when empty")
}

// setupCore 加载配置并初始化 core，out 为 nil 时不输出连接信息
func setupCore(ctx context.Context, opts *Options, out io.Writer) (*core.Core, error) {
	cfg, err := core.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if out != nil {
		target := cfg.Supabase.URL
		if cfg.Supabase.DSN != "" {
			target = "database " + cfg.Supabase.ProjectRef()
		}
		fmt.Fprintf(out, "Connecting to Supabase at %s...\n", target)
	}

	app, err := core.SetupCore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return app, nil
}

const separator = "----------------------------------------"

// progressPrinter 片段写入使用进度条，其余阶段直接输出
type progressPrinter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) Report(item v1.ImportProgress) {
	if item.Stage != v1.STAGE_CHUNK {
		p.finish()
		fmt.Fprintln(p.out, item.Message)
		return
	}

	if p.bar == nil {
		p.bar = progressbar.NewOptions(item.Total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Creating chunk records"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	if strings.HasPrefix(item.Message, "Error") {
		p.bar.Clear()
		fmt.Fprintln(p.out, item.Message)
	}
	p.bar.Set(item.Current)
	if item.Current >= item.Total {
		p.finish()
	}
}

func (p *progressPrinter) finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
