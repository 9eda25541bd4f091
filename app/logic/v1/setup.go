package v1

import (
	"context"
	"os"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/app/store/sqlstore"
	"github.com/quka-ai/knowledge/pkg/errors"
)

const DEFAULT_SCHEMA_OUTPUT = "knowledge_schema.sql"

type SetupResult struct {
	Output       string
	DashboardURL string
	Instructions []string
}

type SetupLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewSetupLogic(ctx context.Context, core *core.Core) *SetupLogic {
	return &SetupLogic{
		ctx:  ctx,
		core: core,
	}
}

// WriteSchema 将建表语句写入 output，需要用户在 SQL Editor 中手动执行
func (l *SetupLogic) WriteSchema(output string) (*SetupResult, error) {
	if output == "" {
		output = DEFAULT_SCHEMA_OUTPUT
	}

	schema, err := sqlstore.Schema()
	if err != nil {
		return nil, errors.New("SetupLogic.WriteSchema.Schema", "Error reading SQL schema", err)
	}
	if err = os.WriteFile(output, []byte(schema), 0o644); err != nil {
		return nil, errors.New("SetupLogic.WriteSchema.WriteFile", "failed to save SQL schema", err)
	}

	dashboard := l.core.Cfg().Supabase.DashboardURL()
	return &SetupResult{
		Output:       output,
		DashboardURL: dashboard,
		Instructions: []string{
			"Open this URL in your browser: " + dashboard,
			"Copy and paste the SQL schema from " + output + " into the editor",
			"Run the SQL commands",
			"Verify the tables were created using `knowledge verify`",
		},
	}, nil
}
