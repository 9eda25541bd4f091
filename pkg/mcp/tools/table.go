package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quka-ai/knowledge/app/core"
	v1 "github.com/quka-ai/knowledge/app/logic/v1"
	"github.com/quka-ai/knowledge/pkg/types"
)

// ReadTableRowsInput 读取表的输入参数
type ReadTableRowsInput struct {
	TableName string         `json:"table_name" jsonschema:"Name of the table to read from"`
	Columns   string         `json:"columns,omitempty" jsonschema:"Comma separated plain column names to select, default *"`
	Filters   map[string]any `json:"filters,omitempty" jsonschema:"Column to value equality filters"`
	Limit     int            `json:"limit,omitempty" jsonschema:"Maximum number of rows to return"`
	OrderBy   string         `json:"order_by,omitempty" jsonschema:"Column to sort by"`
	Ascending *bool          `json:"ascending,omitempty" jsonschema:"Sort direction, default true"`
}

type ReadTableRowsOutput struct {
	Rows  []types.Record `json:"rows"`
	Count int            `json:"count"`
}

type ReadTableRowsHandler struct {
	core *core.Core
}

func NewReadTableRowsHandler(core *core.Core) *ReadTableRowsHandler {
	return &ReadTableRowsHandler{core: core}
}

func (h *ReadTableRowsHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args ReadTableRowsInput,
) (*mcp.CallToolResult, ReadTableRowsOutput, error) {
	if args.Limit < 0 {
		return nil, ReadTableRowsOutput{}, fmt.Errorf("limit must not be negative")
	}
	filters, err := toRecord(args.Filters)
	if err != nil {
		return nil, ReadTableRowsOutput{}, fmt.Errorf("invalid filters: %w", err)
	}

	ascending := true
	if args.Ascending != nil {
		ascending = *args.Ascending
	}

	rows, err := v1.NewTableLogic(ctx, h.core).ReadTableRows(args.TableName, v1.ReadTableOptions{
		Columns:   args.Columns,
		Filters:   types.Filters(filters),
		Limit:     uint64(args.Limit),
		OrderBy:   args.OrderBy,
		Ascending: ascending,
	})
	if err != nil {
		return nil, ReadTableRowsOutput{}, err
	}

	if rows == nil {
		rows = []types.Record{}
	}
	output := ReadTableRowsOutput{Rows: rows, Count: len(rows)}
	result, err := jsonResult(rows)
	return result, output, err
}

// CreateTableRecordsInput records 可以是单个对象或对象数组
type CreateTableRecordsInput struct {
	TableName string `json:"table_name" jsonschema:"Name of the table to insert records into"`
	Records   any    `json:"records" jsonschema:"A single record object or an array of record objects"`
}

type CreateTableRecordsHandler struct {
	core *core.Core
}

func NewCreateTableRecordsHandler(core *core.Core) *CreateTableRecordsHandler {
	return &CreateTableRecordsHandler{core: core}
}

func (h *CreateTableRecordsHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args CreateTableRecordsInput,
) (*mcp.CallToolResult, v1.MutationResult, error) {
	raw, err := json.Marshal(args.Records)
	if err != nil {
		return nil, v1.MutationResult{}, fmt.Errorf("invalid records: %w", err)
	}
	records, err := v1.ParseRecords(raw)
	if err != nil {
		return nil, v1.MutationResult{}, err
	}

	res, err := v1.NewTableLogic(ctx, h.core).CreateTableRecords(args.TableName, records)
	if err != nil {
		return nil, v1.MutationResult{}, err
	}
	result, err := jsonResult(res)
	return result, *res, err
}

type UpdateTableRecordsInput struct {
	TableName string         `json:"table_name" jsonschema:"Name of the table to update records in"`
	Updates   map[string]any `json:"updates" jsonschema:"Column to new value pairs"`
	Filters   map[string]any `json:"filters" jsonschema:"Column to value equality filters selecting the rows to update"`
}

type UpdateTableRecordsHandler struct {
	core *core.Core
}

func NewUpdateTableRecordsHandler(core *core.Core) *UpdateTableRecordsHandler {
	return &UpdateTableRecordsHandler{core: core}
}

func (h *UpdateTableRecordsHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args UpdateTableRecordsInput,
) (*mcp.CallToolResult, v1.MutationResult, error) {
	updates, err := toRecord(args.Updates)
	if err != nil {
		return nil, v1.MutationResult{}, fmt.Errorf("invalid updates: %w", err)
	}
	filters, err := toRecord(args.Filters)
	if err != nil {
		return nil, v1.MutationResult{}, fmt.Errorf("invalid filters: %w", err)
	}

	res, err := v1.NewTableLogic(ctx, h.core).UpdateTableRecords(args.TableName, updates, types.Filters(filters))
	if err != nil {
		return nil, v1.MutationResult{}, err
	}
	result, err := jsonResult(res)
	return result, *res, err
}

type DeleteTableRecordsInput struct {
	TableName string         `json:"table_name" jsonschema:"Name of the table to delete records from"`
	Filters   map[string]any `json:"filters" jsonschema:"Column to value equality filters selecting the rows to delete"`
}

type DeleteTableRecordsHandler struct {
	core *core.Core
}

func NewDeleteTableRecordsHandler(core *core.Core) *DeleteTableRecordsHandler {
	return &DeleteTableRecordsHandler{core: core}
}

func (h *DeleteTableRecordsHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args DeleteTableRecordsInput,
) (*mcp.CallToolResult, v1.MutationResult, error) {
	filters, err := toRecord(args.Filters)
	if err != nil {
		return nil, v1.MutationResult{}, fmt.Errorf("invalid filters: %w", err)
	}

	res, err := v1.NewTableLogic(ctx, h.core).DeleteTableRecords(args.TableName, types.Filters(filters))
	if err != nil {
		return nil, v1.MutationResult{}, err
	}
	result, err := jsonResult(res)
	return result, *res, err
}

func RegisterReadTableRowsTool(server *mcp.Server, core *core.Core) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_table_rows",
		Description: "Read rows from a Supabase table with optional column selection, equality filters, ordering and limit. " +
			"columns takes plain column names only; embedded resources and aliases are not supported. " +
			"Filter values must be strings, numbers, booleans or null.",
	}, NewReadTableRowsHandler(core).Handle)
}

func RegisterCreateTableRecordsTool(server *mcp.Server, core *core.Core) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_table_records",
		Description: "Create one or more records in a Supabase table. Returns the created rows.",
	}, NewCreateTableRecordsHandler(core).Handle)
}

func RegisterUpdateTableRecordsTool(server *mcp.Server, core *core.Core) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_table_records",
		Description: "Update records in a Supabase table that match all filters. Filters must not be empty and take scalar values only.",
	}, NewUpdateTableRecordsHandler(core).Handle)
}

func RegisterDeleteTableRecordsTool(server *mcp.Server, core *core.Core) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_table_records",
		Description: "Delete records from a Supabase table that match all filters. Filters must not be empty and take scalar values only.",
	}, NewDeleteTableRecordsHandler(core).Handle)
}
