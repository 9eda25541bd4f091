package tools

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/types"
)

// RegisterTools 注册所有 MCP 工具
func RegisterTools(server *mcp.Server, core *core.Core) {
	RegisterReadTableRowsTool(server, core)
	RegisterCreateTableRecordsTool(server, core)
	RegisterUpdateTableRecordsTool(server, core)
	RegisterDeleteTableRecordsTool(server, core)

	RegisterSearchKnowledgeTool(server, core)
	RegisterListDocumentsTool(server, core)
}

// jsonResult 以 JSON 文本返回结果，便于不读取 structured content 的客户端
func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil
}

// toRecord 数字统一转换为 json.Number，避免整型列被当作浮点写入
func toRecord(m map[string]any) (types.Record, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return types.ToRecord(m)
}
