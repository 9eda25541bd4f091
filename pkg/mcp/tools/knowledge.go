package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quka-ai/knowledge/app/core"
	v1 "github.com/quka-ai/knowledge/app/logic/v1"
	"github.com/quka-ai/knowledge/pkg/types"
)

// SearchKnowledgeInput 检索知识片段的输入参数
type SearchKnowledgeInput struct {
	Query    string `json:"query" jsonschema:"Text to search for in knowledge chunks"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of chunks to return, default 5"`
	Semantic bool   `json:"semantic,omitempty" jsonschema:"Use vector similarity instead of keyword matching"`
}

type SearchKnowledgeOutput struct {
	Query   string                    `json:"query"`
	Count   int                       `json:"count"`
	Results []types.ChunkSearchResult `json:"results"`
}

type SearchKnowledgeHandler struct {
	core *core.Core
}

func NewSearchKnowledgeHandler(core *core.Core) *SearchKnowledgeHandler {
	return &SearchKnowledgeHandler{core: core}
}

func (h *SearchKnowledgeHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args SearchKnowledgeInput,
) (*mcp.CallToolResult, SearchKnowledgeOutput, error) {
	limit := uint64(0)
	if args.Limit > 0 {
		limit = uint64(args.Limit)
	}

	logic := v1.NewQueryLogic(ctx, h.core)
	var (
		res []types.ChunkSearchResult
		err error
	)
	if args.Semantic {
		res, err = logic.SemanticSearch(args.Query, limit)
	} else {
		res, err = logic.Search(args.Query, limit)
	}
	if err != nil {
		return nil, SearchKnowledgeOutput{}, err
	}

	output := SearchKnowledgeOutput{
		Query:   args.Query,
		Count:   len(res),
		Results: res,
	}
	result, err := jsonResult(output)
	return result, output, err
}

type ListDocumentsInput struct{}

type ListDocumentsOutput struct {
	Count     int                        `json:"count"`
	Documents []types.DocumentWithSource `json:"documents"`
}

type ListDocumentsHandler struct {
	core *core.Core
}

func NewListDocumentsHandler(core *core.Core) *ListDocumentsHandler {
	return &ListDocumentsHandler{core: core}
}

func (h *ListDocumentsHandler) Handle(
	ctx context.Context,
	req *mcp.CallToolRequest,
	args ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := v1.NewQueryLogic(ctx, h.core).ListDocuments()
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{Count: len(docs), Documents: docs}
	result, err := jsonResult(output)
	return result, output, err
}

func RegisterSearchKnowledgeTool(server *mcp.Server, core *core.Core) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search knowledge chunks by keyword, or by vector similarity when semantic is true.",
	}, NewSearchKnowledgeHandler(core).Handle)
}

func RegisterListDocumentsTool(server *mcp.Server, core *core.Core) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all knowledge documents with their source title and type.",
	}, NewListDocumentsHandler(core).Handle)
}
