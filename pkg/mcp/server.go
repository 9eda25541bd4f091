package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/mcp/tools"
)

const (
	SERVER_NAME    = "Supabase Database"
	SERVER_VERSION = "v0.1.0"
)

// MCPServer MCP 服务器
type MCPServer struct {
	server *mcp.Server
	core   *core.Core
}

// NewMCPServer 创建 MCP 服务器，core 在整个服务生命周期内共享
func NewMCPServer(core *core.Core) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    SERVER_NAME,
		Version: SERVER_VERSION,
	}, nil)

	tools.RegisterTools(server, core)

	return &MCPServer{
		server: server,
		core:   core,
	}
}

func (s *MCPServer) Server() *mcp.Server {
	return s.server
}

// RunStdio 通过标准输入输出提供服务，直到 ctx 结束或客户端断开
func (s *MCPServer) RunStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
