package mcp

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/pkg/mcp/auth"
	"github.com/quka-ai/knowledge/pkg/metrics"
)

const MCP_PATH = "/mcp"

// MCPStreamableHandler 基于 SDK StreamableHTTPHandler 的处理器
func MCPStreamableHandler(appCore *core.Core) gin.HandlerFunc {
	mcpServer := NewMCPServer(appCore)

	streamableHandler := mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			// 所有会话共享同一个 server
			return mcpServer.server
		},
		&mcp.StreamableHTTPOptions{
			JSONResponse: true,
			Stateless:    false,
		},
	)

	token := appCore.Cfg().MCP.Token
	if token == "" {
		slog.Warn("MCP http transport runs without authentication, set KNOWLEDGE_MCP_TOKEN to enable it")
	}

	return func(c *gin.Context) {
		slog.Debug("MCP streamable request received",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("session_id", c.Request.Header.Get("Mcp-Session-Id")),
		)

		if err := auth.ValidateRequest(c, token); err != nil {
			slog.Error("MCP auth failed", slog.String("error", err.Error()), slog.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"jsonrpc": "2.0",
				"error": map[string]interface{}{
					"code":    -32000,
					"message": "Authentication failed: " + err.Error(),
				},
				"id": nil,
			})
			return
		}

		streamableHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// SetupRouter 在 core 的 gin engine 上挂载 /mcp 与 /metrics
func SetupRouter(appCore *core.Core) *gin.Engine {
	engine := appCore.HttpEngine()
	engine.Use(gin.Recovery())

	handler := MCPStreamableHandler(appCore)
	engine.POST(MCP_PATH, handler)
	engine.GET(MCP_PATH, handler)
	engine.DELETE(MCP_PATH, handler)
	engine.GET("/metrics", metrics.DefaultExportHandler())
	return engine
}
