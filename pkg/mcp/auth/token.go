package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestToken 提取请求携带的访问令牌
// 优先级: URL 参数 ?token=xxx，其次 Authorization 头(可带 Bearer 前缀)
func RequestToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return parts[0]
}

// ValidateRequest 校验请求令牌，expected 为空时不做认证
func ValidateRequest(c *gin.Context, expected string) error {
	if expected == "" {
		return nil
	}
	token := RequestToken(c)
	if token == "" {
		return fmt.Errorf("missing access token (provide via URL param or Authorization header)")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return fmt.Errorf("invalid access token")
	}
	return nil
}
