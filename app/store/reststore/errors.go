package reststore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quka-ai/knowledge/app/store"
)

// APIError PostgREST 返回的错误体
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "supabase request failed, status %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&sb, ", code %s", e.Code)
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	if e.Details != "" {
		sb.WriteString(" (" + e.Details + ")")
	}
	if e.Hint != "" {
		sb.WriteString(", hint: " + e.Hint)
	}
	return sb.String()
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if err := json.Unmarshal(body, e); err != nil || (e.Code == "" && e.Message == "") {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

const (
	codeUndefinedTable = "42P01"
	// schema cache 中找不到表
	codeTableNotFound = "PGRST205"
)

func wrapError(table string, e *APIError) error {
	if table != "" && (e.Code == codeUndefinedTable || e.Code == codeTableNotFound) {
		return &store.NotFoundError{Table: table, Err: e}
	}
	return e
}
