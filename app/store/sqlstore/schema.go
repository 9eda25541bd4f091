package sqlstore

import (
	"embed"
)

//go:embed sql/*.sql
var SchemaFiles embed.FS

const SchemaFile = "sql/knowledge.sql"

// Schema 返回知识库的建表语句，需要在 Supabase SQL Editor 中手动执行
func Schema() (string, error) {
	raw, err := SchemaFiles.ReadFile(SchemaFile)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
