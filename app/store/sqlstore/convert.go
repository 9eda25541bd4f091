package sqlstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/quka-ai/knowledge/pkg/types"
)

// toSqlValue 将 Record 中的值转换为驱动可接受的参数
// map 与切片统一按 JSON 写入，对应 json/jsonb 列
func toSqlValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return val, nil
	case json.Number:
		return val.String(), nil
	case types.Metadata:
		return val.Value()
	case map[string]any, []any, types.Record:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("failed to encode json value, %w", err)
		}
		return string(raw), nil
	default:
		return val, nil
	}
}

// scanRecords 读取所有行，json/jsonb 列解码为结构化数据，其余字节列转换为字符串
func scanRecords(rows *sqlx.Rows) ([]types.Record, error) {
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	jsonColumns := make(map[string]bool)
	for _, ct := range columnTypes {
		switch strings.ToUpper(ct.DatabaseTypeName()) {
		case "JSON", "JSONB":
			jsonColumns[ct.Name()] = true
		}
	}

	res := make([]types.Record, 0)
	for rows.Next() {
		row := make(map[string]any)
		if err = rows.MapScan(row); err != nil {
			return nil, err
		}
		record := make(types.Record, len(row))
		for k, v := range row {
			if record[k], err = fromSqlValue(v, jsonColumns[k]); err != nil {
				return nil, fmt.Errorf("failed to decode column %s, %w", k, err)
			}
		}
		res = append(res, record)
	}
	return res, rows.Err()
}

func fromSqlValue(v any, isJSON bool) (any, error) {
	raw, ok := v.([]byte)
	if !ok {
		return v, nil
	}
	if !isJSON {
		return string(raw), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
