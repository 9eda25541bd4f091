package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record 对应远端数据表中的一行，键为列名
type Record map[string]any

// ID 返回记录的主键，主键类型由远端 schema 决定(uuid 或 bigint)
func (r Record) ID() string {
	return r.String("id")
}

// String 以字符串形式读取列值，不存在或为 null 时返回空串
func (r Record) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Columns 返回排序后的列名
func (r Record) Columns() []string {
	columns := make([]string, 0, len(r))
	for k := range r {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

// Filters 列到值的等值过滤条件
type Filters map[string]any

// Columns 返回排序后的过滤列，保证生成的查询语句稳定
func (f Filters) Columns() []string {
	columns := make([]string, 0, len(f))
	for k := range f {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

type SelectOptions struct {
	Columns   string            // 逗号分隔的列，默认 *
	Filters   Filters           // 等值过滤
	ILike     map[string]string // 列 -> 不区分大小写的模式，% 为通配符
	OrderBy   string
	Ascending bool
	Limit     uint64 // 0 表示不限制
}

// ColumnList 解析 Columns 字段，返回 nil 表示选择全部列
func (o SelectOptions) ColumnList() []string {
	raw := strings.TrimSpace(o.Columns)
	if raw == "" || raw == "*" {
		return nil
	}
	var columns []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}
	return columns
}

// ToRecord 将结构体转换为 Record，依赖字段的 json tag
// 数字以 json.Number 保存，避免整型列被写成浮点
func ToRecord(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var r Record
	if err = dec.Decode(&r); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeRecords 将远端返回的 JSON 数组解码为 Record 列表
func DecodeRecords(raw []byte) ([]Record, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var res []Record
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	return res, nil
}

// FromRecords 将 Record 转换为结构体，依赖字段的 json tag
func FromRecords[T any](records []Record) ([]T, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(records))
	if err = json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return res, nil
}
