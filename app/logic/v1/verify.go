package v1

import (
	"context"

	"github.com/quka-ai/knowledge/app/core"
	"github.com/quka-ai/knowledge/app/store"
	"github.com/quka-ai/knowledge/pkg/errors"
	"github.com/quka-ai/knowledge/pkg/types"
)

type ObjectCheck struct {
	Name  string
	Found bool
	Rows  int64
	Error string
}

type VerifyResult struct {
	Tables       []ObjectCheck
	Vector       ObjectCheck
	Views        []ObjectCheck
	DashboardURL string
}

// OK 所有对象都存在
func (r *VerifyResult) OK() bool {
	if !r.Vector.Found {
		return false
	}
	for _, items := range [][]ObjectCheck{r.Tables, r.Views} {
		for _, c := range items {
			if !c.Found {
				return false
			}
		}
	}
	return true
}

type VerifyLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewVerifyLogic(ctx context.Context, core *core.Core) *VerifyLogic {
	return &VerifyLogic{
		ctx:  ctx,
		core: core,
	}
}

func checkError(err error) string {
	if store.IsNotFound(err) {
		return "Not found"
	}
	return errors.Message(err)
}

// Verify 检查表、向量列与视图是否已创建，单项失败不影响其余检查
func (l *VerifyLogic) Verify() *VerifyResult {
	s := l.core.Store()
	res := &VerifyResult{
		DashboardURL: l.core.Cfg().Supabase.DashboardURL(),
	}

	for _, table := range types.ExpectedTables {
		item := ObjectCheck{Name: table.Name()}
		total, err := s.Count(l.ctx, table.Name(), nil)
		if err != nil {
			item.Error = checkError(err)
		} else {
			item.Found = true
			item.Rows = total
		}
		res.Tables = append(res.Tables, item)
	}

	res.Vector = ObjectCheck{Name: types.TABLE_KNOWLEDGE_CHUNKS.Name() + ".embedding"}
	if _, err := s.Select(l.ctx, types.TABLE_KNOWLEDGE_CHUNKS.Name(), types.SelectOptions{Columns: "id,embedding", Limit: 1}); err != nil {
		res.Vector.Error = checkError(err)
	} else {
		res.Vector.Found = true
	}

	for _, view := range types.ExpectedViews {
		item := ObjectCheck{Name: view.Name()}
		if _, err := s.Select(l.ctx, view.Name(), types.SelectOptions{Limit: 1}); err != nil {
			item.Error = checkError(err)
		} else {
			item.Found = true
		}
		res.Views = append(res.Views, item)
	}
	return res
}
