package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKey struct{}

type target struct {
	steps []string
}

func TestApply(t *testing.T) {
	RegisterFunc(testKey{}, func(t *target) { t.steps = append(t.steps, "table") })
	RegisterFunc(testKey{}, func(t *target) { t.steps = append(t.steps, "knowledge") })
	// 类型不匹配的 handler 会被忽略
	RegisterFunc(testKey{}, func(s string) {})

	tg := &target{}
	assert.Equal(t, 2, Apply(testKey{}, tg))
	assert.Equal(t, []string{"table", "knowledge"}, tg.steps)

	assert.Equal(t, 0, Apply(struct{}{}, tg))
}
