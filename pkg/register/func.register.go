// Package register 按 key 收集初始化函数，各 store 在 init 中注册自身，
// provider 创建时统一执行
package register

import "sync"

type funcRegister struct {
	handlers map[any][]any
	locker   sync.RWMutex
}

var fr = &funcRegister{
	handlers: make(map[any][]any),
}

type Handler[T any] func(T)

func RegisterFunc[T any](key any, handler Handler[T]) {
	fr.locker.Lock()
	fr.handlers[key] = append(fr.handlers[key], handler)
	fr.locker.Unlock()
}

// resolveFuncHandlers 按注册顺序返回 key 下类型匹配的 handler
func resolveFuncHandlers[T any](key any) []Handler[T] {
	fr.locker.RLock()
	defer fr.locker.RUnlock()

	var result []Handler[T]
	for _, v := range fr.handlers[key] {
		if h, ok := v.(Handler[T]); ok {
			result = append(result, h)
		}
	}
	return result
}

// Apply 依次执行 key 下的 handler
func Apply[T any](key any, target T) int {
	handlers := resolveFuncHandlers[T](key)
	for _, h := range handlers {
		h(target)
	}
	return len(handlers)
}
