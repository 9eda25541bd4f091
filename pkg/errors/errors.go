package errors

import (
	"fmt"
	"strings"
)

// CustomizedError 带调用链路的错误，trace 记录错误经过的逻辑节点
type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
}

func New(trace, message string, err error) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
	}
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
	}
}

func Trace(trace string, err error) *CustomizedError {
	if ce, ok := err.(*CustomizedError); ok {
		return ce.Trace(trace)
	}
	return Wrap(err, trace, err.Error())
}

// Message 面向用户的错误描述，附带底层原因
func (e *CustomizedError) Message() string {
	if e.message == "" {
		if e.cause == nil {
			return ""
		}
		return e.cause.Error()
	}
	if e.cause == nil || e.cause.Error() == e.message {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *CustomizedError) GetTrace() []string {
	return e.trace
}

func (e *CustomizedError) Unwrap() error {
	return e.cause
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","msg":"%s","error":"%v","wrapd":%s}`, strings.Join(e.trace, "->"), e.message, e.cause, otherDetails)
}

// Message 提取错误中面向用户的描述
func Message(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := err.(*CustomizedError); ok {
		return ce.Message()
	}
	return err.Error()
}
