package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType 定义错误类型
type ErrorType int

const (
	// ErrConnection 连接失败（认证失败、主机不可达、协议协商失败）
	ErrConnection ErrorType = iota
	// ErrExecution 远程命令无法调用（通道失败等）
	ErrExecution
	// ErrTimeout 命令执行超时
	ErrTimeout
	// ErrParse 解析错误（when 表达式、Playbook、主机配置等）
	ErrParse
	// ErrEval when 表达式无法求值（引用了未注册的结果）
	ErrEval
	// ErrTaskFailed 任务本身失败（非零退出码、目标不可写、非法正则）
	ErrTaskFailed
	// ErrResolution Playbook 引用了 inventory 中不存在的地址
	ErrResolution
	// ErrCancelled 整个运行被取消
	ErrCancelled
)

var typeNames = map[ErrorType]string{
	ErrConnection: "connection",
	ErrExecution:  "execution",
	ErrTimeout:    "timeout",
	ErrParse:      "parse",
	ErrEval:       "eval",
	ErrTaskFailed: "task_failed",
	ErrResolution: "resolution",
	ErrCancelled:  "cancelled",
}

// String 返回错误类型的稳定名称，报告中使用
func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// MarshalText 让错误类型在 JSON/YAML 报告中以名称输出
func (t ErrorType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ExecutionError 统一的执行错误类型
type ExecutionError struct {
	Type    ErrorType // 错误类型
	Host    string    // 目标主机（如果适用）
	Task    string    // 任务名称（如果适用）
	Message string    // 错误消息
	Cause   error     // 原始错误
}

func (e *ExecutionError) Error() string {
	switch {
	case e.Host != "" && e.Task != "":
		return fmt.Sprintf("[%s] %s: %s", e.Host, e.Task, e.Message)
	case e.Host != "":
		return fmt.Sprintf("[%s] %s", e.Host, e.Message)
	default:
		return e.Message
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError 创建连接错误
func NewConnectionError(host string, cause error) *ExecutionError {
	return &ExecutionError{
		Type:    ErrConnection,
		Host:    host,
		Message: fmt.Sprintf("failed to connect to host: %v", cause),
		Cause:   cause,
	}
}

// NewExecutionError 创建远程调用错误
func NewExecutionError(host, task string, cause error) *ExecutionError {
	return &ExecutionError{
		Type:    ErrExecution,
		Host:    host,
		Task:    task,
		Message: fmt.Sprintf("remote execution failed: %v", cause),
		Cause:   cause,
	}
}

// NewTimeoutError 创建超时错误
func NewTimeoutError(host, task string, duration time.Duration) *ExecutionError {
	return &ExecutionError{
		Type:    ErrTimeout,
		Host:    host,
		Task:    task,
		Message: fmt.Sprintf("timeout after %v", duration),
	}
}

// NewConditionError 创建 when 条件错误，typ 只能是 ErrParse 或 ErrEval
func NewConditionError(typ ErrorType, host, task string, cause error) *ExecutionError {
	return &ExecutionError{
		Type:    typ,
		Host:    host,
		Task:    task,
		Message: fmt.Sprintf("when condition: %v", cause),
		Cause:   cause,
	}
}

// NewTaskFailedError 创建任务失败错误
func NewTaskFailedError(host, task, msg string) *ExecutionError {
	return &ExecutionError{
		Type:    ErrTaskFailed,
		Host:    host,
		Task:    task,
		Message: msg,
	}
}

// NewResolutionError 创建地址解析错误
func NewResolutionError(host string) *ExecutionError {
	return &ExecutionError{
		Type:    ErrResolution,
		Host:    host,
		Message: fmt.Sprintf("host %s is not defined in the host config", host),
	}
}

// NewCancelledError 创建取消错误
func NewCancelledError(host string, cause error) *ExecutionError {
	return &ExecutionError{
		Type:    ErrCancelled,
		Host:    host,
		Message: "run cancelled",
		Cause:   cause,
	}
}

// NewParseError 创建解析错误
func NewParseError(filePath string, cause error) *ExecutionError {
	return &ExecutionError{
		Type:    ErrParse,
		Message: fmt.Sprintf("failed to parse %s: %v", filePath, cause),
		Cause:   cause,
	}
}

// TypeOf 返回错误链中第一个 ExecutionError 的类型
func TypeOf(err error) (ErrorType, bool) {
	var execErr *ExecutionError
	if stderrors.As(err, &execErr) {
		return execErr.Type, true
	}
	return 0, false
}

// Is 判断错误链中是否包含指定类型的 ExecutionError
func Is(err error, typ ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == typ
}
