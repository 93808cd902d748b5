package module

import "fmt"

// Status 任务结果状态
type Status string

const (
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
	// StatusSkipped 只出现在报告里，when 条件为假时记录
	StatusSkipped Status = "skipped"
)

// Succeeded changed 和 unchanged 都表示任务成功
func (s Status) Succeeded() bool {
	return s == StatusChanged || s == StatusUnchanged
}

// Result 模块执行结果，每个主机每个任务产生一次，之后不再修改
type Result struct {
	Status   Status `json:"status" yaml:"status"`
	Msg      string `json:"msg,omitempty" yaml:"msg,omitempty"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
	RC       int    `json:"rc,omitempty" yaml:"rc,omitempty"`
	Stdout   string `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Dest     string `json:"dest,omitempty" yaml:"dest,omitempty"` // copy/template 目标路径
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// Failed 任务是否失败
func (r *Result) Failed() bool {
	return r.Status == StatusFailed
}

// Changed 任务是否修改了远程状态
func (r *Result) Changed() bool {
	return r.Status == StatusChanged
}

func failedf(format string, args ...any) *Result {
	return &Result{Status: StatusFailed, Msg: fmt.Sprintf(format, args...)}
}
