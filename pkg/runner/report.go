package runner

import (
	"fmt"
	"time"

	"github.com/jimyag/hostplay/pkg/module"
)

// HostStatus 主机运行的终态
type HostStatus string

const (
	HostCompleted HostStatus = "completed"
	HostAborted   HostStatus = "aborted"
)

// TaskReport 一个任务在一个主机上的结果
type TaskReport struct {
	Task          string        `json:"task" yaml:"task"`
	module.Result `yaml:",inline"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// HostReport 一个主机的运行结果，任务按执行顺序排列
type HostReport struct {
	Host       string        `json:"host" yaml:"host"`
	Status     HostStatus    `json:"status" yaml:"status"`
	Tasks      []TaskReport  `json:"tasks" yaml:"tasks"`
	FailedTask string        `json:"failed_task,omitempty" yaml:"failed_task,omitempty"`
	Reason     string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	ErrorType  string        `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`

	// Err 中止原因的原始错误
	Err error `json:"-" yaml:"-"`
}

// Aborted 主机是否中止
func (h *HostReport) Aborted() bool {
	return h.Status == HostAborted
}

// Stats 统计主机上的任务结果
func (h *HostReport) Stats() HostStats {
	var s HostStats
	for _, t := range h.Tasks {
		switch {
		case t.Status.Succeeded():
			s.Ok++
			if t.Changed() {
				s.Changed++
			}
		case t.Failed():
			s.Failed++
		case t.Status == module.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// HostStats 主机统计信息
type HostStats struct {
	Ok      int `json:"ok" yaml:"ok"`
	Changed int `json:"changed" yaml:"changed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// String 返回格式化的统计信息
func (s HostStats) String() string {
	return fmt.Sprintf("ok=%d changed=%d failed=%d skipped=%d", s.Ok, s.Changed, s.Failed, s.Skipped)
}

// RunReport 一次 playbook 运行的汇总，主机顺序与 playbook 中的声明顺序一致
type RunReport struct {
	ID        string        `json:"id" yaml:"id"`
	Playbook  string        `json:"playbook" yaml:"playbook"`
	Tags      []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Hosts     []HostReport  `json:"hosts" yaml:"hosts"`
}

// Failed 任何主机中止即视为运行失败
func (r *RunReport) Failed() bool {
	for i := range r.Hosts {
		if r.Hosts[i].Aborted() {
			return true
		}
	}
	return false
}

// Host 按地址查找主机结果
func (r *RunReport) Host(address string) (*HostReport, bool) {
	for i := range r.Hosts {
		if r.Hosts[i].Host == address {
			return &r.Hosts[i], true
		}
	}
	return nil, false
}

// AnyFailed 多个运行中是否有失败
func AnyFailed(reports []*RunReport) bool {
	for _, r := range reports {
		if r.Failed() {
			return true
		}
	}
	return false
}
