package runner

import (
	"sort"

	"github.com/jimyag/hostplay/pkg/module"
)

// Registers 单个主机的注册表：注册名 -> 任务结果
// 只由所属的 HostRunner 读写，不跨主机共享
type Registers struct {
	results map[string]*module.Result
}

// NewRegisters 创建空注册表
func NewRegisters() *Registers {
	return &Registers{results: make(map[string]*module.Result)}
}

// Set 注册任务结果，同名覆盖
func (r *Registers) Set(name string, result *module.Result) {
	r.results[name] = result
}

// Lookup 查询注册结果
func (r *Registers) Lookup(name string) (*module.Result, bool) {
	result, ok := r.results[name]
	return result, ok
}

// Names 返回所有注册名
func (r *Registers) Names() []string {
	names := make([]string, 0, len(r.results))
	for name := range r.results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
