package runner

import (
	"fmt"
	"strings"

	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/jimyag/hostplay/pkg/module"
	"github.com/jimyag/hostplay/pkg/playbook"
)

// PatternAll 匹配主机配置中的所有主机
const PatternAll = "all"

// ResolvePattern 把主机模式展开为地址列表
// 支持 all 和逗号分隔的地址
func ResolvePattern(pattern string, inv *inventory.Inventory) ([]string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("empty host pattern")
	}
	if pattern == PatternAll {
		addrs := inv.Addresses()
		if len(addrs) == 0 {
			return nil, fmt.Errorf("no hosts defined in the host config")
		}
		return addrs, nil
	}

	var addrs []string
	for _, part := range strings.Split(pattern, ",") {
		if part = strings.TrimSpace(part); part != "" {
			addrs = append(addrs, part)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no hosts matched pattern %q", pattern)
	}
	return addrs, nil
}

// AdhocPlaybook 构造只包含一个 shell 任务的 playbook
func AdhocPlaybook(hosts []string, command string) (*playbook.Playbook, error) {
	action := &module.Shell{Command: command}
	if err := action.Validate(); err != nil {
		return nil, err
	}
	pb := &playbook.Playbook{
		Name:  "ad-hoc",
		Hosts: hosts,
		Tasks: []playbook.Task{{Name: "shell: " + command, Action: action}},
	}
	return pb, nil
}
