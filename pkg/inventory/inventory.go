package inventory

import (
	"github.com/jimyag/hostplay/pkg/errors"
)

// Lookup 按地址查找主机
func (inv *Inventory) Lookup(address string) (*HostSpec, bool) {
	for i := range inv.Hosts {
		if inv.Hosts[i].Address == address {
			return &inv.Hosts[i], true
		}
	}
	return nil, false
}

// Addresses 返回所有主机地址（保持声明顺序）
func (inv *Inventory) Addresses() []string {
	addrs := make([]string, 0, len(inv.Hosts))
	for _, host := range inv.Hosts {
		addrs = append(addrs, host.Address)
	}
	return addrs
}

// Resolve 解析地址为连接目标
// 凭据优先级：主机覆盖 > playbook 的 local_config > 全局配置
func (inv *Inventory) Resolve(address string, local *GlobalConfig) (Target, error) {
	host, ok := inv.Lookup(address)
	if !ok {
		return Target{}, errors.NewResolutionError(address)
	}

	defaults := inv.GlobalConfig
	if local != nil {
		if local.User != "" {
			defaults.User = local.User
		}
		if local.Key != "" {
			defaults.Key = local.Key
		}
	}

	target := Target{
		Address: host.Address,
		User:    defaults.User,
		KeyPath: defaults.Key,
		Port:    host.Port,
	}
	if host.User != "" {
		target.User = host.User
	}
	if host.KeyPath != "" {
		target.KeyPath = host.KeyPath
	}
	return target, nil
}
