package inventory

import (
	"fmt"
	"net"
	"strconv"
)

// GlobalConfig 全局默认凭据
type GlobalConfig struct {
	User string `yaml:"user" json:"user"`
	Key  string `yaml:"key" json:"key"`
}

// HostSpec 表示一个目标主机，未设置的字段回退到默认凭据
type HostSpec struct {
	Address string `yaml:"address" json:"address"`
	User    string `yaml:"user,omitempty" json:"user,omitempty"`
	KeyPath string `yaml:"key,omitempty" json:"key,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty" jsonschema:"minimum=1,maximum=65535"`
}

// Inventory 表示整个主机配置：全局凭据 + 有序主机列表
type Inventory struct {
	GlobalConfig GlobalConfig `yaml:"global_config" json:"global_config"`
	Hosts        []HostSpec   `yaml:"hosts" json:"hosts"`
}

// Target 已解析的连接目标，凭据优先级已经计算完成
type Target struct {
	Address string `json:"address" yaml:"address"`
	User    string `json:"user" yaml:"user"`
	KeyPath string `json:"key_path,omitempty" yaml:"key_path,omitempty"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// String 返回主机地址
func (t Target) String() string {
	return t.Address
}

// HostPort 返回 host:port，port 为 0 时使用 defaultPort
func (t Target) HostPort(defaultPort int) string {
	port := t.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(t.Address, strconv.Itoa(port))
}

// Validate 检查主机配置是否完整
func (inv *Inventory) Validate() error {
	seen := make(map[string]bool, len(inv.Hosts))
	for i, host := range inv.Hosts {
		if host.Address == "" {
			return fmt.Errorf("hosts[%d]: address is required", i)
		}
		if seen[host.Address] {
			return fmt.Errorf("hosts[%d]: duplicate address %s", i, host.Address)
		}
		seen[host.Address] = true
	}
	return nil
}
