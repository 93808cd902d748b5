package inventory

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/jimyag/hostplay/pkg/errors"
	"github.com/jimyag/hostplay/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Document 主机配置文档的 schema 描述
var Document = schema.Document{
	Name:        "hosts",
	Title:       "hostplay host config",
	Description: "Global credentials and the ordered list of target hosts",
	Type:        &Inventory{},
}

// Load 加载主机配置文件
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host config: %w", err)
	}
	return Parse(data, path)
}

// LoadScript 执行主机脚本，并把其标准输出解析为主机配置
func LoadScript(ctx context.Context, path string) (*Inventory, error) {
	cmd := exec.CommandContext(ctx, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("host script %s failed: %w: %s", path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return Parse(out, path)
}

// Parse 校验并解析主机配置
func Parse(data []byte, source string) (*Inventory, error) {
	if err := schema.ValidateYAML(Document, data); err != nil {
		return nil, errors.NewParseError(source, err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, errors.NewParseError(source, err)
	}
	if err := inv.Validate(); err != nil {
		return nil, errors.NewParseError(source, err)
	}
	return &inv, nil
}
