package render

import (
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var disableAutoescape sync.Once

// Pongo2Engine 使用 pongo2 渲染 Jinja2 语法的模板
type Pongo2Engine struct{}

// NewPongo2Engine 创建 pongo2 引擎
func NewPongo2Engine() *Pongo2Engine {
	// 配置文件不是 HTML，关闭自动转义
	disableAutoescape.Do(func() { pongo2.SetAutoescape(false) })
	return &Pongo2Engine{}
}

// Render 渲染模板
func (e *Pongo2Engine) Render(body string, vars map[string]string) (string, error) {
	if err := unresolved(jinjaPlaceholders(body), vars); err != nil {
		return "", err
	}

	tpl, err := pongo2.FromString(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	out, err := tpl.Execute(pongo2.Context(toContext(vars)))
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}

// Close pongo2 没有需要释放的资源
func (e *Pongo2Engine) Close() error {
	return nil
}
