// Package render 渲染模板任务的源文件
//
// 支持三种引擎：pongo2（默认，Jinja2 语法）、gotemplate（text/template + sprig）
// 和 jinja2（完整的 Python Jinja2）。所有引擎在遇到未绑定的占位符时都返回
// *UnresolvedError，不会把残缺的内容部署到目标主机。
package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// 引擎名称
const (
	EnginePongo2     = "pongo2"
	EngineGoTemplate = "gotemplate"
	EngineJinja2     = "jinja2"
)

// Renderer 模板引擎接口
type Renderer interface {
	// Render 用 vars 渲染 body
	Render(body string, vars map[string]string) (string, error)

	// Close 释放引擎资源
	Close() error
}

// UnresolvedError 模板中存在没有绑定变量的占位符
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved template placeholders: %s", strings.Join(e.Names, ", "))
}

// unresolved 返回 names 中不在 vars 里的名字，去重并排序
func unresolved(names []string, vars map[string]string) error {
	seen := make(map[string]bool)
	var missing []string
	for _, name := range names {
		if _, ok := vars[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &UnresolvedError{Names: missing}
}

// Manager 按名称管理模板引擎，引擎在第一次使用时创建
type Manager struct {
	mu      sync.Mutex
	engines map[string]Renderer
}

// NewManager 创建引擎管理器
func NewManager() *Manager {
	return &Manager{engines: make(map[string]Renderer)}
}

// Engine 返回指定名称的引擎，空名称表示 pongo2
func (m *Manager) Engine(name string) (Renderer, error) {
	if name == "" {
		name = EnginePongo2
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.engines[name]; ok {
		return r, nil
	}

	var r Renderer
	switch name {
	case EnginePongo2:
		r = NewPongo2Engine()
	case EngineGoTemplate:
		r = NewGoTemplateEngine()
	case EngineJinja2:
		r = NewJinja2Engine()
	default:
		return nil, fmt.Errorf("unknown template engine %q", name)
	}
	m.engines[name] = r
	return r, nil
}

// Render 使用指定引擎渲染
func (m *Manager) Render(engine, body string, vars map[string]string) (string, error) {
	r, err := m.Engine(engine)
	if err != nil {
		return "", err
	}
	return r.Render(body, vars)
}

// Close 关闭所有已创建的引擎
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, r := range m.engines {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s engine: %w", name, err)
		}
		delete(m.engines, name)
	}
	return firstErr
}

// IsEngine 判断引擎名称是否合法
func IsEngine(name string) bool {
	switch name {
	case "", EnginePongo2, EngineGoTemplate, EngineJinja2:
		return true
	}
	return false
}

func toContext(vars map[string]string) map[string]any {
	ctx := make(map[string]any, len(vars))
	for k, v := range vars {
		ctx[k] = v
	}
	return ctx
}
