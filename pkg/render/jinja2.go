package render

import (
	"fmt"
	"strings"
	"sync"

	gojinja2 "github.com/kluctl/kluctl/lib/go-jinja2"
)

// Jinja2Engine 完整的 Jinja2 模板引擎（使用 go-jinja2，内嵌 Python）
type Jinja2Engine struct {
	j2     *gojinja2.Jinja2
	mu     sync.Mutex
	inited bool
}

// NewJinja2Engine 创建 Jinja2 模板引擎
func NewJinja2Engine() *Jinja2Engine {
	return &Jinja2Engine{}
}

// init 延迟初始化，只有真正需要渲染时才启动 Python 进程
func (e *Jinja2Engine) init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inited {
		return nil
	}

	// 严格模式：引用未定义变量时渲染失败
	j2, err := gojinja2.NewJinja2("hostplay", 1, gojinja2.WithStrict(true))
	if err != nil {
		return fmt.Errorf("failed to initialize Jinja2 engine: %w", err)
	}

	e.j2 = j2
	e.inited = true
	return nil
}

// Render 渲染模板
func (e *Jinja2Engine) Render(body string, vars map[string]string) (string, error) {
	// 没有模板语法，直接返回
	if !strings.Contains(body, "{{") && !strings.Contains(body, "{%") {
		return body, nil
	}

	if err := unresolved(jinjaPlaceholders(body), vars); err != nil {
		return "", err
	}

	if err := e.init(); err != nil {
		return "", err
	}

	out, err := e.j2.RenderString(body, gojinja2.WithGlobals(toContext(vars)))
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}

// Close 关闭 Jinja2 引擎
func (e *Jinja2Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.j2 != nil {
		e.j2.Close()
		e.j2 = nil
		e.inited = false
	}
	return nil
}
