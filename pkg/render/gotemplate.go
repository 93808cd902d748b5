package render

import (
	"bytes"
	"fmt"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"
)

// GoTemplateEngine 使用 text/template 渲染，函数来自 sprig
// 变量通过 {{ .name }} 引用
type GoTemplateEngine struct {
	funcs template.FuncMap
}

// NewGoTemplateEngine 创建 gotemplate 引擎
func NewGoTemplateEngine() *GoTemplateEngine {
	return &GoTemplateEngine{funcs: sprig.TxtFuncMap()}
}

// Render 渲染模板
func (e *GoTemplateEngine) Render(body string, vars map[string]string) (string, error) {
	tpl, err := template.New("template").
		Funcs(e.funcs).
		Option("missingkey=error").
		Parse(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	if err := unresolved(fieldNames(tpl.Tree), vars); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Close 无资源需要释放
func (e *GoTemplateEngine) Close() error {
	return nil
}

// fieldNames 收集模板中 .name 形式引用的顶层字段
func fieldNames(tree *parse.Tree) []string {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var names []string
	var walk func(n parse.Node)
	walkPipe := func(p *parse.PipeNode) {
		if p == nil {
			return
		}
		for _, cmd := range p.Cmds {
			for _, arg := range cmd.Args {
				walk(arg)
			}
		}
	}
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walkPipe(n.Pipe)
		case *parse.IfNode:
			walkPipe(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walkPipe(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walkPipe(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.PipeNode:
			walkPipe(n)
		case *parse.FieldNode:
			if len(n.Ident) > 0 {
				names = append(names, n.Ident[0])
			}
		}
	}
	walk(tree.Root)
	return names
}
