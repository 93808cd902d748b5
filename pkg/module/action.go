package module

import (
	"fmt"

	"github.com/jimyag/hostplay/pkg/render"
)

// Action 任务要执行的远程操作，只有本包中的四种实现
type Action interface {
	// Kind 返回 playbook 中使用的操作名
	Kind() string
	// Validate 检查必填参数
	Validate() error

	action()
}

// 操作名
const (
	KindShell         = "shell"
	KindCopy          = "copy"
	KindSearchReplace = "search_replace"
	KindTemplate      = "template"
)

// Kinds 所有支持的操作名
var Kinds = []string{KindShell, KindCopy, KindSearchReplace, KindTemplate}

// Shell 在目标主机上执行命令
type Shell struct {
	Command string `yaml:"command" json:"command" jsonschema:"minLength=1"`
}

// Copy 把文件复制到目标主机
// RemoteSrc 为 true 时 Src 是目标主机上的路径
type Copy struct {
	Src       string `yaml:"src" json:"src" jsonschema:"minLength=1"`
	Dest      string `yaml:"dest" json:"dest" jsonschema:"minLength=1"`
	RemoteSrc bool   `yaml:"remote_src,omitempty" json:"remote_src,omitempty"`
}

// SearchReplace 用正则替换远程文件内容
type SearchReplace struct {
	Path    string `yaml:"path" json:"path" jsonschema:"minLength=1"`
	Search  string `yaml:"search" json:"search" jsonschema:"minLength=1"`
	Replace string `yaml:"replace" json:"replace"`
}

// Template 渲染本地模板并部署到目标主机
type Template struct {
	Src       string            `yaml:"src" json:"src" jsonschema:"minLength=1"`
	Dest      string            `yaml:"dest" json:"dest" jsonschema:"minLength=1"`
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Engine    string            `yaml:"engine,omitempty" json:"engine,omitempty" jsonschema:"enum=pongo2,enum=gotemplate,enum=jinja2"`
}

func (*Shell) Kind() string         { return KindShell }
func (*Copy) Kind() string          { return KindCopy }
func (*SearchReplace) Kind() string { return KindSearchReplace }
func (*Template) Kind() string      { return KindTemplate }

func (*Shell) action()         {}
func (*Copy) action()          {}
func (*SearchReplace) action() {}
func (*Template) action()      {}

func (a *Shell) Validate() error {
	if a.Command == "" {
		return fmt.Errorf("shell: command is required")
	}
	return nil
}

func (a *Copy) Validate() error {
	if a.Src == "" {
		return fmt.Errorf("copy: src is required")
	}
	if a.Dest == "" {
		return fmt.Errorf("copy: dest is required")
	}
	return nil
}

func (a *SearchReplace) Validate() error {
	if a.Path == "" {
		return fmt.Errorf("search_replace: path is required")
	}
	if a.Search == "" {
		return fmt.Errorf("search_replace: search is required")
	}
	return nil
}

func (a *Template) Validate() error {
	if a.Src == "" {
		return fmt.Errorf("template: src is required")
	}
	if a.Dest == "" {
		return fmt.Errorf("template: dest is required")
	}
	if !render.IsEngine(a.Engine) {
		return fmt.Errorf("template: unknown engine %q", a.Engine)
	}
	return nil
}
