package playbook

import (
	"github.com/invopop/jsonschema"

	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/jimyag/hostplay/pkg/module"
	"github.com/jimyag/hostplay/pkg/schema"
)

// Document playbook 文档的 schema 描述
var Document = schema.Document{
	Name:        "playbook",
	Title:       "hostplay playbook",
	Description: "Target hosts and the ordered tasks to run on each of them",
	Type:        &playbookDocument{},
}

// 以下结构体只用于生成 schema，与 YAML 格式一一对应

type playbookDocument struct {
	Name        string                  `json:"name,omitempty"`
	Hosts       []string                `json:"hosts" jsonschema:"minItems=1"`
	LocalConfig *inventory.GlobalConfig `json:"local_config,omitempty"`
	Include     []includeDocument       `json:"include,omitempty"`
	Tasks       []taskDocument          `json:"tasks"`
}

type includeDocument struct {
	File string   `json:"file" jsonschema:"minLength=1"`
	Tags []string `json:"tags,omitempty"`
}

type taskDocument struct {
	Name          string                 `json:"name,omitempty"`
	Tags          []string               `json:"tags,omitempty"`
	Register      string                 `json:"register,omitempty" jsonschema:"pattern=^[A-Za-z_][A-Za-z0-9_]*$"`
	When          string                 `json:"when,omitempty"`
	Shell         *shellDocument         `json:"shell,omitempty"`
	Copy          *copyDocument          `json:"copy,omitempty"`
	SearchReplace *searchReplaceDocument `json:"search_replace,omitempty"`
	Template      *templateDocument      `json:"template,omitempty"`
}

type shellDocument struct {
	Name string `json:"name,omitempty"`
	module.Shell
}

type copyDocument struct {
	Name string `json:"name,omitempty"`
	module.Copy
}

type searchReplaceDocument struct {
	Name string `json:"name,omitempty"`
	module.SearchReplace
}

type templateDocument struct {
	Name string `json:"name,omitempty"`
	module.Template
}

// JSONSchemaExtend include 允许直接写文件名
func (playbookDocument) JSONSchemaExtend(s *jsonschema.Schema) {
	if prop, ok := s.Properties.Get("include"); ok && prop.Items != nil {
		prop.Items = &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{{Type: "string"}, prop.Items},
		}
	}
}

// JSONSchemaExtend 每个任务恰好一个操作，shell 允许字符串简写
func (taskDocument) JSONSchemaExtend(s *jsonschema.Schema) {
	if prop, ok := s.Properties.Get(module.KindShell); ok {
		s.Properties.Set(module.KindShell, &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{{Type: "string"}, prop},
		})
	}
	for _, kind := range module.Kinds {
		s.OneOf = append(s.OneOf, &jsonschema.Schema{Required: []string{kind}})
	}
}
