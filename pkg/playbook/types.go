package playbook

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/jimyag/hostplay/pkg/module"
)

// Playbook 一组目标主机和按顺序执行的任务，加载后不再修改
type Playbook struct {
	Name        string                  `yaml:"name,omitempty"`
	Hosts       []string                `yaml:"hosts"`
	LocalConfig *inventory.GlobalConfig `yaml:"local_config,omitempty"`
	Include     []Include               `yaml:"include,omitempty"`
	Tasks       []Task                  `yaml:"tasks"`

	// Path 来源文件，程序构造的 playbook 为空
	Path string `yaml:"-"`
}

// DisplayName 用于输出的名称
func (p *Playbook) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Path != "":
		return p.Path
	default:
		return strings.Join(p.Hosts, ",")
	}
}

// Include 引用另一个 playbook 文件，Tags 会追加到被引用的每个任务上
type Include struct {
	File string   `yaml:"file"`
	Tags []string `yaml:"tags,omitempty"`
}

// UnmarshalYAML 支持 "- other.yml" 的简写
func (inc *Include) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		inc.File = value.Value
		return nil
	}
	type plain Include
	return value.Decode((*plain)(inc))
}

// Task 代表一个任务
type Task struct {
	Name     string
	Tags     []string
	Register string
	When     string
	Action   module.Action
}

// 已知的任务字段
var knownFields = map[string]bool{
	"name":     true,
	"tags":     true,
	"register": true,
	"when":     true,
}

// 已知的操作
var knownKinds = map[string]bool{
	module.KindShell:         true,
	module.KindCopy:          true,
	module.KindSearchReplace: true,
	module.KindTemplate:      true,
}

// UnmarshalYAML 自定义 Task 的 YAML 解析
// 每个任务恰好包含一个操作；操作参数里的 name 也被接受
func (t *Task) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: task must be a mapping", value.Line)
	}

	// 使用辅助结构解析已知字段
	type TaskFields struct {
		Name     string   `yaml:"name"`
		Tags     []string `yaml:"tags"`
		Register string   `yaml:"register"`
		When     string   `yaml:"when"`
	}

	var fields TaskFields
	if err := value.Decode(&fields); err != nil {
		return err
	}

	t.Name = fields.Name
	t.Tags = fields.Tags
	t.Register = fields.Register
	t.When = strings.TrimSpace(fields.When)

	var kind string
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valueNode := value.Content[i+1]
		key := keyNode.Value

		if knownFields[key] {
			continue
		}
		if !knownKinds[key] {
			return fmt.Errorf("line %d: unknown task field %q", keyNode.Line, key)
		}
		if kind != "" {
			return fmt.Errorf("line %d: task has more than one action (%s and %s)", keyNode.Line, kind, key)
		}
		kind = key

		action, nestedName, err := decodeAction(key, valueNode)
		if err != nil {
			return fmt.Errorf("line %d: %w", valueNode.Line, err)
		}
		t.Action = action
		if t.Name == "" {
			t.Name = nestedName
		}
	}

	if t.Action == nil {
		return fmt.Errorf("line %d: no action found in task %q, expected one of %s",
			value.Line, t.Name, strings.Join(module.Kinds, ", "))
	}
	if err := t.Action.Validate(); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

// decodeAction 解析操作参数，返回参数中可能携带的任务名
func decodeAction(kind string, node *yaml.Node) (module.Action, string, error) {
	// 短格式: shell: uptime
	if node.Kind == yaml.ScalarNode && kind == module.KindShell {
		return &module.Shell{Command: node.Value}, "", nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, "", fmt.Errorf("unsupported args format for %s", kind)
	}

	var nested struct {
		Name string `yaml:"name"`
	}
	if err := node.Decode(&nested); err != nil {
		return nil, "", err
	}

	var action module.Action
	switch kind {
	case module.KindShell:
		action = &module.Shell{}
	case module.KindCopy:
		action = &module.Copy{}
	case module.KindSearchReplace:
		action = &module.SearchReplace{}
	case module.KindTemplate:
		action = &module.Template{}
	default:
		return nil, "", fmt.Errorf("unsupported action %s", kind)
	}
	if err := node.Decode(action); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s args: %w", kind, err)
	}
	return action, nested.Name, nil
}

// DisplayName 返回任务名，没有名字时使用操作名
func (t *Task) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Action == nil {
		return ""
	}
	if sh, ok := t.Action.(*module.Shell); ok {
		return fmt.Sprintf("%s: %s", sh.Kind(), sh.Command)
	}
	return t.Action.Kind()
}

// HasTag 任务是否带有指定标签
func (t *Task) HasTag(tag string) bool {
	for _, tt := range t.Tags {
		if tt == tag {
			return true
		}
	}
	return false
}

// addTags 追加标签，已有的不重复
func (t *Task) addTags(tags []string) {
	for _, tag := range tags {
		if !t.HasTag(tag) {
			t.Tags = append(t.Tags, tag)
		}
	}
}
