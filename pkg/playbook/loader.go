package playbook

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jimyag/hostplay/pkg/errors"
	"github.com/jimyag/hostplay/pkg/module"
	"github.com/jimyag/hostplay/pkg/schema"
)

// Load 加载 playbook 文件及其 include，返回按执行顺序排列的列表
// 被引用的 playbook 深度优先排在引用者之前，循环引用返回错误
func Load(path string) ([]*Playbook, error) {
	l := &loader{stack: make(map[string]bool)}
	if err := l.load(path, nil); err != nil {
		return nil, err
	}
	return l.plays, nil
}

type loader struct {
	stack map[string]bool
	plays []*Playbook
}

func (l *loader) load(path string, tags []string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if l.stack[abs] {
		return errors.NewParseError(path, fmt.Errorf("include cycle detected at %s", abs))
	}
	l.stack[abs] = true
	defer delete(l.stack, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read playbook: %w", err)
	}
	pb, err := Parse(data, abs)
	if err != nil {
		return err
	}

	dir := filepath.Dir(abs)
	for _, inc := range pb.Include {
		incPath := inc.File
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(dir, incPath)
		}
		if err := l.load(incPath, append(append([]string(nil), tags...), inc.Tags...)); err != nil {
			return err
		}
	}

	for i := range pb.Tasks {
		pb.Tasks[i].addTags(tags)
	}
	resolvePaths(pb, dir)
	l.plays = append(l.plays, pb)
	return nil
}

// Parse 校验并解析单个 playbook，不处理 include
func Parse(data []byte, source string) (*Playbook, error) {
	if err := schema.ValidateYAML(Document, data); err != nil {
		return nil, errors.NewParseError(source, err)
	}

	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, errors.NewParseError(source, err)
	}
	if err := pb.Validate(); err != nil {
		return nil, errors.NewParseError(source, err)
	}
	pb.Path = source
	return &pb, nil
}

// Validate 检查 playbook 结构
func (p *Playbook) Validate() error {
	if len(p.Hosts) == 0 {
		return fmt.Errorf("hosts is required")
	}
	for i, host := range p.Hosts {
		if host == "" {
			return fmt.Errorf("hosts[%d]: empty address", i)
		}
	}
	for i := range p.Tasks {
		if p.Tasks[i].Action == nil {
			return fmt.Errorf("tasks[%d]: no action", i)
		}
		if err := p.Tasks[i].Action.Validate(); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	return nil
}

// resolvePaths 把控制端的相对路径解析为相对 playbook 所在目录
func resolvePaths(pb *Playbook, dir string) {
	for i := range pb.Tasks {
		switch a := pb.Tasks[i].Action.(type) {
		case *module.Copy:
			if !a.RemoteSrc && !filepath.IsAbs(a.Src) {
				a.Src = filepath.Join(dir, a.Src)
			}
		case *module.Template:
			if !filepath.IsAbs(a.Src) {
				a.Src = filepath.Join(dir, a.Src)
			}
		}
	}
}

// UniqueHosts 返回去重后的目标地址，保持首次出现的顺序
func (p *Playbook) UniqueHosts() []string {
	seen := make(map[string]bool, len(p.Hosts))
	hosts := make([]string, 0, len(p.Hosts))
	for _, h := range p.Hosts {
		if !seen[h] {
			seen[h] = true
			hosts = append(hosts, h)
		}
	}
	return hosts
}
