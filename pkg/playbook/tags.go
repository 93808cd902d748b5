package playbook

import (
	"sort"
	"strings"
)

// TagFilter 按标签选择任务，空过滤器表示全部运行
type TagFilter map[string]struct{}

// NewTagFilter 创建标签过滤器，忽略空白标签
func NewTagFilter(tags ...string) TagFilter {
	f := make(TagFilter, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			f[tag] = struct{}{}
		}
	}
	return f
}

// ParseTagFilter 解析逗号分隔的标签列表
func ParseTagFilter(s string) TagFilter {
	return NewTagFilter(strings.Split(s, ",")...)
}

// Empty 过滤器是否为空
func (f TagFilter) Empty() bool {
	return len(f) == 0
}

// Match 任务标签与过滤器有交集时返回 true
// 过滤器非空时，没有标签的任务不会被选中
func (f TagFilter) Match(task *Task) bool {
	if f.Empty() {
		return true
	}
	for _, tag := range task.Tags {
		if _, ok := f[tag]; ok {
			return true
		}
	}
	return false
}

// Select 返回被选中的任务，保持原顺序
func (f TagFilter) Select(tasks []Task) []Task {
	selected := make([]Task, 0, len(tasks))
	for i := range tasks {
		if f.Match(&tasks[i]) {
			selected = append(selected, tasks[i])
		}
	}
	return selected
}

// Tags 返回排好序的标签
func (f TagFilter) Tags() []string {
	tags := make([]string, 0, len(f))
	for tag := range f {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
