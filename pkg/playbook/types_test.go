package playbook

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jimyag/hostplay/pkg/module"
)

func TestTask_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantName string
		want     module.Action
		wantTags []string
		wantReg  string
		wantWhen string
	}{
		{
			name:     "shell shorthand",
			yaml:     "name: uptime\nshell: uptime\n",
			wantName: "uptime",
			want:     &module.Shell{Command: "uptime"},
		},
		{
			name:     "shell mapping with metadata",
			yaml:     "name: restart\ntags: [maintenance]\nregister: restarted\nwhen: config == changed\nshell:\n  command: systemctl restart app\n",
			wantName: "restart",
			want:     &module.Shell{Command: "systemctl restart app"},
			wantTags: []string{"maintenance"},
			wantReg:  "restarted",
			wantWhen: "config == changed",
		},
		{
			name:     "name nested in action",
			yaml:     "copy:\n  name: copy motd\n  src: files/motd\n  dest: /etc/motd\n",
			wantName: "copy motd",
			want:     &module.Copy{Src: "files/motd", Dest: "/etc/motd"},
		},
		{
			name:     "top level name wins",
			yaml:     "name: outer\nshell:\n  name: inner\n  command: ls\n",
			wantName: "outer",
			want:     &module.Shell{Command: "ls"},
		},
		{
			name: "remote copy",
			yaml: "copy: {src: /a, dest: /b, remote_src: true}\n",
			want: &module.Copy{Src: "/a", Dest: "/b", RemoteSrc: true},
		},
		{
			name: "search replace",
			yaml: "search_replace:\n  path: /etc/app.conf\n  search: '\\d+'\n  replace: '0'\n",
			want: &module.SearchReplace{Path: "/etc/app.conf", Search: `\d+`, Replace: "0"},
		},
		{
			name: "template",
			yaml: "template:\n  src: app.j2\n  dest: /etc/app.conf\n  engine: gotemplate\n  variables:\n    port: '80'\n",
			want: &module.Template{Src: "app.j2", Dest: "/etc/app.conf", Engine: "gotemplate", Variables: map[string]string{"port": "80"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var task Task
			if err := yaml.Unmarshal([]byte(tt.yaml), &task); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if task.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", task.Name, tt.wantName)
			}
			if task.Register != tt.wantReg {
				t.Errorf("Register = %q, want %q", task.Register, tt.wantReg)
			}
			if task.When != tt.wantWhen {
				t.Errorf("When = %q, want %q", task.When, tt.wantWhen)
			}
			if strings.Join(task.Tags, ",") != strings.Join(tt.wantTags, ",") {
				t.Errorf("Tags = %v, want %v", task.Tags, tt.wantTags)
			}
			if !actionEqual(task.Action, tt.want) {
				t.Errorf("Action = %#v, want %#v", task.Action, tt.want)
			}
		})
	}
}

func actionEqual(a, b module.Action) bool {
	switch x := a.(type) {
	case *module.Shell:
		y, ok := b.(*module.Shell)
		return ok && *x == *y
	case *module.Copy:
		y, ok := b.(*module.Copy)
		return ok && *x == *y
	case *module.SearchReplace:
		y, ok := b.(*module.SearchReplace)
		return ok && *x == *y
	case *module.Template:
		y, ok := b.(*module.Template)
		if !ok || x.Src != y.Src || x.Dest != y.Dest || x.Engine != y.Engine || len(x.Variables) != len(y.Variables) {
			return false
		}
		for k, v := range x.Variables {
			if y.Variables[k] != v {
				return false
			}
		}
		return true
	}
	return false
}

func TestTask_UnmarshalYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "no action", yaml: "name: nothing\n", wantErr: "no action found"},
		{name: "two actions", yaml: "shell: ls\ncopy: {src: a, dest: b}\n", wantErr: "more than one action"},
		{name: "unknown field", yaml: "shell: ls\nbecome: true\n", wantErr: `unknown task field "become"`},
		{name: "missing required arg", yaml: "copy: {src: a}\n", wantErr: "dest is required"},
		{name: "scalar copy", yaml: "copy: a b\n", wantErr: "unsupported args format"},
		{name: "not a mapping", yaml: "- shell: ls\n", wantErr: "task must be a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var task Task
			err := yaml.Unmarshal([]byte(tt.yaml), &task)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Unmarshal() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTask_DisplayName(t *testing.T) {
	tests := []struct {
		task Task
		want string
	}{
		{task: Task{Name: "named", Action: &module.Shell{Command: "ls"}}, want: "named"},
		{task: Task{Action: &module.Shell{Command: "ls -l"}}, want: "shell: ls -l"},
		{task: Task{Action: &module.Copy{Src: "a", Dest: "b"}}, want: "copy"},
	}

	for _, tt := range tests {
		if got := tt.task.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestTagFilter(t *testing.T) {
	tasks := []Task{
		{Name: "t1", Tags: []string{"diagnostics"}},
		{Name: "t2", Tags: []string{"maintenance"}},
		{Name: "t3", Tags: []string{"text_processing", "files"}},
		{Name: "t4"},
	}

	tests := []struct {
		name   string
		filter TagFilter
		want   []string
	}{
		{name: "empty filter runs all", filter: NewTagFilter(), want: []string{"t1", "t2", "t3", "t4"}},
		{name: "files only", filter: NewTagFilter("files"), want: []string{"t3"}},
		{name: "union keeps order", filter: ParseTagFilter("files, diagnostics"), want: []string{"t1", "t3"}},
		{name: "no match", filter: NewTagFilter("deploy"), want: []string{}},
		{name: "blank tags ignored", filter: ParseTagFilter(" , "), want: []string{"t1", "t2", "t3", "t4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected := tt.filter.Select(tasks)
			got := make([]string, 0, len(selected))
			for _, task := range selected {
				got = append(got, task.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlaybook_UniqueHosts(t *testing.T) {
	pb := &Playbook{Hosts: []string{"b", "a", "b", "c", "a"}}
	if got := strings.Join(pb.UniqueHosts(), ","); got != "b,a,c" {
		t.Errorf("UniqueHosts() = %s, want b,a,c", got)
	}
}
