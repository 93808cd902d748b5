package runner

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jimyag/hostplay/pkg/module"
)

func sampleReport() *RunReport {
	return &RunReport{
		ID:       "6f1c2b8e-0000-4000-8000-000000000001",
		Playbook: "site",
		Duration: 1500 * time.Millisecond,
		Hosts: []HostReport{
			{
				Host:   "web1",
				Status: HostCompleted,
				Tasks: []TaskReport{
					{Task: "up", Result: module.Result{Status: module.StatusChanged, Output: "up 1 day"}},
					{Task: "edit", Result: module.Result{Status: module.StatusUnchanged}},
					{Task: "restart", Result: module.Result{Status: module.StatusSkipped}},
				},
			},
			{
				Host:       "web2",
				Status:     HostAborted,
				FailedTask: "up",
				Reason:     "non-zero return code 1",
				ErrorType:  "task_failed",
				Tasks: []TaskReport{
					{Task: "up", Result: module.Result{Status: module.StatusFailed, RC: 1, Msg: "non-zero return code 1"}},
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHostReport_Stats(t *testing.T) {
	rep := sampleReport()
	tests := []struct {
		host string
		want string
	}{
		{host: "web1", want: "ok=2 changed=1 failed=0 skipped=1"},
		{host: "web2", want: "ok=0 changed=0 failed=1 skipped=0"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			h, _ := rep.Host(tt.host)
			if got := h.Stats().String(); got != tt.want {
				t.Errorf("Stats() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, []*RunReport{sampleReport()}, FormatText); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"PLAY RECAP [site]",
		"web1 : ok=2 changed=1 failed=0 skipped=1",
		"web2 : ok=0 changed=0 failed=1 skipped=0",
		"aborted (task: up): non-zero return code 1",
		"finished in 1.5s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, []*RunReport{sampleReport()}, FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var got []struct {
		ID    string `json:"id"`
		Hosts []struct {
			Host      string `json:"host"`
			Status    string `json:"status"`
			ErrorType string `json:"error_type"`
			Tasks     []struct {
				Task   string `json:"task"`
				Status string `json:"status"`
				RC     int    `json:"rc"`
			} `json:"tasks"`
		} `json:"hosts"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(got) != 1 || len(got[0].Hosts) != 2 {
		t.Fatalf("unexpected shape: %s", buf.String())
	}
	web2 := got[0].Hosts[1]
	if web2.Status != "aborted" || web2.ErrorType != "task_failed" {
		t.Errorf("web2 = %+v", web2)
	}
	if web2.Tasks[0].Status != "failed" || web2.Tasks[0].RC != 1 {
		t.Errorf("web2 task = %+v", web2.Tasks[0])
	}
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, []*RunReport{sampleReport()}, FormatYAML); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	hosts, ok := got[0]["hosts"].([]any)
	if !ok || len(hosts) != 2 {
		t.Fatalf("hosts = %#v", got[0]["hosts"])
	}
	web1 := hosts[0].(map[string]any)
	tasks := web1["tasks"].([]any)
	// Result 字段内联到任务条目
	if status := tasks[0].(map[string]any)["status"]; status != "changed" {
		t.Errorf("first task status = %v, want changed", status)
	}
}
