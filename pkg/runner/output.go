package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Format 报告输出格式
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat 解析输出格式
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json, yaml)", s)
	}
}

// Render 按指定格式输出运行报告
// 三种格式输出的是同一组 RunReport
func Render(w io.Writer, reports []*RunReport, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, reports)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderText 输出类似 PLAY RECAP 的汇总
func renderText(w io.Writer, reports []*RunReport) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	okStyle := r.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle := r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dim := r.NewStyle().Faint(true)

	var b strings.Builder
	for _, rep := range reports {
		fmt.Fprintf(&b, "\n%s\n", title.Render(fmt.Sprintf("PLAY RECAP [%s] %s", rep.Playbook, strings.Repeat("*", 40))))

		width := 0
		for i := range rep.Hosts {
			width = max(width, len(rep.Hosts[i].Host))
		}
		for i := range rep.Hosts {
			h := &rep.Hosts[i]
			host := fmt.Sprintf("%-*s", width, h.Host)
			if h.Aborted() {
				host = failStyle.Render(host)
			} else {
				host = okStyle.Render(host)
			}
			fmt.Fprintf(&b, "%s : %s\n", host, h.Stats())
			if h.Aborted() {
				where := ""
				if h.FailedTask != "" {
					where = fmt.Sprintf(" (task: %s)", h.FailedTask)
				}
				fmt.Fprintf(&b, "  %s%s: %s\n", failStyle.Render("aborted"), where, h.Reason)
			}
		}
		fmt.Fprintln(&b, dim.Render(fmt.Sprintf("run %s finished in %s", rep.ID, rep.Duration.Round(time.Millisecond))))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
