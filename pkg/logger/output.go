package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Printer 实时输出任务进度，多个主机并发调用是安全的
// nil Printer 不输出任何内容
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool

	header  lipgloss.Style
	ok      lipgloss.Style
	changed lipgloss.Style
	failed  lipgloss.Style
	skipped lipgloss.Style
	warning lipgloss.Style
}

// NewPrinter 创建输出器，quiet 时只输出失败
func NewPrinter(out io.Writer, quiet bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		quiet:   quiet,
		header:  r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		changed: r.NewStyle().Foreground(lipgloss.Color("3")),
		failed:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		skipped: r.NewStyle().Foreground(lipgloss.Color("6")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// PlayHeader 打印 playbook 头部
func (p *Printer) PlayHeader(name string) {
	if p == nil || p.quiet {
		return
	}
	p.println(p.header.Render(fmt.Sprintf("\nPLAY [%s] %s", name, strings.Repeat("*", 44))))
}

// TaskResult 打印一个主机上一个任务的结果
// status 是 changed/unchanged/failed/skipped 之一
func (p *Printer) TaskResult(host, task, status, msg string) {
	if p == nil {
		return
	}
	if p.quiet && status != "failed" {
		return
	}

	var label string
	switch status {
	case "failed":
		label = p.failed.Render("FAILED")
	case "skipped":
		label = p.skipped.Render("skipping")
	case "changed":
		label = p.changed.Render("changed")
	default:
		label = p.ok.Render("ok")
	}

	line := fmt.Sprintf("%s: [%s] %s", label, host, task)
	if msg != "" {
		line += " => " + msg
	}
	p.println(line)
}

// HostAborted 打印主机中止信息
func (p *Printer) HostAborted(host, reason string) {
	if p == nil {
		return
	}
	p.println(fmt.Sprintf("%s: [%s] %s", p.failed.Render("ABORTED"), host, reason))
}

// Warning 打印警告信息
func (p *Printer) Warning(msg string) {
	if p == nil || p.quiet {
		return
	}
	p.println(p.warning.Render("[WARNING]: " + msg))
}
