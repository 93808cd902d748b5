package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/jimyag/hostplay/pkg/logger"
	"github.com/jimyag/hostplay/pkg/module"
	"github.com/jimyag/hostplay/pkg/render"
	"github.com/jimyag/hostplay/pkg/runner"
)

// engine 一次命令调用用到的全部组件
type engine struct {
	inv          *inventory.Inventory
	renderer     *render.Manager
	orchestrator *runner.Orchestrator
	format       runner.Format
}

// newEngine 加载主机配置并组装调度器
func newEngine(ctx context.Context, baseDir string) (*engine, error) {
	format, err := runner.ParseFormat(opts.output)
	if err != nil {
		return nil, err
	}

	inv, err := loadInventory(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debugf("loaded %d hosts", len(inv.Hosts))

	cfg := connection.DefaultConfig()
	cfg.Port = opts.port
	cfg.ConnectTimeout = opts.connectTimeout
	cfg.CommandTimeout = opts.timeout
	cfg.KnownHostsFile = opts.knownHosts

	renderer := render.NewManager()
	// 机器可读格式独占 stdout，实时进度改写到 stderr
	progress := os.Stdout
	if format != runner.FormatText {
		progress = os.Stderr
	}
	printer := logger.NewPrinter(progress, opts.quiet)
	orch := runner.NewOrchestrator(
		connection.NewManager(cfg),
		module.NewExecutor(renderer, baseDir),
		printer,
		runner.Options{Forks: opts.forks},
	)

	return &engine{inv: inv, renderer: renderer, orchestrator: orch, format: format}, nil
}

func loadInventory(ctx context.Context) (*inventory.Inventory, error) {
	switch {
	case opts.hostConfig != "" && opts.hostScript != "":
		return nil, fmt.Errorf("--host-config and --host-script are mutually exclusive")
	case opts.hostConfig != "":
		return inventory.Load(opts.hostConfig)
	case opts.hostScript != "":
		return inventory.LoadScript(ctx, opts.hostScript)
	default:
		return nil, fmt.Errorf("one of --host-config or --host-script is required")
	}
}

// finish 输出报告并返回退出状态
func (e *engine) finish(reports []*runner.RunReport) error {
	if err := runner.Render(os.Stdout, reports, e.format); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if runner.AnyFailed(reports) {
		return errHostsFailed
	}
	return nil
}

func (e *engine) Close() {
	if err := e.renderer.Close(); err != nil {
		logger.Warnf("close template engines: %v", err)
	}
}
