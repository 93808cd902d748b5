package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/errors"
	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/jimyag/hostplay/pkg/logger"
	"github.com/jimyag/hostplay/pkg/module"
	"github.com/jimyag/hostplay/pkg/playbook"
)

// Options 调度参数
type Options struct {
	// Forks 同时运行的主机数，0 表示不限制
	Forks int
}

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{Forks: 0}
}

// Orchestrator 为每个目标主机启动一个 HostRunner 并汇总结果
type Orchestrator struct {
	dialer   connection.Dialer
	executor *module.Executor
	printer  *logger.Printer
	opts     Options
}

// NewOrchestrator 创建调度器
func NewOrchestrator(dialer connection.Dialer, executor *module.Executor, printer *logger.Printer, opts Options) *Orchestrator {
	return &Orchestrator{
		dialer:   dialer,
		executor: executor,
		printer:  printer,
		opts:     opts,
	}
}

type hostResult struct {
	index  int
	report *HostReport
}

// Run 在所有目标主机上执行 playbook
// 一个主机中止不影响其他主机；返回前等待所有主机结束
func (o *Orchestrator) Run(ctx context.Context, pb *playbook.Playbook, inv *inventory.Inventory, filter playbook.TagFilter) *RunReport {
	start := time.Now()
	report := &RunReport{
		ID:        uuid.New().String(),
		Playbook:  pb.DisplayName(),
		Tags:      filter.Tags(),
		StartedAt: start,
	}
	o.printer.PlayHeader(pb.DisplayName())

	hosts := pb.UniqueHosts()
	if len(hosts) < len(pb.Hosts) {
		o.printer.Warning("duplicate hosts in playbook, each host runs once")
	}
	logger.Debugf("run %s: playbook %q on %d hosts", report.ID, report.Playbook, len(hosts))

	results := make(chan hostResult, len(hosts))
	g := new(errgroup.Group)
	if o.opts.Forks > 0 {
		g.SetLimit(o.opts.Forks)
	}

	for i, address := range hosts {
		target, err := inv.Resolve(address, pb.LocalConfig)
		if err != nil {
			// 地址不在主机配置中：不建立会话，直接中止
			results <- hostResult{index: i, report: unresolvedHost(address, err, o.printer)}
			continue
		}
		g.Go(func() error {
			hr := NewHostRunner(target, o.dialer, o.executor, o.printer)
			results <- hostResult{index: i, report: hr.Run(ctx, pb.Tasks, filter)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	report.Hosts = make([]HostReport, len(hosts))
	for r := range results {
		report.Hosts[r.index] = *r.report
	}
	report.Duration = time.Since(start)
	logger.Infof("run %s finished in %s, failed=%t", report.ID, report.Duration, report.Failed())
	return report
}

func unresolvedHost(address string, err error, printer *logger.Printer) *HostReport {
	hr := &HostReport{
		Host:   address,
		Status: HostAborted,
		Tasks:  []TaskReport{},
		Reason: reason(err),
		Err:    err,
	}
	if typ, ok := errors.TypeOf(err); ok {
		hr.ErrorType = typ.String()
	}
	printer.HostAborted(address, hr.Reason)
	return hr
}
