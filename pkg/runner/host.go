package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/hostplay/pkg/condition"
	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/errors"
	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/jimyag/hostplay/pkg/logger"
	"github.com/jimyag/hostplay/pkg/module"
	"github.com/jimyag/hostplay/pkg/playbook"
)

// State HostRunner 的状态
type State int

const (
	StateReady State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal completed 和 aborted 是终态
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

func isAllowedTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case StateReady:
		return to == StateRunning || to == StateAborted
	case StateRunning:
		return to.Terminal()
	default:
		return false
	}
}

// HostRunner 在一个主机上按顺序执行任务
// 会话和注册表都只属于这个 HostRunner
type HostRunner struct {
	target   inventory.Target
	dialer   connection.Dialer
	executor *module.Executor
	printer  *logger.Printer
	log      zerolog.Logger

	state  State
	regs   *Registers
	report *HostReport
}

// NewHostRunner 创建主机执行器
func NewHostRunner(target inventory.Target, dialer connection.Dialer, executor *module.Executor, printer *logger.Printer) *HostRunner {
	return &HostRunner{
		target:   target,
		dialer:   dialer,
		executor: executor,
		printer:  printer,
		log:      logger.ForHost(target.Address),
		state:    StateReady,
		regs:     NewRegisters(),
		report:   &HostReport{Host: target.Address, Tasks: []TaskReport{}},
	}
}

// State 返回当前状态
func (h *HostRunner) State() State {
	return h.state
}

// Registers 返回主机的注册表
func (h *HostRunner) Registers() *Registers {
	return h.regs
}

func (h *HostRunner) transition(to State) {
	if !isAllowedTransition(h.state, to) {
		panic(fmt.Sprintf("host %s: disallowed transition %s -> %s", h.target.Address, h.state, to))
	}
	h.log.Debug().Str("from", h.state.String()).Str("to", to.String()).Msg("host state")
	h.state = to
}

// Run 执行任务列表，返回主机报告
// 会话在任何退出路径上都会关闭；运行被取消后不再开始新任务
func (h *HostRunner) Run(ctx context.Context, tasks []playbook.Task, filter playbook.TagFilter) *HostReport {
	if h.state != StateReady {
		panic(fmt.Sprintf("host %s: Run called in state %s", h.target.Address, h.state))
	}
	start := time.Now()
	defer func() { h.report.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		h.abort("", errors.NewCancelledError(h.target.Address, err))
		return h.report
	}

	sess, err := h.dialer.Connect(ctx, h.target)
	if err != nil {
		h.abort("", h.connectError(ctx, err))
		return h.report
	}
	defer func() {
		if err := sess.Close(); err != nil {
			h.log.Debug().Err(err).Msg("close session")
		}
	}()

	h.transition(StateRunning)
	selected := filter.Select(tasks)
	h.log.Debug().Int("tasks", len(selected)).Int("filtered", len(tasks)-len(selected)).Msg("host run started")

	for i := range selected {
		task := &selected[i]
		if err := ctx.Err(); err != nil {
			h.abort(task.DisplayName(), errors.NewCancelledError(h.target.Address, err))
			return h.report
		}
		if !h.runTask(ctx, sess, task) {
			return h.report
		}
	}

	h.report.Status = HostCompleted
	h.transition(StateCompleted)
	return h.report
}

// runTask 执行单个任务，返回 false 表示主机已中止
func (h *HostRunner) runTask(ctx context.Context, sess connection.Session, task *playbook.Task) bool {
	name := task.DisplayName()
	log := h.log.With().Str("task", name).Logger()

	if task.When != "" {
		expr, err := condition.Parse(task.When)
		if err != nil {
			h.abort(name, errors.NewConditionError(errors.ErrParse, h.target.Address, name, err))
			return false
		}
		ok, err := condition.Evaluate(expr, h.regs)
		if err != nil {
			h.abort(name, errors.NewConditionError(errors.ErrEval, h.target.Address, name, err))
			return false
		}
		if !ok {
			log.Debug().Str("when", task.When).Msg("condition is false, skipping")
			h.record(name, module.Result{
				Status: module.StatusSkipped,
				Msg:    fmt.Sprintf("condition %q is false", expr),
			}, 0)
			return true
		}
	}

	start := time.Now()
	result, err := h.executor.Execute(ctx, sess, task.Action)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.NewCancelledError(h.target.Address, err)
		} else {
			err = errors.NewExecutionError(h.target.Address, name, err)
		}
		h.record(name, module.Result{Status: module.StatusFailed, Msg: reason(err)}, elapsed)
		h.abort(name, err)
		return false
	}

	h.record(name, *result, elapsed)
	log.Debug().Str("status", string(result.Status)).Dur("elapsed", elapsed).Msg("task finished")

	if !result.Status.Succeeded() {
		h.abort(name, errors.NewTaskFailedError(h.target.Address, name, result.Msg))
		return false
	}
	if task.Register != "" {
		h.regs.Set(task.Register, result)
	}
	return true
}

func (h *HostRunner) record(task string, result module.Result, elapsed time.Duration) {
	h.report.Tasks = append(h.report.Tasks, TaskReport{Task: task, Result: result, Duration: elapsed})
	h.printer.TaskResult(h.target.Address, task, string(result.Status), result.Msg)
}

// abort 把主机转入中止状态并记录原因
func (h *HostRunner) abort(task string, err error) {
	h.report.Status = HostAborted
	h.report.FailedTask = task
	h.report.Reason = reason(err)
	h.report.Err = err
	if typ, ok := errors.TypeOf(err); ok {
		h.report.ErrorType = typ.String()
	}
	h.transition(StateAborted)

	h.log.Info().Err(err).Str("task", task).Msg("host aborted")
	h.printer.HostAborted(h.target.Address, h.report.Reason)
}

// connectError 区分取消和连接失败
func (h *HostRunner) connectError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.NewCancelledError(h.target.Address, err)
	}
	if _, ok := errors.TypeOf(err); ok {
		return err
	}
	return errors.NewConnectionError(h.target.Address, err)
}

// reason 返回不带主机前缀的错误描述
func reason(err error) string {
	var execErr *errors.ExecutionError
	if stderrors.As(err, &execErr) {
		return execErr.Message
	}
	return err.Error()
}
