package module

import (
	"context"
	"fmt"
	"strings"

	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/errors"
)

// executeShell 执行 shell 模块
// 命令没有幂等信号，成功执行总是 changed
func (e *Executor) executeShell(ctx context.Context, sess connection.Session, a *Shell) (*Result, error) {
	res, err := sess.RunCommand(ctx, a.Command)
	if err != nil {
		// 超时属于任务失败，其余是调用失败
		if errors.Is(err, errors.ErrTimeout) {
			return failedf("%v", err), nil
		}
		return nil, fmt.Errorf("run %q: %w", a.Command, err)
	}

	result := &Result{
		Status: StatusChanged,
		RC:     res.ExitCode,
		Stdout: res.Stdout,
		Stderr: res.Stderr,
		Output: strings.TrimSpace(res.Stdout),
	}

	if res.ExitCode != 0 {
		result.Status = StatusFailed
		result.Msg = fmt.Sprintf("non-zero return code %d", res.ExitCode)
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			result.Msg += ": " + stderr
		}
	}

	return result, nil
}
