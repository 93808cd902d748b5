package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/logger"
)

// executeCopy 从控制端复制文件
func (e *Executor) executeCopy(ctx context.Context, sess connection.Session, a *Copy) (*Result, error) {
	data, failed := readLocal(e.localPath(a.Src))
	if failed != nil {
		return failed, nil
	}
	return deploy(ctx, sess, data, a.Dest)
}

// executeRemoteCopy 在目标主机内部复制，通过远程 sha256 比较内容
func (e *Executor) executeRemoteCopy(ctx context.Context, sess connection.Session, a *Copy) (*Result, error) {
	srcSum, exists, err := connection.Checksum(ctx, sess, a.Src)
	if errors.Is(err, connection.ErrChecksum) {
		return failedf("%v", err), nil
	}
	if err != nil {
		return nil, fmt.Errorf("checksum %s: %w", a.Src, err)
	}
	if !exists {
		return failedf("remote src %s does not exist", a.Src), nil
	}

	destSum, exists, err := connection.Checksum(ctx, sess, a.Dest)
	switch {
	case errors.Is(err, connection.ErrChecksum):
		// 目标读不出校验和时按内容不同处理，由 cp 决定成败
		logger.Debugf("%s: %v", sess.Host(), err)
		exists = false
	case err != nil:
		return nil, fmt.Errorf("checksum %s: %w", a.Dest, err)
	}
	if exists && destSum == srcSum {
		return &Result{
			Status:   StatusUnchanged,
			Msg:      fmt.Sprintf("%s is up to date", a.Dest),
			Dest:     a.Dest,
			Checksum: srcSum,
		}, nil
	}

	if err := sess.RemoteCopy(ctx, a.Src, a.Dest); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &Result{
			Status: StatusFailed,
			Msg:    fmt.Sprintf("failed to copy %s to %s: %v", a.Src, a.Dest, err),
			Dest:   a.Dest,
		}, nil
	}

	return &Result{
		Status:   StatusChanged,
		Msg:      fmt.Sprintf("%s updated", a.Dest),
		Dest:     a.Dest,
		Checksum: srcSum,
	}, nil
}
