package module

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/render"
)

// Executor 模块执行器
//
// 任务本身的失败（非零退出码、目标不可写、非法正则、模板占位符未绑定）
// 以 StatusFailed 的 Result 返回；返回 error 表示远程调用本身失败或运行被取消。
type Executor struct {
	renderer *render.Manager
	baseDir  string
}

// NewExecutor 创建一个新的模块执行器
// baseDir 用于解析相对的本地路径，为空时使用当前目录
func NewExecutor(renderer *render.Manager, baseDir string) *Executor {
	if renderer == nil {
		renderer = render.NewManager()
	}
	return &Executor{renderer: renderer, baseDir: baseDir}
}

// Execute 执行一个操作
func (e *Executor) Execute(ctx context.Context, sess connection.Session, action Action) (*Result, error) {
	switch a := action.(type) {
	case *Shell:
		return e.executeShell(ctx, sess, a)
	case *Copy:
		if a.RemoteSrc {
			return e.executeRemoteCopy(ctx, sess, a)
		}
		return e.executeCopy(ctx, sess, a)
	case *SearchReplace:
		return e.executeSearchReplace(ctx, sess, a)
	case *Template:
		return e.executeTemplate(ctx, sess, a)
	default:
		return nil, fmt.Errorf("unsupported action: %T", action)
	}
}

// localPath 解析控制端的本地路径
func (e *Executor) localPath(p string) string {
	if filepath.IsAbs(p) || e.baseDir == "" {
		return p
	}
	return filepath.Join(e.baseDir, p)
}

// deploy 把内容写到目标路径，内容相同时不写
// 下载失败按内容不同处理
func deploy(ctx context.Context, sess connection.Session, content []byte, dest string) (*Result, error) {
	sum := checksum(content)

	current, err := sess.Download(ctx, dest)
	switch {
	case err == nil:
		if checksum(current) == sum {
			return &Result{
				Status:   StatusUnchanged,
				Msg:      fmt.Sprintf("%s is up to date", dest),
				Dest:     dest,
				Checksum: sum,
			}, nil
		}
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case !errors.Is(err, fs.ErrNotExist):
		log.Debug().Err(err).Str("host", sess.Host()).Str("dest", dest).Msg("cannot read destination, treating as different")
	}

	if err := sess.Upload(ctx, content, dest); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &Result{
			Status: StatusFailed,
			Msg:    fmt.Sprintf("failed to write %s: %v", dest, err),
			Dest:   dest,
		}, nil
	}

	return &Result{
		Status:   StatusChanged,
		Msg:      fmt.Sprintf("%s updated", dest),
		Dest:     dest,
		Checksum: sum,
	}, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func readLocal(p string) ([]byte, *Result) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, failedf("failed to read %s: %v", p, err)
	}
	return data, nil
}
