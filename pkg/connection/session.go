package connection

import (
	"context"

	"github.com/jimyag/hostplay/pkg/inventory"
)

// ExecResult 命令执行结果
type ExecResult struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// Session 表示到单台主机的一个已认证远程会话
// 会话只属于一个 HostRunner，不跨主机共享
type Session interface {
	// Host 返回会话所属主机地址
	Host() string

	// RunCommand 执行远程命令，非零退出码不是错误
	RunCommand(ctx context.Context, cmd string) (*ExecResult, error)

	// Upload 把内容写入远程路径
	Upload(ctx context.Context, data []byte, remotePath string) error

	// Download 读取远程文件，文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)
	Download(ctx context.Context, remotePath string) ([]byte, error)

	// RemoteCopy 在目标主机内部复制文件
	RemoteCopy(ctx context.Context, src, dest string) error

	// Close 关闭会话
	Close() error
}

// Dialer 打开远程会话
type Dialer interface {
	Connect(ctx context.Context, target inventory.Target) (Session, error)
}
