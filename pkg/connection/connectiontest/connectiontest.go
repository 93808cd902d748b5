// Package connectiontest 提供内存中的远程会话，用于测试任务执行和主机调度。
package connectiontest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sync"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/inventory"
)

// Handler 自定义命令处理，返回 (nil, nil) 表示交给内置命令处理
type Handler func(ctx context.Context, cmd string) (*connection.ExecResult, error)

// Session 内存会话：远程文件系统是一个 map
type Session struct {
	mu sync.Mutex

	Address string
	Files   map[string][]byte
	Handler Handler

	// 注入的错误
	UploadErr   error
	DownloadErr error

	Commands  []string
	Uploads   []string
	Downloads []string
	Closed    bool
}

var _ connection.Session = (*Session)(nil)

// NewSession 创建内存会话
func NewSession(address string) *Session {
	return &Session{
		Address: address,
		Files:   make(map[string][]byte),
	}
}

// Host 返回主机地址
func (s *Session) Host() string {
	return s.Address
}

// SetFile 设置远程文件内容
func (s *Session) SetFile(p, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Files[p] = []byte(content)
}

// File 返回远程文件内容
func (s *Session) File(p string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Files[p]
	return string(data), ok
}

// UploadCount 返回上传次数
func (s *Session) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Uploads)
}

// CommandLog 返回已执行命令的副本
func (s *Session) CommandLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Commands...)
}

// IsClosed 会话是否已关闭
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Closed
}

// RunCommand 执行命令
func (s *Session) RunCommand(ctx context.Context, cmd string) (*connection.ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.Commands = append(s.Commands, cmd)
	handler := s.Handler
	s.mu.Unlock()

	if handler != nil {
		res, err := handler(ctx, cmd)
		if res != nil || err != nil {
			if res != nil && res.Command == "" {
				res.Command = cmd
			}
			return res, err
		}
	}
	return s.builtin(cmd)
}

// builtin 支持执行器用到的少量命令
func (s *Session) builtin(cmd string) (*connection.ExecResult, error) {
	words, err := shellquote.Split(cmd)
	if err != nil || len(words) == 0 {
		return nil, fmt.Errorf("cannot parse command %q", cmd)
	}
	args := words[1:]
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := &connection.ExecResult{Command: cmd}
	switch words[0] {
	case "true":
	case "false":
		res.ExitCode = 1
	case "uptime":
		res.Stdout = " 10:00:00 up 1 day,  1 user,  load average: 0.00, 0.00, 0.00\n"
	case "test":
		if len(args) != 2 || args[0] != "-e" {
			return nil, fmt.Errorf("unsupported test invocation %q", cmd)
		}
		if _, ok := s.Files[args[1]]; !ok {
			res.ExitCode = 1
		}
	case "sha256sum":
		if len(args) != 1 {
			return nil, fmt.Errorf("unsupported sha256sum invocation %q", cmd)
		}
		data, ok := s.Files[args[0]]
		if !ok {
			res.ExitCode = 1
			res.Stderr = fmt.Sprintf("sha256sum: %s: No such file or directory\n", args[0])
			break
		}
		sum := sha256.Sum256(data)
		res.Stdout = hex.EncodeToString(sum[:]) + "  " + args[0] + "\n"
	case "cp":
		if len(args) != 2 {
			return nil, fmt.Errorf("unsupported cp invocation %q", cmd)
		}
		data, ok := s.Files[args[0]]
		if !ok {
			res.ExitCode = 1
			res.Stderr = fmt.Sprintf("cp: cannot stat '%s': No such file or directory\n", args[0])
			break
		}
		s.Files[args[1]] = append([]byte(nil), data...)
	default:
		res.ExitCode = 127
		res.Stderr = fmt.Sprintf("sh: %s: command not found\n", words[0])
	}
	return res, nil
}

// Upload 写入文件
func (s *Session) Upload(ctx context.Context, data []byte, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return s.UploadErr
	}
	s.Uploads = append(s.Uploads, remotePath)
	s.Files[remotePath] = append([]byte(nil), data...)
	return nil
}

// Download 读取文件
func (s *Session) Download(ctx context.Context, remotePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Downloads = append(s.Downloads, remotePath)
	if s.DownloadErr != nil {
		return nil, s.DownloadErr
	}
	data, ok := s.Files[remotePath]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", remotePath, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// RemoteCopy 复制文件，与真实实现一样通过命令完成
func (s *Session) RemoteCopy(ctx context.Context, src, dest string) error {
	res, err := s.RunCommand(ctx, connection.CopyCommand(src, dest))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("cp exited with code %d: %s", res.ExitCode, res.Stderr)
	}
	return nil
}

// Close 关闭会话
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Dialer 按地址返回内存会话
type Dialer struct {
	mu       sync.Mutex
	Sessions map[string]*Session
	Errors   map[string]error
	Targets  []inventory.Target
	// Setup 在新建会话时调用，用于统一安装 Handler 或文件
	Setup func(*Session)
}

var _ connection.Dialer = (*Dialer)(nil)

// NewDialer 创建内存拨号器
func NewDialer() *Dialer {
	return &Dialer{
		Sessions: make(map[string]*Session),
		Errors:   make(map[string]error),
	}
}

// Session 返回（必要时创建）某地址的会话
func (d *Dialer) Session(address string) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session(address)
}

func (d *Dialer) session(address string) *Session {
	s, ok := d.Sessions[address]
	if !ok {
		s = NewSession(address)
		if d.Setup != nil {
			d.Setup(s)
		}
		d.Sessions[address] = s
	}
	return s
}

// Connect 实现 connection.Dialer
func (d *Dialer) Connect(ctx context.Context, target inventory.Target) (connection.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Targets = append(d.Targets, target)
	if err, ok := d.Errors[target.Address]; ok {
		return nil, err
	}
	return d.session(target.Address), nil
}

// ConnectCount 返回 Connect 调用次数
func (d *Dialer) ConnectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Targets)
}
