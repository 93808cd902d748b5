package connection

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jimyag/hostplay/pkg/errors"
	"github.com/jimyag/hostplay/pkg/inventory"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config SSH 连接配置
type Config struct {
	Port           int           // 默认端口
	ConnectTimeout time.Duration // 建立连接和握手的超时
	CommandTimeout time.Duration // 单条命令超时，0 表示不限制
	UseAgent       bool          // 优先尝试 SSH agent
	KnownHostsFile string        // 为空时不校验主机密钥
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Port:           22,
		ConnectTimeout: 30 * time.Second,
		UseAgent:       true,
	}
}

// Manager 管理 SSH 连接
type Manager struct {
	cfg *Config
}

// NewManager 创建一个新的连接管理器
func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Manager{cfg: cfg}
}

// Connection 表示一个 SSH 连接
type Connection struct {
	client *ssh.Client
	target inventory.Target
	cfg    *Config
	agent  net.Conn

	mu   sync.Mutex
	sftp *sftp.Client
}

var _ Session = (*Connection)(nil)

// Connect 连接到主机
func (m *Manager) Connect(ctx context.Context, target inventory.Target) (Session, error) {
	auth, agentConn, err := m.authMethods(target)
	if err != nil {
		return nil, errors.NewConnectionError(target.Address, err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if m.cfg.KnownHostsFile != "" {
		hostKeyCallback, err = knownhosts.New(expandHome(m.cfg.KnownHostsFile))
		if err != nil {
			closeQuietly(agentConn)
			return nil, errors.NewConnectionError(target.Address, fmt.Errorf("load known hosts: %w", err))
		}
	}

	config := &ssh.ClientConfig{
		User:            target.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         m.cfg.ConnectTimeout,
	}

	addr := target.HostPort(m.cfg.Port)
	client, err := dial(ctx, addr, config, m.cfg.ConnectTimeout)
	if err != nil {
		closeQuietly(agentConn)
		return nil, errors.NewConnectionError(target.Address, err)
	}

	return &Connection{
		client: client,
		target: target,
		cfg:    m.cfg,
		agent:  agentConn,
	}, nil
}

// dial 建立 TCP 连接并完成 SSH 握手，ctx 取消时中断握手
func dial(ctx context.Context, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	d := net.Dialer{Timeout: timeout}
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		_ = netConn.SetDeadline(time.Now().Add(timeout))
	}
	stop := context.AfterFunc(ctx, func() { _ = netConn.Close() })
	defer stop()

	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		_ = netConn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	_ = netConn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

// authMethods 构造认证方式：先 SSH agent，再私钥文件
func (m *Manager) authMethods(target inventory.Target) ([]ssh.AuthMethod, net.Conn, error) {
	var methods []ssh.AuthMethod
	var agentConn net.Conn

	if m.cfg.UseAgent {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			if conn, err := net.Dial("unix", sock); err == nil {
				agentConn = conn
				methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			}
		}
	}

	var keyErr error
	if target.KeyPath != "" {
		auth, err := publicKeyAuth(expandHome(target.KeyPath))
		if err == nil {
			methods = append(methods, auth)
		} else {
			keyErr = err
		}
	}

	if len(methods) == 0 {
		if keyErr != nil {
			return nil, nil, keyErr
		}
		return nil, nil, fmt.Errorf("no authentication methods available for %s", target.Address)
	}
	return methods, agentConn, nil
}

// publicKeyAuth 创建公钥认证
func publicKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key %s: %w", keyPath, err)
	}

	return ssh.PublicKeys(signer), nil
}

// Host 返回主机地址
func (c *Connection) Host() string {
	return c.target.Address
}

// RunCommand 执行命令，超时或取消时杀掉远程进程
func (c *Connection) RunCommand(ctx context.Context, cmd string) (*ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runCtx := ctx
	if c.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.CommandTimeout)
		defer cancel()
	}

	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if err := session.Start(cmd); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case <-runCtx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.NewTimeoutError(c.target.Address, "", c.cfg.CommandTimeout)
	case err := <-done:
		result := &ExecResult{
			Command: cmd,
			Stdout:  stdoutBuf.String(),
			Stderr:  stderrBuf.String(),
		}
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				result.ExitCode = exitErr.ExitStatus()
				return result, nil
			}
			return nil, fmt.Errorf("wait command: %w", err)
		}
		return result, nil
	}
}

// sftpClient 延迟创建 sftp 客户端，整个连接复用一个
func (c *Connection) sftpClient() (*sftp.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sftp != nil {
		return c.sftp, nil
	}
	client, err := sftp.NewClient(c.client)
	if err != nil {
		return nil, fmt.Errorf("open sftp subsystem: %w", err)
	}
	c.sftp = client
	return client, nil
}

// Upload 通过 sftp 上传内容
// 先写临时文件再改名，目标已存在时保留其权限
func (c *Connection) Upload(ctx context.Context, data []byte, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := c.sftpClient()
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	tmpPath := path.Join(path.Dir(remotePath), fmt.Sprintf(".%s.hostplay-%s.tmp", path.Base(remotePath), uuid.NewString()))
	f, err := client.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = client.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		_ = client.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if info, err := client.Stat(remotePath); err == nil {
		_ = client.Chmod(tmpPath, info.Mode().Perm())
	}

	if err := client.PosixRename(tmpPath, remotePath); err != nil {
		// 服务端不支持 posix-rename 扩展时退回普通 rename
		if err := client.Rename(tmpPath, remotePath); err != nil {
			_ = client.Remove(tmpPath)
			return fmt.Errorf("rename %s to %s: %w", tmpPath, remotePath, err)
		}
	}
	return nil
}

// Download 通过 sftp 读取远程文件
func (c *Connection) Download(ctx context.Context, remotePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := c.sftpClient()
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	f, err := client.Open(remotePath)
	if err != nil {
		var status *sftp.StatusError
		if stderrors.As(err, &status) && status.FxCode() == sftp.ErrSSHFxNoSuchFile {
			return nil, fmt.Errorf("open %s: %w", remotePath, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("open %s: %w", remotePath, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", remotePath, err)
	}
	return data, nil
}

// RemoteCopy 在远程主机上执行 cp
func (c *Connection) RemoteCopy(ctx context.Context, src, dest string) error {
	res, err := c.RunCommand(ctx, CopyCommand(src, dest))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("cp exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Close 关闭连接
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.sftp != nil {
		_ = c.sftp.Close()
		c.sftp = nil
	}
	c.mu.Unlock()

	closeQuietly(c.agent)
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// expandHome 展开路径开头的 ~
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
