package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// ErrChecksum 远程 sha256sum 执行失败，连接本身正常
var ErrChecksum = errors.New("checksum failed")

// CopyCommand 构造远程复制命令
func CopyCommand(src, dest string) string {
	return "cp -- " + shellquote.Join(src, dest)
}

// ExistsCommand 构造检查路径是否存在的命令
func ExistsCommand(p string) string {
	return "test -e " + shellquote.Join(p)
}

// ChecksumCommand 构造计算 sha256 的命令
func ChecksumCommand(p string) string {
	return "sha256sum -- " + shellquote.Join(p)
}

// Exists 检查远程路径是否存在
func Exists(ctx context.Context, s Session, p string) (bool, error) {
	res, err := s.RunCommand(ctx, ExistsCommand(p))
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// Checksum 返回远程文件的 sha256，文件不存在时 exists 为 false
func Checksum(ctx context.Context, s Session, p string) (sum string, exists bool, err error) {
	exists, err = Exists(ctx, s, p)
	if err != nil || !exists {
		return "", exists, err
	}

	res, err := s.RunCommand(ctx, ChecksumCommand(p))
	if err != nil {
		return "", true, err
	}
	if res.ExitCode != 0 {
		return "", true, fmt.Errorf("%w: sha256sum %s exited with code %d: %s", ErrChecksum, p, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	fields := strings.Fields(res.Stdout)
	if len(fields) == 0 {
		return "", true, fmt.Errorf("%w: sha256sum %s: empty output", ErrChecksum, p)
	}
	return fields[0], true, nil
}
