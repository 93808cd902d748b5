package module

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"

	"github.com/jimyag/hostplay/pkg/connection"
)

// executeSearchReplace 对远程文件全文做正则替换
// 正则在任何远程操作之前编译
func (e *Executor) executeSearchReplace(ctx context.Context, sess connection.Session, a *SearchReplace) (*Result, error) {
	re, err := regexp.Compile(a.Search)
	if err != nil {
		return failedf("invalid regexp %q: %v", a.Search, err), nil
	}

	data, err := sess.Download(ctx, a.Path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, fs.ErrNotExist) {
			return failedf("file %s does not exist", a.Path), nil
		}
		return failedf("failed to read %s: %v", a.Path, err), nil
	}

	original := string(data)
	replaced := re.ReplaceAllString(original, a.Replace)
	if replaced == original {
		return &Result{
			Status:   StatusUnchanged,
			Msg:      fmt.Sprintf("no change to %s", a.Path),
			Dest:     a.Path,
			Checksum: checksum(data),
		}, nil
	}

	if err := sess.Upload(ctx, []byte(replaced), a.Path); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return failedf("failed to write %s: %v", a.Path, err), nil
	}

	return &Result{
		Status:   StatusChanged,
		Msg:      fmt.Sprintf("%d replacement(s) in %s", len(re.FindAllStringIndex(original, -1)), a.Path),
		Dest:     a.Path,
		Checksum: checksum([]byte(replaced)),
	}, nil
}
