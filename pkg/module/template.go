package module

import (
	"context"

	"github.com/jimyag/hostplay/pkg/connection"
)

// executeTemplate 渲染本地模板并部署
// 渲染失败（包括未绑定的占位符）时不触碰目标主机
func (e *Executor) executeTemplate(ctx context.Context, sess connection.Session, a *Template) (*Result, error) {
	body, failed := readLocal(e.localPath(a.Src))
	if failed != nil {
		return failed, nil
	}

	out, err := e.renderer.Render(a.Engine, string(body), a.Variables)
	if err != nil {
		return failedf("template %s: %v", a.Src, err), nil
	}

	return deploy(ctx, sess, []byte(out), a.Dest)
}
