// Package condition 实现 when 表达式：IDENT OP LITERAL
//
// OP 只有 == 和 !=；LITERAL 是状态关键字 changed/unchanged/failed，
// 或者一个带引号的字符串。比较对象是已注册结果的状态，而不是它的输出。
package condition

import (
	"fmt"
	"strconv"

	"github.com/jimyag/hostplay/pkg/module"
)

// Op 比较运算符
type Op int

const (
	OpEq Op = iota
	OpNe
)

func (o Op) String() string {
	if o == OpNe {
		return "!="
	}
	return "=="
}

// LiteralKind 字面量类型
type LiteralKind int

const (
	// LiteralStatus 裸写的状态关键字
	LiteralStatus LiteralKind = iota
	// LiteralString 带引号的字符串
	LiteralString
)

// Literal 表达式右侧的值
type Literal struct {
	Kind  LiteralKind
	Value string
}

func (l Literal) String() string {
	if l.Kind == LiteralString {
		return strconv.Quote(l.Value)
	}
	return l.Value
}

// Expr 解析后的 when 表达式，解析后不可变
type Expr struct {
	Register string
	Op       Op
	Literal  Literal
}

func (e *Expr) String() string {
	return fmt.Sprintf("%s %s %s", e.Register, e.Op, e.Literal)
}

// ParseError 表达式语法错误
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// EvalError 表达式引用了尚未注册的结果
type EvalError struct {
	Register string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("register %q is not set", e.Register)
}

// Lookup 按注册名查询任务结果
type Lookup interface {
	Lookup(name string) (*module.Result, bool)
}

var statusKeywords = map[string]module.Status{
	string(module.StatusChanged):   module.StatusChanged,
	string(module.StatusUnchanged): module.StatusUnchanged,
	string(module.StatusFailed):    module.StatusFailed,
}

// Parse 解析 when 表达式
func Parse(text string) (*Expr, error) {
	lx := &lexer{input: text}

	ident, err := lx.next()
	if err != nil {
		return nil, err
	}
	if ident.kind != tokIdent {
		return nil, lx.errorf(ident.pos, "expected register name, got %s", ident.kind)
	}

	opTok, err := lx.next()
	if err != nil {
		return nil, err
	}
	var op Op
	switch opTok.kind {
	case tokEq:
		op = OpEq
	case tokNe:
		op = OpNe
	default:
		return nil, lx.errorf(opTok.pos, "expected '==' or '!=', got %s", opTok.kind)
	}

	litTok, err := lx.next()
	if err != nil {
		return nil, err
	}
	var lit Literal
	switch litTok.kind {
	case tokIdent:
		if _, ok := statusKeywords[litTok.value]; !ok {
			return nil, lx.errorf(litTok.pos, "unknown status %q, expected changed, unchanged or failed", litTok.value)
		}
		lit = Literal{Kind: LiteralStatus, Value: litTok.value}
	case tokString:
		lit = Literal{Kind: LiteralString, Value: litTok.value}
	default:
		return nil, lx.errorf(litTok.pos, "expected status or string, got %s", litTok.kind)
	}

	end, err := lx.next()
	if err != nil {
		return nil, err
	}
	if end.kind != tokEOF {
		return nil, lx.errorf(end.pos, "unexpected %s after expression", end.kind)
	}

	return &Expr{Register: ident.value, Op: op, Literal: lit}, nil
}

// Evaluate 用注册表对表达式求值，注册名不存在时返回 *EvalError
func Evaluate(expr *Expr, regs Lookup) (bool, error) {
	res, ok := regs.Lookup(expr.Register)
	if !ok || res == nil {
		return false, &EvalError{Register: expr.Register}
	}

	equal := string(res.Status) == expr.Literal.Value
	if expr.Op == OpNe {
		return !equal, nil
	}
	return equal, nil
}
