package condition

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokEq
	tokNe
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokEq:
		return "'=='"
	case tokNe:
		return "'!='"
	}
	return "unknown"
}

type token struct {
	kind  tokenKind
	value string
	pos   int
}

// lexer 把 when 表达式切分为 token，pos 是字节偏移
type lexer struct {
	input string
	pos   int
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.input[l.pos]
	switch {
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, value: l.input[start:l.pos], pos: start}, nil
	case c == '"' || c == '\'':
		s, err := l.quoted(c)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, value: s, pos: start}, nil
	case c == '=' || c == '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			if c == '=' {
				return token{kind: tokEq, value: "==", pos: start}, nil
			}
			return token{kind: tokNe, value: "!=", pos: start}, nil
		}
		return token{}, l.errorf(start, "unexpected %q, expected '==' or '!='", string(c))
	}
	return token{}, l.errorf(start, "unexpected character %q", string(c))
}

// quoted 读取引号字符串，支持 \\ 和引号转义
func (l *lexer) quoted(quote byte) (string, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == quote:
			l.pos++
			return sb.String(), nil
		case c == '\\' && l.pos+1 < len(l.input):
			next := l.input[l.pos+1]
			if next != quote && next != '\\' {
				return "", l.errorf(l.pos, "invalid escape \\%c", next)
			}
			sb.WriteByte(next)
			l.pos += 2
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return "", l.errorf(start, "unterminated string")
}

func (l *lexer) errorf(pos int, format string, args ...any) *ParseError {
	return &ParseError{Input: l.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
