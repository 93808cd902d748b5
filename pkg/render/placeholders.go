package render

import (
	"regexp"
	"strings"
)

// 模板内置名字，不作为占位符
var jinjaBuiltins = map[string]bool{
	"loop": true, "forloop": true, "caller": true, "varargs": true, "kwargs": true,
	"super": true, "self": true,
	"true": true, "false": true, "none": true,
	"True": true, "False": true, "None": true,
	"range": true, "lipsum": true, "dict": true, "namespace": true, "cycler": true, "joiner": true,
}

// 表达式关键字
var jinjaKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "as": true, "recursive": true,
	"reversed": true, "sorted": true, "export": true,
}

// 允许变量缺省的过滤器和测试，整个标签都不要求绑定
var jinjaGuards = map[string]bool{
	"default": true, "d": true, "default_if_none": true,
	"defined": true, "undefined": true,
}

// 内容原样输出的块标签
var verbatimEnds = map[string]*regexp.Regexp{
	"raw":      regexp.MustCompile(`\{%-?\s*endraw\s*-?%\}`),
	"verbatim": regexp.MustCompile(`\{%-?\s*endverbatim\s*-?%\}`),
	"comment":  regexp.MustCompile(`\{%-?\s*endcomment\s*-?%\}`),
}

// jinjaPlaceholders 找出 Jinja2 语法模板引用的自由变量
// 扫描所有 {{ }} 和 {% %} 标签；raw/verbatim/comment 块和 {# #} 注释不参与。
// for/set/with/macro/call/import 绑定的名字、过滤器名、测试名、属性名、
// 关键字参数和函数调用都不算占位符。
func jinjaPlaceholders(body string) []string {
	s := &placeholderScan{bound: make(map[string]bool)}

	pos := 0
scan:
	for pos < len(body) {
		i := strings.IndexByte(body[pos:], '{')
		if i < 0 || pos+i+1 >= len(body) {
			break
		}
		start := pos + i

		switch body[start+1] {
		case '#':
			end := strings.Index(body[start+2:], "#}")
			if end < 0 {
				break scan
			}
			pos = start + 2 + end + 2
		case '{':
			inner, next, ok := tagBody(body, start+2, "}}")
			if !ok {
				break scan
			}
			s.expr(tokenize(inner))
			pos = next
		case '%':
			inner, next, ok := tagBody(body, start+2, "%}")
			if !ok {
				break scan
			}
			// {%- -%} 空白控制
			toks := tokenize(strings.Trim(inner, "-+"))
			if len(toks) > 0 && toks[0].kind == tkIdent {
				if endRe, ok := verbatimEnds[toks[0].val]; ok {
					loc := endRe.FindStringIndex(body[next:])
					if loc == nil {
						break scan
					}
					pos = next + loc[1]
					continue
				}
			}
			s.statement(toks)
			pos = next
		default:
			pos = start + 1
		}
	}

	var names []string
	for _, name := range s.refs {
		if !s.bound[name] {
			names = append(names, name)
		}
	}
	return names
}

// tagBody 返回从 from 开始到 closing 之前的标签内容，字符串字面量里的 closing 不算结束
func tagBody(body string, from int, closing string) (string, int, bool) {
	var quote byte
	for i := from; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(body[i:], closing):
			return body[from:i], i + len(closing), true
		}
	}
	return "", len(body), false
}

type tokenKind int

const (
	tkIdent tokenKind = iota
	tkString
	tkNumber
	tkOp
)

type token struct {
	kind tokenKind
	val  string
}

func (t token) is(op string) bool {
	return t.kind == tkOp && t.val == op
}

func (t token) isIdent(name string) bool {
	return t.kind == tkIdent && t.val == name
}

// tokenAt 越界时返回空 token
func tokenAt(toks []token, i int) token {
	if i < 0 || i >= len(toks) {
		return token{kind: tkOp}
	}
	return toks[i]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tokenize 把标签内容切分为标识符、字符串、数字和运算符
func tokenize(src string) []token {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			toks = append(toks, token{kind: tkString})
			i = j + 1
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && (isIdentStart(src[j]) || isDigit(src[j])) {
				j++
			}
			toks = append(toks, token{kind: tkIdent, val: src[i:j]})
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || src[j] == '.' || src[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tkNumber, val: src[i:j]})
			i = j
		default:
			if i+1 < len(src) {
				switch two := src[i : i+2]; two {
				case "==", "!=", "<=", ">=":
					toks = append(toks, token{kind: tkOp, val: two})
					i += 2
					continue
				}
			}
			toks = append(toks, token{kind: tkOp, val: string(c)})
			i++
		}
	}
	return toks
}

type placeholderScan struct {
	bound map[string]bool
	refs  []string
}

// expr 收集表达式中的自由变量
func (s *placeholderScan) expr(toks []token) {
	var names []string
	guarded := false
	for i, t := range toks {
		if t.kind != tkIdent {
			continue
		}
		prev, next := tokenAt(toks, i-1), tokenAt(toks, i+1)
		switch {
		case prev.is("."):
			// 属性
		case prev.is("|"), prev.isIdent("is"), prev.isIdent("not") && tokenAt(toks, i-2).isIdent("is"):
			// 过滤器名或测试名
			if jinjaGuards[t.val] {
				guarded = true
			}
		case next.is("("), next.is("="):
			// 函数调用或关键字参数
		case jinjaKeywords[t.val], jinjaBuiltins[t.val]:
		default:
			names = append(names, t.val)
		}
	}
	if !guarded {
		s.refs = append(s.refs, names...)
	}
}

// bind 记录赋值目标；a.b 形式的目标引用的是已有变量 a
func (s *placeholderScan) bind(toks []token) {
	for i, t := range toks {
		if t.kind != tkIdent || jinjaKeywords[t.val] || tokenAt(toks, i-1).is(".") {
			continue
		}
		if tokenAt(toks, i+1).is(".") {
			s.refs = append(s.refs, t.val)
			continue
		}
		s.bound[t.val] = true
	}
}

func (s *placeholderScan) statement(toks []token) {
	if len(toks) == 0 || toks[0].kind != tkIdent {
		return
	}
	args := toks[1:]

	switch toks[0].val {
	case "if", "elif", "ifequal", "ifnotequal":
		s.expr(args)
	case "for":
		in := indexToken(args, func(t token) bool { return t.isIdent("in") })
		if in < 0 {
			return
		}
		s.bind(args[:in])
		s.expr(args[in+1:])
	case "set":
		eq := indexToken(args, func(t token) bool { return t.is("=") })
		if eq < 0 {
			// {% set x %}...{% endset %}
			s.bind(args)
			return
		}
		s.bind(args[:eq])
		s.expr(args[eq+1:])
	case "with", "cycle":
		if as := indexToken(args, func(t token) bool { return t.isIdent("as") }); as >= 0 {
			s.expr(args[:as])
			s.bind(args[as+1:])
			return
		}
		for i, t := range args {
			if t.kind == tkIdent && tokenAt(args, i+1).is("=") {
				s.bound[t.val] = true
			}
		}
		s.expr(args)
	case "macro", "import", "from":
		s.bind(args)
	case "call":
		// {% call(user) render(users) %}
		if tokenAt(args, 0).is("(") {
			end := indexToken(args, func(t token) bool { return t.is(")") })
			if end < 0 {
				return
			}
			s.bind(args[1:end])
			args = args[end+1:]
		}
		s.expr(args)
	}
}

func indexToken(toks []token, match func(token) bool) int {
	for i, t := range toks {
		if match(t) {
			return i
		}
	}
	return -1
}
