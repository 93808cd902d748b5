package condition

import (
	"errors"
	"testing"

	"github.com/jimyag/hostplay/pkg/module"
)

type registers map[string]module.Status

func (r registers) Lookup(name string) (*module.Result, bool) {
	status, ok := r[name]
	if !ok {
		return nil, false
	}
	return &module.Result{Status: status, Output: "ignored"}, true
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Expr
	}{
		{
			name:  "status keyword",
			input: "restart_result == changed",
			want:  Expr{Register: "restart_result", Op: OpEq, Literal: Literal{Kind: LiteralStatus, Value: "changed"}},
		},
		{
			name:  "not equal",
			input: "r != failed",
			want:  Expr{Register: "r", Op: OpNe, Literal: Literal{Kind: LiteralStatus, Value: "failed"}},
		},
		{
			name:  "double quoted",
			input: `r == "unchanged"`,
			want:  Expr{Register: "r", Op: OpEq, Literal: Literal{Kind: LiteralString, Value: "unchanged"}},
		},
		{
			name:  "single quoted",
			input: `r=='changed'`,
			want:  Expr{Register: "r", Op: OpEq, Literal: Literal{Kind: LiteralString, Value: "changed"}},
		},
		{
			name:  "escaped quote",
			input: `r == "a\"b"`,
			want:  Expr{Register: "r", Op: OpEq, Literal: Literal{Kind: LiteralString, Value: `a"b`}},
		},
		{
			name:  "surrounding whitespace",
			input: "  _r1\t==  changed \n",
			want:  Expr{Register: "_r1", Op: OpEq, Literal: Literal{Kind: LiteralStatus, Value: "changed"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantPos int
	}{
		{name: "empty", input: "", wantPos: 0},
		{name: "missing operator", input: "r changed", wantPos: 2},
		{name: "single equals", input: "r = changed", wantPos: 2},
		{name: "missing literal", input: "r ==", wantPos: 4},
		{name: "unknown keyword", input: "r == done", wantPos: 5},
		{name: "uppercase keyword", input: "r == Changed", wantPos: 5},
		{name: "trailing tokens", input: "r == changed and x", wantPos: 13},
		{name: "unterminated string", input: `r == "changed`, wantPos: 5},
		{name: "literal on the left", input: `"changed" == r`, wantPos: 0},
		{name: "unexpected character", input: "r == changed;", wantPos: 12},
		{name: "bad escape", input: `r == "\n"`, wantPos: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
			if parseErr.Pos != tt.wantPos {
				t.Errorf("ParseError.Pos = %d, want %d (%v)", parseErr.Pos, tt.wantPos, parseErr)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	regs := registers{
		"a": module.StatusChanged,
		"b": module.StatusUnchanged,
		"c": module.StatusFailed,
	}

	tests := []struct {
		input string
		want  bool
	}{
		{input: "a == changed", want: true},
		{input: "a != changed", want: false},
		{input: "a == unchanged", want: false},
		{input: "b == unchanged", want: true},
		{input: "b != changed", want: true},
		{input: "c == failed", want: true},
		{input: `a == "changed"`, want: true},
		{input: `a == "CHANGED"`, want: false},
		{input: `a == "ignored"`, want: false},
		{input: `a != "ignored"`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := Evaluate(expr, regs)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_UnsetRegister(t *testing.T) {
	expr, err := Parse("missing == changed")
	if err != nil {
		t.Fatal(err)
	}

	for _, op := range []Op{OpEq, OpNe} {
		expr.Op = op
		_, err := Evaluate(expr, registers{})
		var evalErr *EvalError
		if !errors.As(err, &evalErr) {
			t.Fatalf("Evaluate(%s) error = %v, want *EvalError", op, err)
		}
		if evalErr.Register != "missing" {
			t.Errorf("EvalError.Register = %q", evalErr.Register)
		}
	}
}

func TestExpr_String(t *testing.T) {
	for _, input := range []string{"r == changed", `r != "x y"`} {
		expr, err := Parse(input)
		if err != nil {
			t.Fatal(err)
		}
		if got := expr.String(); got != input {
			t.Errorf("String() = %q, want %q", got, input)
		}
	}
}
