// debug_expr.go - $(...) expression evaluation for Machine Monitor

package main

import (
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ErrParseExpression is returned when an expression does not produce an
// integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return tr("expression '%v' does not evaluate to an integer", string(err))
}

// exprRegisterName maps a register name to a Starlark identifier: "HL" is
// hl, "HL'" is hl_.
func exprRegisterName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "'", "_"))
}

// evalExpression runs expr as a Starlark expression with the CPU registers
// predeclared, plus peek(addr) and word(addr) for memory.
func evalExpression(expr string, dcpu DebuggableCPU) (value uint64, err error) {
	thread := starlark.Thread{Name: "monitor"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	if dcpu != nil {
		for _, r := range dcpu.GetRegisters() {
			pred[exprRegisterName(r.Name)] = starlark.MakeUint64(r.Value)
		}
		pred["peek"] = starlark.NewBuiltin("peek", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var addr int
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
				return nil, err
			}
			return starlark.MakeInt(int(dcpu.ReadMemory(uint16(addr), 1)[0])), nil
		})
		pred["word"] = starlark.NewBuiltin("word", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var addr int
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
				return nil, err
			}
			data := dcpu.ReadMemory(uint16(addr), 2)
			return starlark.MakeInt(int(data[0]) | int(data[1])<<8), nil
		})
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	var rc int64
	switch v := dict["rc"].(type) {
	case starlark.Int:
		var ok bool
		if rc, ok = v.Int64(); !ok {
			err = ErrParseExpression(expr)
			return
		}
	case starlark.Bool:
		if v {
			rc = 1
		}
	default:
		err = ErrParseExpression(expr)
		return
	}
	value = uint64(rc)
	return
}
