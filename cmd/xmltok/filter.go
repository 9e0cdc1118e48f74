package main

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jacoelho/xmlpull"
)

// tokenEnv is the environment a filter expression is evaluated against.
type tokenEnv struct {
	Attrs map[string]string `expr:"attrs"`
	Kind  string            `expr:"kind"`
	Name  string            `expr:"name"`
	Text  string            `expr:"text"`
	Line  int               `expr:"line"`
	Depth int               `expr:"depth"`
}

type tokenFilter struct {
	program *vm.Program
}

// compileFilter compiles a boolean expression such as
// `kind == "StartTag" && name == "item"`.
func compileFilter(src string) (*tokenFilter, error) {
	program, err := expr.Compile(src, expr.Env(tokenEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return &tokenFilter{program: program}, nil
}

func (f *tokenFilter) match(tok xmlpull.Token, depth int) (bool, error) {
	env := tokenEnv{
		Kind:  tok.Kind.String(),
		Name:  tok.Name,
		Text:  tok.Text,
		Line:  tok.Line,
		Depth: depth,
		Attrs: make(map[string]string, len(tok.Attrs)),
	}
	for _, attr := range tok.Attrs {
		env.Attrs[attr.Name] = attr.Value
	}
	out, err := vm.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("run filter: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
