package tmpl

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"

	rerrors "github.com/vango-dev/reflex/internal/errors"
)

// DefaultMaxNodes bounds the AST size of a single interpolation.
const DefaultMaxNodes = 500

// Func is a helper callable from template expressions.
type Func func(params ...any) (any, error)

// Options configures an Engine.
type Options struct {
	// Globals are merged into every render. Per-render data wins.
	Globals map[string]any

	// Funcs are helper functions callable by name from expressions.
	Funcs map[string]Func

	// MaxNodes limits expression complexity (default: DefaultMaxNodes).
	MaxNodes uint
}

// Engine compiles templates and holds the global variable set.
type Engine struct {
	globalsMu sync.RWMutex
	globals   map[string]any

	funcs     []expr.Option
	funcNames []string
	maxNodes  uint

	cacheMu sync.RWMutex
	cache   map[string]*Template
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.MaxNodes == 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	e := &Engine{
		globals:  maps.Clone(opts.Globals),
		maxNodes: opts.MaxNodes,
		cache:    make(map[string]*Template),
	}
	if e.globals == nil {
		e.globals = make(map[string]any)
	}
	names := make([]string, 0, len(opts.Funcs))
	for name := range opts.Funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.funcs = append(e.funcs, expr.Function(name, opts.Funcs[name]))
	}
	e.funcNames = names
	return e
}

// SetGlobal sets a global variable. Templates compiled earlier see the new
// value only if name was declared when they were compiled.
func (e *Engine) SetGlobal(name string, value any) {
	e.globalsMu.Lock()
	defer e.globalsMu.Unlock()
	e.globals[name] = value
}

// DeleteGlobal removes a global variable.
func (e *Engine) DeleteGlobal(name string) {
	e.globalsMu.Lock()
	defer e.globalsMu.Unlock()
	delete(e.globals, name)
}

// Globals returns a copy of the global variable set.
func (e *Engine) Globals() map[string]any {
	e.globalsMu.RLock()
	defer e.globalsMu.RUnlock()
	return maps.Clone(e.globals)
}

// Compile compiles text into a Template that binds names plus every global
// known now. Compiled templates are cached by text and declared names.
func (e *Engine) Compile(text string, names ...string) (*Template, error) {
	globals := e.Globals()
	declared := declaredNames(globals, names)
	key := text + "\x00" + strings.Join(declared, "\x00")

	e.cacheMu.RLock()
	t, ok := e.cache[key]
	e.cacheMu.RUnlock()
	if ok {
		return t, nil
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if t, ok := e.cache[key]; ok {
		return t, nil
	}

	t, err := e.compile(text, declared)
	if err != nil {
		return nil, err
	}
	e.cache[key] = t
	return t, nil
}

// MustCompile is like Compile but panics on error.
func (e *Engine) MustCompile(text string, names ...string) *Template {
	t, err := e.Compile(text, names...)
	if err != nil {
		panic(err)
	}
	return t
}

func (e *Engine) compile(text string, declared []string) (*Template, error) {
	segs, err := parse(text)
	if err != nil {
		return nil, rerrors.New(rerrors.CodeTemplateCompile).WithDetail(text).Wrap(err)
	}

	// Without an env every name is typed dynamically. Declared names shadow
	// builtins of the same name, so ${len(all)} reads the variable.
	opts := append([]expr.Option{expr.MaxNodes(e.maxNodes)}, e.funcs...)
	for _, name := range declared {
		if _, ok := builtin.Index[name]; ok {
			opts = append(opts, expr.DisableBuiltin(name))
		}
	}
	allowed := make(map[string]struct{}, len(declared)+len(e.funcNames))
	for _, name := range declared {
		allowed[name] = struct{}{}
	}
	for _, name := range e.funcNames {
		allowed[name] = struct{}{}
	}

	t := &Template{
		engine: e,
		text:   text,
		names:  declared,
		parts:  make([]part, 0, len(segs)),
	}
	for _, seg := range segs {
		if !seg.isExpr {
			t.parts = append(t.parts, part{literal: seg.text})
			continue
		}
		program, err := expr.Compile(seg.text, opts...)
		if err != nil {
			return nil, rerrors.New(rerrors.CodeTemplateCompile).
				WithDetailf("${%s}", seg.text).
				Wrap(err)
		}
		if name, ok := undeclared(program.Node(), allowed); ok {
			return nil, rerrors.New(rerrors.CodeTemplateCompile).
				WithDetailf("${%s}", seg.text).
				Wrap(fmt.Errorf("unknown name %s", name))
		}
		t.parts = append(t.parts, part{program: program, source: seg.text})
	}
	return t, nil
}

// identVisitor collects the free identifiers of an expression.
type identVisitor struct {
	idents []string
	lets   map[string]struct{}
}

func (v *identVisitor) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		v.idents = append(v.idents, n.Value)
	case *ast.VariableDeclaratorNode:
		v.lets[n.Name] = struct{}{}
	}
}

// undeclared returns the first identifier in node that is neither allowed
// nor bound by a let inside the expression.
func undeclared(node ast.Node, allowed map[string]struct{}) (string, bool) {
	v := &identVisitor{lets: make(map[string]struct{})}
	ast.Walk(&node, v)
	for _, name := range v.idents {
		if _, ok := allowed[name]; ok {
			continue
		}
		if _, ok := v.lets[name]; ok {
			continue
		}
		return name, true
	}
	return "", false
}

// declaredNames returns the sorted, de-duplicated union of global keys and names.
func declaredNames(globals map[string]any, names []string) []string {
	set := make(map[string]struct{}, len(globals)+len(names))
	for k := range globals {
		set[k] = struct{}{}
	}
	for _, n := range names {
		if n != "" {
			set[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Keys returns the sorted keys of m, for declaring a template's variables
// from a sample data object.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// part is a compiled segment.
type part struct {
	literal string
	program *vm.Program
	source  string
}
