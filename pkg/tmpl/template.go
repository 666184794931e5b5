package tmpl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	rerrors "github.com/vango-dev/reflex/internal/errors"
)

// Template is a compiled template.
type Template struct {
	engine *Engine
	text   string
	names  []string
	parts  []part
}

// Text returns the template source.
func (t *Template) Text() string { return t.text }

// Names returns the bound variable names in sorted order.
func (t *Template) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Render merges the engine globals with data and renders the template.
func (t *Template) Render(data map[string]any) (string, error) {
	return t.RenderWith(t.engine.Globals(), data)
}

// RenderWith renders with an explicit global set instead of the engine's.
// data wins over globals on key collision.
func (t *Template) RenderWith(globals, data map[string]any) (string, error) {
	env := make(map[string]any, len(t.names))
	for _, name := range t.names {
		if v, ok := data[name]; ok {
			env[name] = v
			continue
		}
		env[name] = globals[name]
	}

	var b strings.Builder
	for _, p := range t.parts {
		if p.program == nil {
			b.WriteString(p.literal)
			continue
		}
		out, err := expr.Run(p.program, env)
		if err != nil {
			return "", rerrors.New(rerrors.CodeTemplateRender).
				WithDetailf("${%s}", p.source).
				Wrap(err)
		}
		b.WriteString(format(out))
	}
	return b.String(), nil
}

// format converts an expression result to text. nil renders as "".
func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
