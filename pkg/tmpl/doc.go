// Package tmpl compiles text templates with embedded ${...} expressions.
//
// Expressions are evaluated by expr-lang/expr in a sandbox: a template can
// only see the variable names it was compiled with, the engine's helper
// functions and expr's builtins. There is no access to Go state beyond that.
//
//	e := tmpl.NewEngine(tmpl.Options{
//	    Globals: map[string]any{"greeting": "Hello"},
//	})
//
//	t, err := e.Compile("${greeting} ${data.name}!", "data")
//	out, err := t.Render(map[string]any{"data": map[string]any{"name": "b"}})
//	// out == "Hello b!"
//
// # Syntax
//
// Everything outside ${...} is literal text. Write \${ for a literal "${".
// Inside an interpolation the full expr grammar is available: arithmetic,
// member access, method calls, conditionals (a ? b : c), and builtins such
// as upper, len and join.
//
// # Variables
//
// Engine globals are merged into every render; per-render data wins on key
// collision. Only names declared at compile time (plus the global names known
// at that moment) are bound.
package tmpl
