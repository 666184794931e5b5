package tmpl

import (
	"fmt"
	"strings"
)

// segment is either literal text or the source of one interpolation.
type segment struct {
	text   string
	isExpr bool
}

// parse splits a template into literal and expression segments.
func parse(src string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], `\${`):
			lit.WriteString("${")
			i += 3
		case strings.HasPrefix(src[i:], "${"):
			end, err := exprEnd(src, i+2)
			if err != nil {
				return nil, err
			}
			body := strings.TrimSpace(src[i+2 : end])
			if body == "" {
				return nil, fmt.Errorf("empty interpolation at offset %d", i)
			}
			flush()
			segs = append(segs, segment{text: body, isExpr: true})
			i = end + 1
		default:
			lit.WriteByte(src[i])
			i++
		}
	}
	flush()
	return segs, nil
}

// exprEnd returns the index of the '}' closing the interpolation whose body
// starts at start. Nested braces and quoted strings are skipped.
func exprEnd(src string, start int) (int, error) {
	depth := 0
	for i := start; i < len(src); i++ {
		switch c := src[i]; c {
		case '"', '\'', '`':
			j, err := stringEnd(src, i)
			if err != nil {
				return 0, err
			}
			i = j
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return 0, fmt.Errorf("unterminated interpolation starting at offset %d", start-2)
}

// stringEnd returns the index of the quote closing the literal opened at open.
func stringEnd(src string, open int) (int, error) {
	quote := src[open]
	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			if quote != '`' {
				i++
			}
		case quote:
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated string literal at offset %d", open)
}
