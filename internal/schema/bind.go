package schema

import (
	"fmt"
	"strings"
)

// Bind rewrites @name parameters into the dialect's positional placeholders
// and returns the arguments in placeholder order.
func Bind(d Dialect, query string, params map[string]any) (string, []any, error) {
	var b strings.Builder
	b.Grow(len(query))
	var args []any

	for i := 0; i < len(query); {
		c := query[i]
		if c != '@' || i+1 >= len(query) || !isIdentStart(query[i+1]) {
			b.WriteByte(c)
			i++
			continue
		}

		j := i + 1
		for j < len(query) && isIdentPart(query[j]) {
			j++
		}
		name := query[i+1 : j]
		v, ok := params[name]
		if !ok {
			return "", nil, fmt.Errorf("bind: missing parameter %q", name)
		}
		args = append(args, v)
		b.WriteString(d.Placeholder(len(args)))
		i = j
	}

	return b.String(), args, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
