package utils

import "strings"

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// EscapeLike escapes LIKE wildcards so user-supplied search terms
// match literally. The queries using it pass ESCAPE '\'.
func EscapeLike(input string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(input)
}
