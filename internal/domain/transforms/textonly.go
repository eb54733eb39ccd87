package transforms

import (
	"regexp"
	"strings"
)

var (
	emptyParens  = regexp.MustCompile(`\(\s*\)`)
	simpleParens = regexp.MustCompile(`\(([^()]*)\)`)

	leadingWS = regexp.MustCompile(`^[\t ]+`)
)

// ReplaceParentheses is a text-level corruption: empty parenthesis pairs
// become spaces and innermost non-empty pairs lose their parentheses. The
// output almost never parses again, which is the intent; it runs after final
// serialization and is never fed back into the tree pipeline.
type ReplaceParentheses struct{}

// Name implements TextTransformer.
func (ReplaceParentheses) Name() string { return "replace_parentheses" }

// ApplyText implements TextTransformer.
func (ReplaceParentheses) ApplyText(src string) (string, bool) {
	out := emptyParens.ReplaceAllString(src, "  ")
	out = simpleParens.ReplaceAllString(out, " $1 ")

	return out, out != src
}

// ForgetIndent is a text-level corruption that destroys leading whitespace,
// flattening every line to column zero.
type ForgetIndent struct{}

// Name implements TextTransformer.
func (ForgetIndent) Name() string { return "forget_indent" }

// ApplyText implements TextTransformer.
func (ForgetIndent) ApplyText(src string) (string, bool) {
	lines := strings.Split(src, "\n")
	changed := false

	for i, line := range lines {
		stripped := leadingWS.ReplaceAllString(line, "")
		if stripped != line {
			lines[i] = stripped
			changed = true
		}
	}

	if !changed {
		return src, false
	}

	return strings.Join(lines, "\n"), true
}
