package script

import "strings"

// Balanced reports whether every (, [ and { in text has a matching closer in
// the right order. String literals (single, double and backtick quoted) and
// // or /* */ comments are skipped. An unterminated string or block comment
// counts as unbalanced.
func Balanced(text string) bool {
	var stack []byte
	ok := scan(text, func(ch byte) bool {
		switch ch {
		case '(', '[', '{':
			stack = append(stack, ch)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opener(ch) {
				return false
			}
			stack = stack[:len(stack)-1]
		}
		return true
	})
	return ok && len(stack) == 0
}

// braceShape reports how a single line changes block structure: closes is
// the number of enclosing blocks the line closes before opening any, and
// opens the number of blocks it leaves open.
func braceShape(line string) (closes, opens int) {
	depth := 0
	scan(line, func(ch byte) bool {
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if -depth > closes {
				closes = -depth
			}
		}
		return true
	})
	return closes, depth + closes
}

func opener(closer byte) byte {
	switch closer {
	case ')':
		return '('
	case ']':
		return '['
	}
	return '{'
}

// scan calls visit for every byte of code outside strings and comments and
// stops early when visit returns false. It returns false if visit did, or if
// a string or block comment is left open.
func scan(text string, visit func(byte) bool) bool {
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '/' && i+1 < len(text) && text[i+1] == '/':
			for i < len(text) && text[i] != '\n' {
				i++
			}

		case ch == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3

		case ch == '"' || ch == '\'' || ch == '`':
			j := i + 1
			for ; j < len(text); j++ {
				if text[j] == '\\' {
					j++
					continue
				}
				if text[j] == ch {
					break
				}
				if text[j] == '\n' && ch != '`' {
					return false
				}
			}
			if j >= len(text) {
				return false
			}
			i = j

		default:
			if !visit(ch) {
				return false
			}
		}
	}
	return true
}

// templateOpen reports whether a backtick literal is still open at the end of
// line, given whether one was open at its start.
func templateOpen(line string, open bool) bool {
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if open {
			switch ch {
			case '\\':
				i++
			case '`':
				open = false
			}
			continue
		}
		switch {
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return false
		case ch == '"' || ch == '\'':
			for i++; i < len(line) && line[i] != ch; i++ {
				if line[i] == '\\' {
					i++
				}
			}
		case ch == '`':
			open = true
		}
	}
	return open
}

// continuations marks the lines that start inside a backtick literal. Their
// text belongs to the string value.
func continuations(lines []string) []bool {
	marks := make([]bool, len(lines))
	open := false
	for i, l := range lines {
		marks[i] = open
		open = templateOpen(l, open)
	}
	return marks
}

// code returns line with strings and comments removed.
func code(line string) string {
	var b strings.Builder
	scan(line, func(ch byte) bool {
		b.WriteByte(ch)
		return true
	})
	return b.String()
}
