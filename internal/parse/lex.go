package parse

import "strings"

// lexState carries multi-line literal state (raw strings, block comments)
// from one line to the next so delimiters inside them are not counted.
type lexState struct {
	inRaw   bool
	inBlock bool
}

// each calls fn for every byte of line[from:] that is code, i.e. not inside
// a string, rune, raw string or comment. Iteration stops when fn returns false.
func (s *lexState) each(line string, from int, fn func(i int, c byte) bool) {
	for i := from; i < len(line); i++ {
		c := line[i]
		if s.inBlock {
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				s.inBlock = false
				i++
			}
			continue
		}
		if s.inRaw {
			if c == '`' {
				s.inRaw = false
			}
			continue
		}
		switch c {
		case '/':
			if i+1 < len(line) {
				if line[i+1] == '/' {
					return
				}
				if line[i+1] == '*' {
					s.inBlock = true
					i++
					continue
				}
			}
		case '`':
			s.inRaw = true
			continue
		case '"', '\'':
			i = skipQuoted(line, i)
			continue
		}
		if !fn(i, c) {
			return
		}
	}
}

// skipQuoted returns the index of the quote closing the literal opened at i,
// or the last index of line when it is unterminated.
func skipQuoted(line string, i int) int {
	q := line[i]
	for j := i + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(line) - 1
}

// StripLineComment removes a trailing // comment that is not inside a literal.
func StripLineComment(line string) string {
	cut := -1
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"', '\'':
			i = skipQuoted(line, i)
		case '`':
			if j := strings.IndexByte(line[i+1:], '`'); j >= 0 {
				i += j + 1
			} else {
				i = len(line)
			}
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				cut = i
			}
		}
		if cut >= 0 {
			break
		}
	}
	if cut < 0 {
		return line
	}
	return strings.TrimRight(line[:cut], " \t")
}

// splitOutsideQuotes splits s on sep bytes that are not inside literals.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\'':
			i = skipQuoted(s, i)
		case '`':
			if j := strings.IndexByte(s[i+1:], '`'); j >= 0 {
				i += j + 1
			} else {
				i = len(s)
			}
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if start <= len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// depthDelta returns the net nesting change of all bracket kinds on line.
func depthDelta(st *lexState, line string) int {
	delta := 0
	st.each(line, 0, func(_ int, c byte) bool {
		switch c {
		case '(', '{', '[':
			delta++
		case ')', '}', ']':
			delta--
		}
		return true
	})
	return delta
}
