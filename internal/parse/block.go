package parse

import (
	"strings"
)

// CaptureBraces captures the curly-brace balanced block starting at line
// start. It returns the captured lines joined with "\n" and the index of the
// line where the block closes. Unterminated blocks are captured through the
// last line.
func CaptureBraces(lines []string, start int) (string, int) {
	text, end, _ := capture(lines, start, 0, "{", "}")
	return text, end
}

// CaptureParens is CaptureBraces for parentheses.
func CaptureParens(lines []string, start int) (string, int) {
	text, end, _ := capture(lines, start, 0, "(", ")")
	return text, end
}

// capture counts delimiters from column col of line start onward. Closers
// seen before the first opener are ignored, so unrelated context on the
// start line cannot close the block early. closed is false when the input
// ended first.
func capture(lines []string, start, col int, open, close string) (text string, end int, closed bool) {
	if start < 0 {
		start = 0
	}
	if start >= len(lines) {
		return "", len(lines) - 1, false
	}

	var st lexState
	balance := 0
	started := false

	for i := start; i < len(lines); i++ {
		from := 0
		if i == start {
			from = col
		}
		st.each(lines[i], from, func(_ int, c byte) bool {
			switch {
			case strings.IndexByte(open, c) >= 0:
				balance++
				started = true
			case strings.IndexByte(close, c) >= 0:
				if started {
					balance--
				}
			}
			if started && balance == 0 {
				closed = true
				return false
			}
			return true
		})
		if closed {
			return strings.Join(lines[start:i+1], "\n"), i, true
		}
	}

	return strings.Join(lines[start:], "\n"), len(lines) - 1, false
}
