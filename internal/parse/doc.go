package parse

import "strings"

// docFor collects the comment run directly above line i, never looking above
// floor. One blank line between the comments and the declaration is allowed.
func docFor(lines []string, i, floor int) string {
	var parts []string
	seenComment := false
	skippedBlank := false

	for j := i - 1; j >= floor && j >= 0; j-- {
		t := strings.TrimSpace(lines[j])
		if t == "" {
			if !seenComment && !skippedBlank {
				skippedBlank = true
				continue
			}
			break
		}
		if !isCommentLine(t) {
			break
		}
		seenComment = true
		if text := commentText(t); text != "" {
			parts = append(parts, text)
		}
	}

	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return strings.Join(parts, " ")
}

func isCommentLine(t string) bool {
	return strings.HasPrefix(t, "//") ||
		strings.HasPrefix(t, "/*") ||
		strings.HasPrefix(t, "*") ||
		strings.HasSuffix(t, "*/")
}

func commentText(t string) string {
	switch {
	case strings.HasPrefix(t, "//"):
		t = t[2:]
	case strings.HasPrefix(t, "/**"):
		t = t[3:]
	case strings.HasPrefix(t, "/*"):
		t = t[2:]
	}
	t = strings.TrimSuffix(t, "*/")
	t = strings.TrimPrefix(strings.TrimSpace(t), "*")
	return strings.TrimSpace(t)
}

// CleanComment converts raw comment text, possibly a multi-line block
// comment, into space-joined prose.
func CleanComment(raw string) string {
	var parts []string
	for _, line := range Lines([]byte(raw)) {
		if text := commentText(strings.TrimSpace(line)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
