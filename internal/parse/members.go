package parse

import (
	"regexp"
	"strings"

	"github.com/phobologic/declmap/internal/model"
)

var (
	methodNameRe   = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\(`)
	fieldMemberRe  = regexp.MustCompile(`^([A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)\s+(\S.*)$`)
	groupMemberRe  = regexp.MustCompile(`^([A-Za-z_]\w*)\b\s*(.*)$`)
)

// bodyLines returns the depth-zero statements inside a brace block whose
// lines are block. The opening line contributes the text after its first
// brace and the closing line the text before its last brace.
func bodyLines(block []string) []string {
	if len(block) == 0 {
		return nil
	}

	var raw []string
	if len(block) == 1 {
		line := block[0]
		open := strings.Index(line, "{")
		end := strings.LastIndex(line, "}")
		if open < 0 || end <= open {
			return nil
		}
		raw = []string{line[open+1 : end]}
	} else {
		first := block[0]
		if open := strings.Index(first, "{"); open >= 0 {
			raw = append(raw, first[open+1:])
		}
		raw = append(raw, block[1:len(block)-1]...)
		last := block[len(block)-1]
		if end := strings.LastIndex(last, "}"); end >= 0 {
			raw = append(raw, last[:end])
		} else {
			raw = append(raw, last)
		}
	}

	var out []string
	var st lexState
	depth := 0
	for _, line := range raw {
		lineDepth := depth
		depth += depthDelta(&st, line)
		if lineDepth != 0 {
			continue
		}
		for _, stmt := range splitOutsideQuotes(StripLineComment(line), ';') {
			if stmt = strings.TrimSpace(stmt); stmt != "" && !isCommentLine(stmt) {
				out = append(out, stmt)
			}
		}
	}
	return out
}

// parseMethodMembers parses interface method lines of the form
// `Name(params) results`. Embedded interfaces and type unions are dropped.
func parseMethodMembers(block []string) []model.Member {
	var members []model.Member
	for _, stmt := range bodyLines(block) {
		name, params, results, ok := splitMethod(stmt)
		if !ok {
			continue
		}
		members = append(members, model.Member{
			Name:     name,
			Params:   params,
			Type:     results,
			IsMethod: true,
		})
	}
	return members
}

// splitMethod splits `Name(params) results` at the parenthesis that closes
// the parameter list, so func-typed parameters stay intact. ok is false when
// the list does not close on the line.
func splitMethod(stmt string) (name, params, results string, ok bool) {
	loc := methodNameRe.FindStringSubmatchIndex(stmt)
	if loc == nil {
		return "", "", "", false
	}
	open := loc[1] - 1
	closeAt, depth := -1, 0
	var st lexState
	st.each(stmt, open, func(i int, c byte) bool {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeAt = i
				return false
			}
		}
		return true
	})
	if closeAt < 0 {
		return "", "", "", false
	}
	return stmt[loc[2]:loc[3]],
		strings.TrimSpace(stmt[open+1 : closeAt]),
		strings.TrimSpace(stmt[closeAt+1:]),
		true
}

// parseFieldMembers parses struct field lines of the form `A, B Type`.
// Embedded fields are dropped.
func parseFieldMembers(block []string) []model.Member {
	var members []model.Member
	for _, stmt := range bodyLines(block) {
		m := fieldMemberRe.FindStringSubmatch(stmt)
		if m == nil {
			continue
		}
		typ := strings.TrimSpace(m[2])
		for _, name := range strings.Split(m[1], ",") {
			members = append(members, model.Member{
				Name: strings.TrimSpace(name),
				Type: typ,
			})
		}
	}
	return members
}

// valueOf returns the text after the first '=' of a declaration remainder.
func valueOf(rest string) string {
	if i := strings.Index(rest, "="); i >= 0 {
		return strings.TrimSpace(rest[i+1:])
	}
	return ""
}
