// Package parse extracts top-level declarations from Go source text using
// line patterns and balanced-delimiter block capture. It never fails: lines
// that match no pattern are skipped and unterminated blocks run to the end of
// the file.
package parse

import (
	"regexp"
	"strings"

	"github.com/phobologic/declmap/internal/model"
)

// maxSignatureLines bounds a multi-line function signature.
const maxSignatureLines = 12

var (
	contractRe = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\b(?:\[[^\]]*\])?\s+interface\s*\{`)
	recordRe   = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\b(?:\[[^\]]*\])?\s+struct\s*\{`)
	aliasRe    = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\b(?:\[[^\]]*\])?\s*(?:=\s*)?(\S.*)$`)
	methodRe   = regexp.MustCompile(`^func\s*\(([^)]*)\)\s*([A-Za-z_]\w*)\s*(?:\[[^\]]*\])?\s*\(`)
	functionRe = regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*(?:\[[^\]]*\])?\s*\(`)
	groupRe    = regexp.MustCompile(`^(const|var)\s*\(\s*(?://.*)?$`)
	singleRe   = regexp.MustCompile(`^(const|var)\s+([A-Za-z_]\w*)\b\s*(.*)$`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// match is the result of a recognizer.
type match struct {
	kind     model.Kind
	name     string
	rest     string
	receiver string
	group    bool
}

// recognizer tests one trimmed line against one structural pattern.
type recognizer func(line string) (match, bool)

// recognizers run in priority order; the first match wins.
var recognizers = []recognizer{
	recognizeContract,
	recognizeRecord,
	recognizeAlias,
	recognizeMethod,
	recognizeFunction,
	recognizeConstGroup,
	recognizeVarGroup,
	recognizeSingle,
}

func recognizeContract(line string) (match, bool) {
	m := contractRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, false
	}
	return match{kind: model.Contract, name: m[1]}, true
}

func recognizeRecord(line string) (match, bool) {
	m := recordRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, false
	}
	return match{kind: model.Record, name: m[1]}, true
}

func recognizeAlias(line string) (match, bool) {
	if contractRe.MatchString(line) || recordRe.MatchString(line) {
		return match{}, false
	}
	m := aliasRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, false
	}
	return match{kind: model.Alias, name: m[1], rest: strings.TrimSpace(StripLineComment(m[2]))}, true
}

func recognizeMethod(line string) (match, bool) {
	m := methodRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, false
	}
	return match{kind: model.Method, name: m[2], receiver: receiverType(m[1])}, true
}

func recognizeFunction(line string) (match, bool) {
	m := functionRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, false
	}
	return match{kind: model.Function, name: m[1]}, true
}

func recognizeConstGroup(line string) (match, bool) {
	return recognizeGroup(line, "const", model.Constant)
}

func recognizeVarGroup(line string) (match, bool) {
	return recognizeGroup(line, "var", model.Variable)
}

func recognizeGroup(line, keyword string, kind model.Kind) (match, bool) {
	m := groupRe.FindStringSubmatch(line)
	if m == nil || m[1] != keyword {
		return match{}, false
	}
	return match{kind: kind, group: true}, true
}

func recognizeSingle(line string) (match, bool) {
	m := singleRe.FindStringSubmatch(line)
	if m == nil {
		return match{}, false
	}
	kind := model.Constant
	if m[1] == "var" {
		kind = model.Variable
	}
	return match{kind: kind, name: m[2], rest: m[3]}, true
}

// recognize returns the first recognizer match for a trimmed line.
func recognize(line string) (match, bool) {
	for _, r := range recognizers {
		if m, ok := r(line); ok {
			return m, true
		}
	}
	return match{}, false
}

// receiverType extracts the bare type name from receiver text such as
// "s *Server" or "l List[T]".
func receiverType(recv string) string {
	fields := strings.Fields(recv)
	if len(fields) == 0 {
		return ""
	}
	t := strings.TrimLeft(fields[len(fields)-1], "*")
	if i := strings.Index(t, "["); i >= 0 {
		t = t[:i]
	}
	return t
}

// Lines splits source into lines, dropping carriage returns.
func Lines(source []byte) []string {
	lines := strings.Split(string(source), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

type scanner struct {
	lines  []string
	file   string
	module string
	decls  []model.Declaration
}

// Scan extracts the exported top-level declarations of one file.
// relPath is the slash-separated path relative to the scanned root.
func Scan(source []byte, relPath string) []model.Declaration {
	if len(source) == 0 {
		return nil
	}
	s := &scanner{
		lines:  Lines(source),
		file:   relPath,
		module: model.ModuleOf(relPath),
	}
	s.run()
	return s.decls
}

func (s *scanner) run() {
	// st tracks raw strings and block comments opened on lines no
	// recognizer consumed.
	var st lexState
	for i := 0; i < len(s.lines); i++ {
		if st.inRaw || st.inBlock {
			depthDelta(&st, s.lines[i])
			continue
		}
		line := strings.TrimSpace(s.lines[i])
		if line == "" {
			continue
		}
		m, ok := recognize(line)
		if !ok {
			depthDelta(&st, s.lines[i])
			continue
		}

		switch {
		case m.kind == model.Contract || m.kind == model.Record:
			i = s.typeBlock(i, line, m)
		case m.kind == model.Alias:
			i = s.alias(i, line, m)
		case m.kind == model.Method || m.kind == model.Function:
			i = s.callable(i, m)
		case m.group:
			i = s.group(i, m.kind)
		default:
			i = s.single(i, line, m)
		}
	}
}

func (s *scanner) add(d model.Declaration) {
	if !model.IsExported(d.Name) || d.Signature == "" {
		return
	}
	d.File = s.file
	d.Module = s.module
	s.decls = append(s.decls, d)
}

func (s *scanner) typeBlock(i int, line string, m match) int {
	block, end := CaptureBraces(s.lines, i)
	blockLines := s.lines[i : end+1]

	var members []model.Member
	if m.kind == model.Contract {
		members = parseMethodMembers(blockLines)
	} else {
		members = parseFieldMembers(blockLines)
	}

	s.add(model.Declaration{
		Name:      m.name,
		Kind:      m.kind,
		Signature: collapseWhitespace(StripLineComment(line)),
		Block:     block,
		Members:   members,
		Doc:       docFor(s.lines, i, 0),
		Line:      i + 1,
	})
	return end
}

func (s *scanner) alias(i int, line string, m match) int {
	s.add(model.Declaration{
		Name:      m.name,
		Kind:      model.Alias,
		Signature: line,
		Value:     m.rest,
		Doc:       docFor(s.lines, i, 0),
		Line:      i + 1,
	})
	return s.skipOpen(i)
}

func (s *scanner) callable(i int, m match) int {
	sig, end, bodyCol := captureSignature(s.lines, i)
	s.add(model.Declaration{
		Name:      m.name,
		Kind:      m.kind,
		Signature: sig,
		Receiver:  m.receiver,
		Doc:       docFor(s.lines, i, 0),
		Line:      i + 1,
	})
	if bodyCol >= 0 {
		_, end, _ = capture(s.lines, end, bodyCol, "{", "}")
	}
	return end
}

func (s *scanner) group(i int, kind model.Kind) int {
	// A truncated block makes every remaining line a candidate member.
	_, end, closed := capture(s.lines, i, 0, "(", ")")

	var st lexState
	depth := 0
	for k := i + 1; k <= end; k++ {
		raw := s.lines[k]
		if k == end && closed {
			raw = raw[:closeCol(st, raw)]
		}
		lineDepth := depth
		depth += depthDelta(&st, raw)
		if lineDepth != 0 {
			continue
		}
		text := strings.TrimSpace(StripLineComment(raw))
		if text == "" || isCommentLine(text) {
			continue
		}
		mm := groupMemberRe.FindStringSubmatch(text)
		if mm == nil {
			continue
		}
		s.add(model.Declaration{
			Name:      mm[1],
			Kind:      kind,
			Signature: text,
			Value:     valueOf(mm[2]),
			Doc:       docFor(s.lines, k, i+1),
			Line:      k + 1,
		})
	}
	return end
}

func (s *scanner) single(i int, line string, m match) int {
	rest := StripLineComment(m.rest)
	s.add(model.Declaration{
		Name:      m.name,
		Kind:      m.kind,
		Signature: collapseWhitespace(StripLineComment(line)),
		Value:     valueOf(rest),
		Doc:       docFor(s.lines, i, 0),
		Line:      i + 1,
	})
	return s.skipOpen(i)
}

// skipOpen advances past a multi-line value (composite literal, function
// literal, parenthesized expression, raw string) left open on line i.
func (s *scanner) skipOpen(i int) int {
	var st lexState
	depth := depthDelta(&st, s.lines[i])
	k := i
	for (depth > 0 || st.inRaw || st.inBlock) && k+1 < len(s.lines) {
		k++
		depth += depthDelta(&st, s.lines[k])
	}
	return k
}

// closeCol returns the column of the first unmatched closing bracket on
// line, or len(line) when there is none.
func closeCol(st lexState, line string) int {
	col, depth := len(line), 0
	st.each(line, 0, func(i int, c byte) bool {
		switch c {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
			if depth < 0 {
				col = i
				return false
			}
		}
		return true
	})
	return col
}

// captureSignature collects a function signature. It stops at the body
// brace or, when there is no body, at the line where the parameter and result
// parentheses balance. Only the first maxSignatureLines lines go into sig;
// the search for the body goes on past them. bodyCol is the column of the
// body brace on line end, or -1.
func captureSignature(lines []string, start int) (sig string, end int, bodyCol int) {
	limit := start + maxSignatureLines

	var (
		st        lexState
		parts     []string
		parens    int
		typeBrace int
		started   bool
	)
	bodyCol = -1

	for i := start; i < len(lines); i++ {
		line := lines[i]
		kept := i < limit
		cut := -1
		st.each(line, 0, func(j int, c byte) bool {
			switch c {
			case '(':
				parens++
				started = true
			case ')':
				parens--
			case '{':
				before := strings.TrimSpace(line[:j])
				if started && parens == 0 && typeBrace == 0 &&
					!strings.HasSuffix(before, "struct") && !strings.HasSuffix(before, "interface") {
					cut = j
					return false
				}
				typeBrace++
			case '}':
				if typeBrace > 0 {
					typeBrace--
				}
			}
			return true
		})

		if cut >= 0 {
			if kept {
				parts = append(parts, line[:cut])
			}
			return renderSignature(parts), i, cut
		}
		if kept {
			parts = append(parts, StripLineComment(line))
		}
		if started && parens == 0 && typeBrace == 0 {
			return renderSignature(parts), i, -1
		}
	}
	return renderSignature(parts), len(lines) - 1, -1
}

func renderSignature(parts []string) string {
	return NormalizeSignature(strings.Join(parts, " "))
}

// NormalizeSignature collapses whitespace in a possibly multi-line signature
// and drops the padding left by one-parameter-per-line layouts.
func NormalizeSignature(text string) string {
	sig := collapseWhitespace(text)
	sig = strings.ReplaceAll(sig, "( ", "(")
	sig = strings.ReplaceAll(sig, ", )", ")")
	sig = strings.ReplaceAll(sig, ",)", ")")
	return sig
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
