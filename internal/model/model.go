// Package model defines core data structures for declmap.
package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the category of a top-level declaration.
type Kind string

const (
	Contract Kind = "contract"
	Record   Kind = "record"
	Alias    Kind = "alias"
	Function Kind = "function"
	Method   Kind = "method"
	Constant Kind = "constant"
	Variable Kind = "variable"
)

// Kinds lists every declaration kind in scan-priority order.
var Kinds = []Kind{Contract, Record, Alias, Function, Method, Constant, Variable}

var kindAliases = map[string]Kind{
	"interface": Contract,
	"struct":    Record,
	"type":      Alias,
	"func":      Function,
	"const":     Constant,
	"var":       Variable,
}

// ParseKind resolves a kind name, accepting Go keyword spellings.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	k, ok := kindAliases[s]
	return k, ok
}

// RootModule is the module name for files directly under the scanned root.
const RootModule = "root"

// ModuleOf returns the module of a slash-separated path relative to the root.
func ModuleOf(relPath string) string {
	if i := strings.Index(relPath, "/"); i > 0 {
		return relPath[:i]
	}
	return RootModule
}

// IsExported reports whether name follows the exported-identifier convention.
func IsExported(name string) bool {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || !unicode.IsUpper(r) {
		return false
	}
	for _, c := range name[size:] {
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}

// Member is a field or method entry inside a contract or record.
type Member struct {
	Name             string `json:"name" yaml:"name"`
	Type             string `json:"type,omitempty" yaml:"type,omitempty"`
	Params           string `json:"params,omitempty" yaml:"params,omitempty"`
	IsMethod         bool   `json:"is_method,omitempty" yaml:"is_method,omitempty"`
	IsCallSignature  bool   `json:"is_call_signature,omitempty" yaml:"is_call_signature,omitempty"`
	IsIndexSignature bool   `json:"is_index_signature,omitempty" yaml:"is_index_signature,omitempty"`
}

// Declaration is one recognized top-level symbol.
type Declaration struct {
	Name      string   `json:"name" yaml:"name"`
	Kind      Kind     `json:"kind" yaml:"kind"`
	File      string   `json:"file" yaml:"file"`
	Module    string   `json:"module" yaml:"module"`
	Signature string   `json:"signature" yaml:"signature"`
	Block     string   `json:"block,omitempty" yaml:"block,omitempty"`
	Members   []Member `json:"members,omitempty" yaml:"members,omitempty"`
	Doc       string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	Value     string   `json:"value,omitempty" yaml:"value,omitempty"`
	Receiver  string   `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Line      int      `json:"line" yaml:"line"`
}

// Text returns the captured block, or the signature when there is none.
func (d *Declaration) Text() string {
	if d.Block != "" {
		return d.Block
	}
	return d.Signature
}

// IsCallable reports whether the declaration is a function or method.
func (d *Declaration) IsCallable() bool {
	return d.Kind == Function || d.Kind == Method
}

// IsType reports whether the declaration is a contract or record.
func (d *Declaration) IsType() bool {
	return d.Kind == Contract || d.Kind == Record
}

// ModuleStats holds per-kind declaration counts for one module.
type ModuleStats struct {
	Module string       `json:"module" yaml:"module"`
	Counts map[Kind]int `json:"counts" yaml:"counts"`
	Total  int          `json:"total" yaml:"total"`
}

// ModuleSummary is a module overview with its most interesting declarations.
type ModuleSummary struct {
	Module     string        `json:"module" yaml:"module"`
	Total      int           `json:"total" yaml:"total"`
	Counts     map[Kind]int  `json:"counts" yaml:"counts"`
	Files      []string      `json:"files" yaml:"files"`
	Highlights []Declaration `json:"highlights" yaml:"highlights"`
}

// DependencyInfo lists what a module imports and exports.
// ReExports is reserved and always empty.
type DependencyInfo struct {
	Module    string   `json:"module" yaml:"module"`
	Imports   []string `json:"imports" yaml:"imports"`
	Exports   []string `json:"exports" yaml:"exports"`
	ReExports []string `json:"re_exports" yaml:"re_exports"`
}

// RankedResult pairs a declaration with its relevance score and the signals
// that matched.
type RankedResult struct {
	Declaration Declaration `json:"declaration" yaml:"declaration"`
	Score       int         `json:"score" yaml:"score"`
	Matched     []string    `json:"matched" yaml:"matched"`
}

// Relations holds the heuristic parents and children of a declaration.
type Relations struct {
	Target   Declaration `json:"target" yaml:"target"`
	Parents  []string    `json:"parents" yaml:"parents"`
	Children []string    `json:"children" yaml:"children"`
}
