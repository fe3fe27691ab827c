package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/declmap/internal/model"
	"github.com/phobologic/declmap/internal/parse"
)

// extractor walks a Go syntax tree and collects top-level declarations.
type extractor struct {
	source []byte
	file   string
	decls  []model.Declaration
}

func (x *extractor) text(n *sitter.Node) string {
	return NodeText(n, x.source)
}

func (x *extractor) add(d model.Declaration) {
	if !model.IsExported(d.Name) || d.Signature == "" {
		return
	}
	d.File = x.file
	d.Module = model.ModuleOf(x.file)
	x.decls = append(x.decls, d)
}

func (x *extractor) walk(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "type_declaration":
			x.typeDecl(node)
		case "function_declaration":
			x.callable(node, model.Function)
		case "method_declaration":
			x.callable(node, model.Method)
		case "const_declaration":
			x.valueDecl(node, model.Constant, "const_spec")
		case "var_declaration":
			x.valueDecl(node, model.Variable, "var_spec")
		}
	}
}

// grouped reports whether a declaration uses the parenthesized form.
func grouped(decl *sitter.Node) bool {
	for i := 0; i < int(decl.ChildCount()); i++ {
		if decl.Child(i).Type() == "(" {
			return true
		}
	}
	return false
}

func (x *extractor) typeDecl(decl *sitter.Node) {
	isGroup := grouped(decl)
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		spec := decl.NamedChild(i)
		if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		typeNode := spec.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}

		anchor, block := decl, x.text(decl)
		if isGroup {
			anchor, block = spec, "type "+x.text(spec)
		}

		d := model.Declaration{
			Name: x.text(nameNode),
			Doc:  x.doc(anchor),
			Line: int(anchor.StartPoint().Row) + 1,
		}
		switch {
		case spec.Type() == "type_spec" && typeNode.Type() == "interface_type":
			d.Kind = model.Contract
			d.Members = x.methodMembers(typeNode)
		case spec.Type() == "type_spec" && typeNode.Type() == "struct_type":
			d.Kind = model.Record
			d.Members = x.fieldMembers(typeNode)
		default:
			d.Kind = model.Alias
			d.Value = CollapseWhitespace(x.text(typeNode))
		}
		if d.Kind == model.Alias {
			d.Signature = CollapseWhitespace(block)
		} else {
			d.Signature = CollapseWhitespace(firstLine(block))
			d.Block = block
		}
		x.add(d)
	}
}

func (x *extractor) methodMembers(iface *sitter.Node) []model.Member {
	var members []model.Member
	for i := 0; i < int(iface.NamedChildCount()); i++ {
		elem := iface.NamedChild(i)
		if elem.Type() != "method_elem" && elem.Type() != "method_spec" {
			continue
		}
		m := model.Member{IsMethod: true}
		if n := elem.ChildByFieldName("name"); n != nil {
			m.Name = x.text(n)
		}
		if p := elem.ChildByFieldName("parameters"); p != nil {
			m.Params = innerParams(x.text(p))
		}
		if r := elem.ChildByFieldName("result"); r != nil {
			m.Type = CollapseWhitespace(x.text(r))
		}
		if m.Name != "" {
			members = append(members, m)
		}
	}
	return members
}

func (x *extractor) fieldMembers(st *sitter.Node) []model.Member {
	var list *sitter.Node
	for i := 0; i < int(st.NamedChildCount()); i++ {
		if c := st.NamedChild(i); c.Type() == "field_declaration_list" {
			list = c
			break
		}
	}
	if list == nil {
		return nil
	}

	var members []model.Member
	for i := 0; i < int(list.NamedChildCount()); i++ {
		field := list.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}
		typeNode := field.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		// Type text runs through the tag, if any.
		typ := CollapseWhitespace(string(x.source[typeNode.StartByte():field.EndByte()]))
		for j := 0; j < int(field.NamedChildCount()); j++ {
			n := field.NamedChild(j)
			if n.Type() == "field_identifier" {
				members = append(members, model.Member{Name: x.text(n), Type: typ})
			}
		}
	}
	return members
}

func (x *extractor) callable(decl *sitter.Node, kind model.Kind) {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	end := decl.EndByte()
	if body := decl.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	d := model.Declaration{
		Name:      x.text(nameNode),
		Kind:      kind,
		Signature: parse.NormalizeSignature(string(x.source[decl.StartByte():end])),
		Doc:       x.doc(decl),
		Line:      int(decl.StartPoint().Row) + 1,
	}
	if kind == model.Method {
		d.Receiver = x.receiverType(decl)
	}
	x.add(d)
}

// receiverType returns the bare type name of a method receiver, unwrapping
// pointers and type arguments.
func (x *extractor) receiverType(method *sitter.Node) string {
	recv := method.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		t := param.ChildByFieldName("type")
		if t == nil {
			return ""
		}
		name := strings.TrimLeft(x.text(t), "*")
		if k := strings.Index(name, "["); k >= 0 {
			name = name[:k]
		}
		return strings.TrimSpace(name)
	}
	return ""
}

func (x *extractor) valueDecl(decl *sitter.Node, kind model.Kind, specType string) {
	isGroup := grouped(decl)
	for _, spec := range specsOf(decl, specType) {
		sig := x.text(spec)
		anchor := spec
		if !isGroup {
			sig = x.text(decl)
			anchor = decl
		}
		var value string
		if v := spec.ChildByFieldName("value"); v != nil {
			value = CollapseWhitespace(x.text(v))
		}
		doc := x.doc(anchor)
		for i := 0; i < int(spec.NamedChildCount()); i++ {
			n := spec.NamedChild(i)
			if n.Type() != "identifier" {
				continue
			}
			x.add(model.Declaration{
				Name:      x.text(n),
				Kind:      kind,
				Signature: CollapseWhitespace(sig),
				Value:     value,
				Doc:       doc,
				Line:      int(spec.StartPoint().Row) + 1,
			})
		}
	}
}

// specsOf collects the const_spec or var_spec nodes of a declaration,
// looking through the spec-list wrapper newer grammars emit.
func specsOf(decl *sitter.Node, specType string) []*sitter.Node {
	var specs []*sitter.Node
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		c := decl.NamedChild(i)
		switch c.Type() {
		case specType:
			specs = append(specs, c)
		case specType + "_list":
			specs = append(specs, specsOf(c, specType)...)
		}
	}
	return specs
}

// doc collects the comment run directly above n. One blank line between the
// last comment and n is allowed; the comments themselves must be contiguous.
func (x *extractor) doc(n *sitter.Node) string {
	var parts []string
	next := int(n.StartPoint().Row)
	gap := 2
	for prev := n.PrevSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevSibling() {
		if next-int(prev.EndPoint().Row) > gap || trailing(prev) {
			break
		}
		parts = append(parts, parse.CleanComment(x.text(prev)))
		next = int(prev.StartPoint().Row)
		gap = 1
	}
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// trailing reports whether a comment shares its line with preceding code.
func trailing(comment *sitter.Node) bool {
	before := comment.PrevNamedSibling()
	return before != nil && before.EndPoint().Row == comment.StartPoint().Row
}

func innerParams(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	return parse.NormalizeSignature(text)
}
