// Package jsparser turns JavaScript source text into the jsast tree consumed
// by the analysis engine.
//
// Parsing is delegated to tree-sitter with the bundled JavaScript grammar; the
// resulting concrete syntax tree is converted into the closed jsast node set.
// Each Parse call creates its own tree-sitter parser instance, so the package
// is safe for concurrent use.
package jsparser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/lancetsec/lancet/internal/jsast"
)

// ErrParse reports a source that tree-sitter could not produce a usable tree
// for. It is the only fatal analysis outcome; everything else degrades to
// warnings downstream.
var ErrParse = errors.New("jsparser: source is not parseable")

// ErrFileTooLarge reports a source exceeding Options.MaxFileSize.
var ErrFileTooLarge = errors.New("jsparser: file exceeds maximum size")

// Options configures a parse.
type Options struct {
	// Module selects ECMAScript module interpretation (import/export syntax).
	Module bool
	// MaxFileSize bounds the accepted source size in bytes. Zero means the
	// default of 10MB.
	MaxFileSize int
}

const defaultMaxFileSize = 10 * 1024 * 1024

// Parse converts source into a jsast.Program.
func Parse(ctx context.Context, source []byte, opts Options) (*jsast.Program, error) {
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}
	if len(source) > maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(source))
	}

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, ErrParse
	}

	c := &converter{source: source}
	program := &jsast.Program{Body: c.convertChildren(root), Module: opts.Module}
	return program, nil
}

// converter holds the source bytes needed to slice node content while
// translating the tree-sitter CST.
type converter struct {
	source []byte
}

func (c *converter) span(n *sitter.Node) jsast.Span {
	return jsast.Span{
		Line:   int(n.StartPoint().Row) + 1,
		Column: int(n.StartPoint().Column),
		Start:  int(n.StartByte()),
		End:    int(n.EndByte()),
	}
}

func (c *converter) content(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.source)
}

// convertChildren converts every named child of n, dropping comments and
// punctuation.
func (c *converter) convertChildren(n *sitter.Node) []jsast.Node {
	var out []jsast.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if converted := c.convert(child); converted != nil {
			out = append(out, converted)
		}
	}
	return out
}

// convert maps one CST node onto the jsast variant set. Shapes outside the
// set become Unknown nodes with converted children so traversal continues.
func (c *converter) convert(n *sitter.Node) jsast.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "comment":
		return nil

	case "expression_statement":
		expr := c.firstNamed(n)
		return c.withSpan(&jsast.ExpressionStatement{Expression: c.convert(expr)}, n)

	case "parenthesized_expression":
		return c.convert(c.firstNamed(n))

	case "identifier", "property_identifier", "shorthand_property_identifier", "this":
		return c.withSpan(&jsast.Identifier{Name: c.content(n)}, n)

	case "string":
		return c.withSpan(&jsast.Literal{
			Raw:      c.content(n),
			StrValue: c.stringValue(n),
			IsString: true,
		}, n)

	case "template_string":
		return c.convertTemplate(n)

	case "number":
		raw := c.content(n)
		val, _ := parseJSNumber(raw)
		return c.withSpan(&jsast.Literal{Raw: raw, NumValue: val, IsNumber: true}, n)

	case "true", "false", "null", "undefined":
		return c.withSpan(&jsast.Literal{Raw: c.content(n)}, n)

	case "regex":
		pattern := n.ChildByFieldName("pattern")
		flags := n.ChildByFieldName("flags")
		return c.withSpan(&jsast.Literal{
			Raw: c.content(n),
			Regex: &jsast.RegexLiteral{
				Pattern: c.content(pattern),
				Flags:   c.content(flags),
			},
		}, n)

	case "binary_expression":
		op := n.ChildByFieldName("operator")
		return c.withSpan(&jsast.BinaryExpression{
			Operator: c.content(op),
			Left:     c.convert(n.ChildByFieldName("left")),
			Right:    c.convert(n.ChildByFieldName("right")),
		}, n)

	case "unary_expression":
		return c.withSpan(&jsast.UnaryExpression{
			Operator: c.content(n.ChildByFieldName("operator")),
			Argument: c.convert(n.ChildByFieldName("argument")),
		}, n)

	case "array":
		arr := &jsast.ArrayExpression{}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			arr.Elements = append(arr.Elements, c.convert(n.NamedChild(i)))
		}
		return c.withSpan(arr, n)

	case "object":
		obj := &jsast.ObjectExpression{Properties: c.convertChildren(n)}
		return c.withSpan(obj, n)

	case "pair":
		key := n.ChildByFieldName("key")
		name, computed := c.staticKeyName(key)
		prop := &jsast.Property{
			KeyName:  name,
			Computed: computed,
			Value:    c.convert(n.ChildByFieldName("value")),
		}
		if computed {
			// Keep the key expression so the walk reaches code hidden inside
			// `{ [expr]: ... }` positions.
			keyExpr := key
			if keyExpr != nil && keyExpr.Type() == "computed_property_name" {
				keyExpr = c.firstNamed(keyExpr)
			}
			prop.Key = c.convert(keyExpr)
		}
		return c.withSpan(prop, n)

	case "spread_element":
		return c.withSpan(&jsast.SpreadElement{Argument: c.convert(c.firstNamed(n))}, n)

	case "call_expression":
		call := &jsast.CallExpression{Callee: c.convert(n.ChildByFieldName("function"))}
		call.Arguments = c.convertArguments(n.ChildByFieldName("arguments"))
		return c.withSpan(call, n)

	case "new_expression":
		callee := n.ChildByFieldName("constructor")
		if callee == nil {
			callee = c.firstNamed(n)
		}
		neo := &jsast.NewExpression{Callee: c.convert(callee)}
		neo.Arguments = c.convertArguments(n.ChildByFieldName("arguments"))
		return c.withSpan(neo, n)

	case "member_expression":
		prop := n.ChildByFieldName("property")
		return c.withSpan(&jsast.MemberExpression{
			Object:       c.convert(n.ChildByFieldName("object")),
			PropertyName: c.content(prop),
		}, n)

	case "subscript_expression":
		index := n.ChildByFieldName("index")
		member := &jsast.MemberExpression{
			Object:   c.convert(n.ChildByFieldName("object")),
			Computed: true,
		}
		// A static string index folds to a plain property access; any other
		// index expression is kept so the walk reaches code hidden inside it.
		if index != nil && index.Type() == "string" {
			member.PropertyName = c.stringValue(index)
			member.Computed = false
		} else {
			member.Index = c.convert(index)
		}
		return c.withSpan(member, n)

	case "assignment_expression", "augmented_assignment_expression":
		op := "="
		if n.Type() == "augmented_assignment_expression" {
			op = c.content(n.ChildByFieldName("operator"))
		}
		return c.withSpan(&jsast.AssignmentExpression{
			Operator: op,
			Left:     c.convert(n.ChildByFieldName("left")),
			Right:    c.convert(n.ChildByFieldName("right")),
		}, n)

	case "sequence_expression":
		return c.withSpan(&jsast.SequenceExpression{Expressions: c.convertChildren(n)}, n)

	case "variable_declaration", "lexical_declaration":
		decl := &jsast.VariableDeclaration{DeclKind: c.declKind(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "variable_declarator" {
				decl.Declarations = append(decl.Declarations, c.withSpan(&jsast.VariableDeclarator{
					Name: c.convert(child.ChildByFieldName("name")),
					Init: c.convert(child.ChildByFieldName("value")),
				}, child))
			}
		}
		return c.withSpan(decl, n)

	case "function_declaration", "generator_function_declaration":
		return c.withSpan(&jsast.FunctionDeclaration{
			Name:   c.content(n.ChildByFieldName("name")),
			Params: c.convertParams(n),
			Body:   c.convert(n.ChildByFieldName("body")),
		}, n)

	case "function", "function_expression", "generator_function":
		return c.withSpan(&jsast.FunctionExpression{
			Name:   c.content(n.ChildByFieldName("name")),
			Params: c.convertParams(n),
			Body:   c.convert(n.ChildByFieldName("body")),
		}, n)

	case "arrow_function":
		return c.withSpan(&jsast.ArrowFunctionExpression{
			Params: c.convertParams(n),
			Body:   c.convert(n.ChildByFieldName("body")),
		}, n)

	case "class_declaration", "class":
		body := n.ChildByFieldName("body")
		cls := &jsast.ClassDeclaration{Name: c.content(n.ChildByFieldName("name"))}
		if body != nil {
			cls.Body = c.convertChildren(body)
		}
		return c.withSpan(cls, n)

	case "method_definition":
		return c.withSpan(&jsast.FunctionExpression{
			Name:   c.content(n.ChildByFieldName("name")),
			Params: c.convertParams(n),
			Body:   c.convert(n.ChildByFieldName("body")),
		}, n)

	case "statement_block", "class_body":
		return c.withSpan(&jsast.BlockStatement{Body: c.convertChildren(n)}, n)

	case "return_statement":
		return c.withSpan(&jsast.ReturnStatement{Argument: c.convert(c.firstNamed(n))}, n)

	case "if_statement":
		return c.withSpan(&jsast.IfStatement{
			Test:       c.convert(n.ChildByFieldName("condition")),
			Consequent: c.convert(n.ChildByFieldName("consequence")),
			Alternate:  c.convert(n.ChildByFieldName("alternative")),
		}, n)

	case "else_clause":
		return c.convert(c.firstNamed(n))

	case "try_statement":
		return c.withSpan(&jsast.TryStatement{
			Block:     c.convert(n.ChildByFieldName("body")),
			Handler:   c.convert(n.ChildByFieldName("handler")),
			Finalizer: c.convert(n.ChildByFieldName("finalizer")),
		}, n)

	case "catch_clause":
		return c.withSpan(&jsast.CatchClause{
			Param: c.convert(n.ChildByFieldName("parameter")),
			Body:  c.convert(n.ChildByFieldName("body")),
		}, n)

	case "finally_clause":
		return c.convert(n.ChildByFieldName("body"))

	case "import_statement":
		return c.withSpan(&jsast.ImportDeclaration{
			Source: c.stringValue(n.ChildByFieldName("source")),
		}, n)

	case "export_statement":
		exp := &jsast.ExportDeclaration{
			Source:      c.stringValue(n.ChildByFieldName("source")),
			Declaration: c.convert(n.ChildByFieldName("declaration")),
		}
		return c.withSpan(exp, n)

	default:
		return c.withSpan(&jsast.Unknown{
			Type:     n.Type(),
			Children: c.convertChildren(n),
		}, n)
	}
}

// withSpan stamps the source span onto a freshly built node.
func (c *converter) withSpan(node jsast.Node, n *sitter.Node) jsast.Node {
	jsast.SetSpan(node, c.span(n))
	return node
}

func (c *converter) firstNamed(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// convertArguments flattens an arguments CST node into expressions, keeping
// spread elements.
func (c *converter) convertArguments(argsNode *sitter.Node) []jsast.Node {
	if argsNode == nil {
		return nil
	}
	var args []jsast.Node
	for i := 0; i < int(argsNode.NamedChildCount()); i++ {
		child := argsNode.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		args = append(args, c.convert(child))
	}
	return args
}

// convertParams extracts the parameter patterns of a function node, handling
// both the parenthesized list and the bare single arrow parameter.
func (c *converter) convertParams(fnNode *sitter.Node) []jsast.Node {
	paramsNode := fnNode.ChildByFieldName("parameters")
	if paramsNode == nil {
		paramsNode = fnNode.ChildByFieldName("formal_parameters")
	}
	if paramsNode != nil {
		return c.convertChildren(paramsNode)
	}
	if single := fnNode.ChildByFieldName("parameter"); single != nil {
		if converted := c.convert(single); converted != nil {
			return []jsast.Node{converted}
		}
	}
	return nil
}

// convertTemplate keeps the ESTree invariant len(Quasis) == len(Expressions)+1
// so consumers can interleave text and substitutions in source order.
func (c *converter) convertTemplate(n *sitter.Node) jsast.Node {
	tpl := &jsast.TemplateLiteral{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "template_substitution":
			if len(tpl.Quasis) == len(tpl.Expressions) {
				tpl.Quasis = append(tpl.Quasis, "")
			}
			tpl.Expressions = append(tpl.Expressions, c.convert(c.firstNamed(child)))
		case "string_fragment":
			if len(tpl.Quasis) == len(tpl.Expressions) {
				tpl.Quasis = append(tpl.Quasis, c.content(child))
			} else {
				tpl.Quasis[len(tpl.Quasis)-1] += c.content(child)
			}
		}
	}
	if len(tpl.Quasis) == len(tpl.Expressions) {
		tpl.Quasis = append(tpl.Quasis, "")
	}
	return c.withSpan(tpl, n)
}

// declKind reads the leading keyword of a var/let/const declaration.
func (c *converter) declKind(n *sitter.Node) string {
	if n.ChildCount() == 0 {
		return "var"
	}
	kw := c.content(n.Child(0))
	switch kw {
	case "var", "let", "const":
		return kw
	}
	return "var"
}

// staticKeyName resolves an object key to its literal name when possible.
func (c *converter) staticKeyName(key *sitter.Node) (string, bool) {
	if key == nil {
		return "", true
	}
	switch key.Type() {
	case "property_identifier", "identifier", "shorthand_property_identifier":
		return c.content(key), false
	case "string":
		return c.stringValue(key), false
	case "number":
		return c.content(key), false
	default:
		return "", true
	}
}

// stringValue decodes a string CST node (or import/export source) into its
// runtime value, processing escape sequences.
func (c *converter) stringValue(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	raw := c.content(n)
	return UnquoteString(raw)
}

// UnquoteString strips the surrounding quotes of a JavaScript string literal
// and decodes its escape sequences. Unrecognized escapes keep the escaped
// character, matching loose JS semantics.
func UnquoteString(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	quote := raw[0]
	if quote != '"' && quote != '\'' && quote != '`' {
		return raw
	}
	if raw[len(raw)-1] == quote {
		raw = raw[1 : len(raw)-1]
	} else {
		raw = raw[1:]
	}
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '\\' || i+1 >= len(raw) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case 'x':
			if i+2 < len(raw) {
				if v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteByte('x')
		case 'u':
			if decoded, consumed := decodeUnicodeEscape(raw[i:]); consumed > 0 {
				b.WriteRune(decoded)
				i += consumed - 1
				continue
			}
			b.WriteByte('u')
		default:
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// decodeUnicodeEscape handles u{XXXX} and uXXXX forms starting at s[0]=='u'.
// It returns the decoded rune and the number of bytes consumed including 'u'.
func decodeUnicodeEscape(s string) (rune, int) {
	if len(s) < 2 {
		return 0, 0
	}
	if s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0
		}
		v, err := strconv.ParseUint(s[2:end], 16, 32)
		if err != nil {
			return 0, 0
		}
		return rune(v), end + 1
	}
	if len(s) < 5 {
		return 0, 0
	}
	v, err := strconv.ParseUint(s[1:5], 16, 32)
	if err != nil {
		return 0, 0
	}
	return rune(v), 5
}

// parseJSNumber parses decimal, hex, octal and binary numeric literals.
func parseJSNumber(raw string) (float64, error) {
	raw = strings.ReplaceAll(raw, "_", "")
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, err := strconv.ParseUint(lower[2:], 16, 64)
		return float64(v), err
	case strings.HasPrefix(lower, "0o"):
		v, err := strconv.ParseUint(lower[2:], 8, 64)
		return float64(v), err
	case strings.HasPrefix(lower, "0b"):
		v, err := strconv.ParseUint(lower[2:], 2, 64)
		return float64(v), err
	default:
		return strconv.ParseFloat(strings.TrimSuffix(lower, "n"), 64)
	}
}
