// Package jsast defines an ESTree-shaped syntax tree for JavaScript sources.
//
// The tree is a closed set of node kinds: every node the analysis engine can
// reason about has a concrete struct here, and anything the parser does not
// recognize is wrapped in an Unknown node that still exposes its children so
// a traversal can continue past it. Trees are immutable after parsing; the
// analysis layers only read them.
package jsast

// Kind identifies the variant of a Node.
type Kind string

const (
	KindProgram             Kind = "Program"
	KindIdentifier          Kind = "Identifier"
	KindLiteral             Kind = "Literal"
	KindTemplateLiteral     Kind = "TemplateLiteral"
	KindBinaryExpression    Kind = "BinaryExpression"
	KindUnaryExpression     Kind = "UnaryExpression"
	KindArrayExpression     Kind = "ArrayExpression"
	KindObjectExpression    Kind = "ObjectExpression"
	KindProperty            Kind = "Property"
	KindCallExpression      Kind = "CallExpression"
	KindNewExpression       Kind = "NewExpression"
	KindMemberExpression    Kind = "MemberExpression"
	KindAssignmentExpr      Kind = "AssignmentExpression"
	KindSequenceExpression  Kind = "SequenceExpression"
	KindSpreadElement       Kind = "SpreadElement"
	KindVariableDeclaration Kind = "VariableDeclaration"
	KindVariableDeclarator  Kind = "VariableDeclarator"
	KindFunctionDeclaration Kind = "FunctionDeclaration"
	KindFunctionExpression  Kind = "FunctionExpression"
	KindArrowFunction       Kind = "ArrowFunctionExpression"
	KindClassDeclaration    Kind = "ClassDeclaration"
	KindBlockStatement      Kind = "BlockStatement"
	KindExpressionStatement Kind = "ExpressionStatement"
	KindReturnStatement     Kind = "ReturnStatement"
	KindIfStatement         Kind = "IfStatement"
	KindTryStatement        Kind = "TryStatement"
	KindCatchClause         Kind = "CatchClause"
	KindImportDeclaration   Kind = "ImportDeclaration"
	KindExportDeclaration   Kind = "ExportDeclaration"
	KindUnknown             Kind = "Unknown"
)

// Span locates a node in the original source text.
type Span struct {
	// Line and Column are 1-indexed and 0-indexed respectively, matching
	// tree-sitter points after row adjustment.
	Line   int
	Column int
	// Start and End are byte offsets into the source.
	Start int
	End   int
}

// Node is the interface satisfied by every syntax tree node.
type Node interface {
	Kind() Kind
	Span() Span
}

type base struct {
	Loc Span
}

func (b base) Span() Span { return b.Loc }

func (b *base) setSpan(s Span) { b.Loc = s }

type spanSetter interface {
	setSpan(Span)
}

// SetSpan stamps the source span onto a node. Used by the parser while
// building the tree; analysis layers never call it.
func SetSpan(n Node, s Span) {
	if ss, ok := n.(spanSetter); ok {
		ss.setSpan(s)
	}
}

// Program is the tree root: the ordered top-level statements of a module or
// script.
type Program struct {
	base
	Body []Node
	// Module reports whether the source was parsed with ECMAScript module
	// semantics (import/export allowed at top level).
	Module bool
}

func (*Program) Kind() Kind { return KindProgram }

// Identifier is a bare name reference or binding occurrence.
type Identifier struct {
	base
	Name string
}

func (*Identifier) Kind() Kind { return KindIdentifier }

// Literal covers string, numeric, boolean, null and regex literals.
type Literal struct {
	base
	// Raw is the literal exactly as written, including quotes or slashes.
	Raw string
	// StrValue is the decoded value for string literals.
	StrValue string
	// NumValue is the parsed value for numeric literals.
	NumValue float64
	IsString bool
	IsNumber bool
	// Regex is non-nil for regular expression literals.
	Regex *RegexLiteral
}

func (*Literal) Kind() Kind { return KindLiteral }

// RegexLiteral holds the pattern and flags of /pattern/flags.
type RegexLiteral struct {
	Pattern string
	Flags   string
}

// TemplateLiteral is a backtick string. Quasis holds the literal text parts;
// Expressions the interpolated parts, in source order.
type TemplateLiteral struct {
	base
	Quasis      []string
	Expressions []Node
}

func (*TemplateLiteral) Kind() Kind { return KindTemplateLiteral }

// BinaryExpression is left <op> right.
type BinaryExpression struct {
	base
	Operator string
	Left     Node
	Right    Node
}

func (*BinaryExpression) Kind() Kind { return KindBinaryExpression }

// UnaryExpression is <op> argument.
type UnaryExpression struct {
	base
	Operator string
	Argument Node
}

func (*UnaryExpression) Kind() Kind { return KindUnaryExpression }

// ArrayExpression is [e0, e1, ...]. Elided elements appear as nil.
type ArrayExpression struct {
	base
	Elements []Node
}

func (*ArrayExpression) Kind() Kind { return KindArrayExpression }

// ObjectExpression is { key: value, ... }.
type ObjectExpression struct {
	base
	Properties []Node
}

func (*ObjectExpression) Kind() Kind { return KindObjectExpression }

// Property is a single key/value entry of an object literal.
type Property struct {
	base
	// KeyName is the statically known key, or "" when computed.
	KeyName  string
	Computed bool
	// Key holds the computed key expression when KeyName is not statically
	// known; nil for plain keys.
	Key   Node
	Value Node
}

func (*Property) Kind() Kind { return KindProperty }

// CallExpression is callee(args...).
type CallExpression struct {
	base
	Callee    Node
	Arguments []Node
}

func (*CallExpression) Kind() Kind { return KindCallExpression }

// NewExpression is new callee(args...).
type NewExpression struct {
	base
	Callee    Node
	Arguments []Node
}

func (*NewExpression) Kind() Kind { return KindNewExpression }

// MemberExpression is object.property or object[index].
type MemberExpression struct {
	base
	Object Node
	// PropertyName is the statically known property, or "" when the access is
	// computed with a non-literal index.
	PropertyName string
	Computed     bool
	// Index holds the computed index expression when PropertyName is not
	// statically known; nil for plain and folded accesses.
	Index Node
}

func (*MemberExpression) Kind() Kind { return KindMemberExpression }

// AssignmentExpression is left = right (compound operators keep Operator).
type AssignmentExpression struct {
	base
	Operator string
	Left     Node
	Right    Node
}

func (*AssignmentExpression) Kind() Kind { return KindAssignmentExpr }

// SequenceExpression is (a, b, c).
type SequenceExpression struct {
	base
	Expressions []Node
}

func (*SequenceExpression) Kind() Kind { return KindSequenceExpression }

// SpreadElement is ...argument inside calls, arrays and objects.
type SpreadElement struct {
	base
	Argument Node
}

func (*SpreadElement) Kind() Kind { return KindSpreadElement }

// VariableDeclaration is a var/let/const statement with one or more
// declarators.
type VariableDeclaration struct {
	base
	// DeclKind is "var", "let" or "const".
	DeclKind     string
	Declarations []Node
}

func (*VariableDeclaration) Kind() Kind { return KindVariableDeclaration }

// VariableDeclarator is one name = init pair of a declaration. Init may be
// nil (`let x;`). Name may be a pattern for destructuring; the analysis only
// tracks plain identifier bindings.
type VariableDeclarator struct {
	base
	Name Node
	Init Node
}

func (*VariableDeclarator) Kind() Kind { return KindVariableDeclarator }

// FunctionDeclaration is a named function statement.
type FunctionDeclaration struct {
	base
	Name   string
	Params []Node
	Body   Node
}

func (*FunctionDeclaration) Kind() Kind { return KindFunctionDeclaration }

// FunctionExpression is an anonymous or named function value.
type FunctionExpression struct {
	base
	Name   string
	Params []Node
	Body   Node
}

func (*FunctionExpression) Kind() Kind { return KindFunctionExpression }

// ArrowFunctionExpression is params => body.
type ArrowFunctionExpression struct {
	base
	Params []Node
	Body   Node
}

func (*ArrowFunctionExpression) Kind() Kind { return KindArrowFunction }

// ClassDeclaration is a named class statement. The analysis only needs the
// name and the member bodies.
type ClassDeclaration struct {
	base
	Name string
	Body []Node
}

func (*ClassDeclaration) Kind() Kind { return KindClassDeclaration }

// BlockStatement is { statements... }.
type BlockStatement struct {
	base
	Body []Node
}

func (*BlockStatement) Kind() Kind { return KindBlockStatement }

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	base
	Expression Node
}

func (*ExpressionStatement) Kind() Kind { return KindExpressionStatement }

// ReturnStatement is return [argument].
type ReturnStatement struct {
	base
	Argument Node
}

func (*ReturnStatement) Kind() Kind { return KindReturnStatement }

// IfStatement is if (test) consequent [else alternate].
type IfStatement struct {
	base
	Test       Node
	Consequent Node
	Alternate  Node
}

func (*IfStatement) Kind() Kind { return KindIfStatement }

// TryStatement is try { Block } [catch { Handler }] [finally { Finalizer }].
type TryStatement struct {
	base
	Block     Node
	Handler   Node
	Finalizer Node
}

func (*TryStatement) Kind() Kind { return KindTryStatement }

// CatchClause is the handler clause of a try statement.
type CatchClause struct {
	base
	Param Node
	Body  Node
}

func (*CatchClause) Kind() Kind { return KindCatchClause }

// ImportDeclaration is `import ... from "source"` or `import "source"`.
type ImportDeclaration struct {
	base
	Source string
}

func (*ImportDeclaration) Kind() Kind { return KindImportDeclaration }

// ExportDeclaration covers `export ... from "source"` and plain exports.
// Source is "" when the export does not re-export another module.
type ExportDeclaration struct {
	base
	Source string
	// Declaration is the exported declaration, if any (export const x = ...).
	Declaration Node
}

func (*ExportDeclaration) Kind() Kind { return KindExportDeclaration }

// Unknown wraps a node shape the parser does not model. Children are still
// converted so traversals can descend through it.
type Unknown struct {
	base
	Type     string
	Children []Node
}

func (*Unknown) Kind() Kind { return KindUnknown }
