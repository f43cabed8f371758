package js

import (
	"strings"

	"github.com/lancetsec/lancet/internal/jsast"
)

// defaultProbes returns the built-in probe set in dispatch order. The order
// is part of the engine's contract: definitive structural matches come first
// and break the chain, generic counters and literal scoring come last.
func defaultProbes() []Probe {
	return []Probe{
		{
			Name:         "module-import",
			Validate:     []func(jsast.Node, *ProbeContext) bool{isImportLike},
			Main:         importMain,
			BreakOnMatch: true,
		},
		{
			Name:         "require-call",
			Validate:     []func(jsast.Node, *ProbeContext) bool{isKind(jsast.KindCallExpression), isRequireCall},
			Main:         requireMain,
			BreakOnMatch: true,
		},
		{
			Name:         "unsafe-invocation",
			Validate:     []func(jsast.Node, *ProbeContext) bool{isEvalLikeCall},
			Main:         unsafeInvocationMain,
			BreakOnMatch: true,
		},
		{
			Name:         "regex-safety",
			Validate:     []func(jsast.Node, *ProbeContext) bool{hasRegexPattern},
			Main:         regexMain,
			BreakOnMatch: true,
		},
		{
			Name:         "function-declaration",
			Validate:     []func(jsast.Node, *ProbeContext) bool{isKind(jsast.KindFunctionDeclaration)},
			Main:         functionDeclMain,
			BreakOnMatch: true,
		},
		{
			Name:         "class-declaration",
			Validate:     []func(jsast.Node, *ProbeContext) bool{isKind(jsast.KindClassDeclaration)},
			Main:         classDeclMain,
			BreakOnMatch: true,
		},
		{
			Name:     "variable-declarator",
			Validate: []func(jsast.Node, *ProbeContext) bool{isKind(jsast.KindVariableDeclarator)},
			Main:     declaratorMain,
		},
		{
			Name:     "assignment",
			Validate: []func(jsast.Node, *ProbeContext) bool{isKind(jsast.KindAssignmentExpr)},
			Main:     assignmentMain,
		},
		{
			Name:     "object-property",
			Validate: []func(jsast.Node, *ProbeContext) bool{isKind(jsast.KindProperty)},
			Main:     propertyMain,
		},
		{
			Name:     "string-literal",
			Validate: []func(jsast.Node, *ProbeContext) bool{isStringLiteral},
			Main:     stringLiteralMain,
		},
	}
}

// -- Predicates --

func isImportLike(n jsast.Node, _ *ProbeContext) bool {
	switch n.(type) {
	case *jsast.ImportDeclaration, *jsast.ExportDeclaration:
		return true
	}
	return false
}

// isRequireCall matches calls whose callee folds to the require capability,
// including require.resolve and any alias chain folded to Require.
func isRequireCall(n jsast.Node, ctx *ProbeContext) bool {
	call := n.(*jsast.CallExpression)
	if ctx.Env.ResolveCapability(call.Callee) == CapRequire {
		return true
	}
	if member, ok := call.Callee.(*jsast.MemberExpression); ok && member.PropertyName == "resolve" {
		return ctx.Env.ResolveCapability(member.Object) == CapRequire
	}
	return false
}

func isEvalLikeCall(n jsast.Node, ctx *ProbeContext) bool {
	callee := calleeOf(n)
	if callee == nil {
		return false
	}
	capability := ctx.Env.ResolveCapability(callee)
	return capability == CapEval || capability == CapFunction
}

func hasRegexPattern(n jsast.Node, _ *ProbeContext) bool {
	switch v := n.(type) {
	case *jsast.Literal:
		return v.Regex != nil
	case *jsast.NewExpression:
		return isRegExpIdent(v.Callee)
	case *jsast.CallExpression:
		return isRegExpIdent(v.Callee)
	}
	return false
}

func isRegExpIdent(n jsast.Node) bool {
	ident, ok := n.(*jsast.Identifier)
	return ok && ident.Name == "RegExp"
}

func isStringLiteral(n jsast.Node, _ *ProbeContext) bool {
	lit, ok := n.(*jsast.Literal)
	return ok && lit.IsString
}

func calleeOf(n jsast.Node) jsast.Node {
	switch v := n.(type) {
	case *jsast.CallExpression:
		return v.Callee
	case *jsast.NewExpression:
		return v.Callee
	}
	return nil
}

// -- Actions --

func importMain(n jsast.Node, ctx *ProbeContext) {
	var source string
	switch v := n.(type) {
	case *jsast.ImportDeclaration:
		source = v.Source
	case *jsast.ExportDeclaration:
		if v.Source == "" {
			return
		}
		source = v.Source
	}
	if source == "" {
		ctx.State.Warn(WarnUnsafeImport, n, "")
		return
	}
	ctx.State.AddDependency(source, false)
}

func unsafeInvocationMain(n jsast.Node, ctx *ProbeContext) {
	ctx.State.Warn(WarnUnsafeStmt, n, ctx.Env.ResolveCapability(calleeOf(n)).String())
}

func regexMain(n jsast.Node, ctx *ProbeContext) {
	var pattern string
	switch v := n.(type) {
	case *jsast.Literal:
		pattern = v.Regex.Pattern
	case *jsast.NewExpression:
		pattern = regExpArgPattern(v.Arguments, ctx)
	case *jsast.CallExpression:
		pattern = regExpArgPattern(v.Arguments, ctx)
	}
	if pattern == "" {
		return
	}
	if verdict := ctx.Analyzer.checkRegex(pattern); !verdict.Safe {
		ctx.State.Warn(WarnUnsafeRegex, n, pattern)
	}
}

func regExpArgPattern(args []jsast.Node, ctx *ProbeContext) string {
	if len(args) == 0 {
		return ""
	}
	res, ok := resolveExpr(args[0], ctx.Env)
	if !ok || res.Kind != ResolvedString {
		return ""
	}
	return res.Str
}

func functionDeclMain(n jsast.Node, ctx *ProbeContext) {
	fn := n.(*jsast.FunctionDeclaration)
	if fn.Name != "" {
		ctx.State.CountIdentifier(fn.Name, KindFunctionDeclaration)
		// The function value itself is untraceable; the name still shadows
		// whatever it would otherwise resolve to.
		ctx.Env.Declare(fn.Name, UnknownValue())
	}
}

func classDeclMain(n jsast.Node, ctx *ProbeContext) {
	cls := n.(*jsast.ClassDeclaration)
	if cls.Name != "" {
		ctx.State.CountIdentifier(cls.Name, KindClassDeclaration)
		ctx.Env.Declare(cls.Name, UnknownValue())
	}
}

func declaratorMain(n jsast.Node, ctx *ProbeContext) {
	decl := n.(*jsast.VariableDeclarator)
	ident, ok := decl.Name.(*jsast.Identifier)
	if !ok {
		// Destructuring patterns are not traced.
		return
	}
	ctx.State.CountIdentifier(ident.Name, KindVariableDeclarator)
	bindTracked(ident.Name, decl.Init, n, ctx, true)
}

func assignmentMain(n jsast.Node, ctx *ProbeContext) {
	assign := n.(*jsast.AssignmentExpression)
	ident, ok := assign.Left.(*jsast.Identifier)
	if !ok {
		return
	}
	ctx.State.CountIdentifier(ident.Name, KindAssignExpr)
	if assign.Operator != "=" {
		// Compound assignment mixes the old value in; the result is no
		// longer statically known.
		ctx.Env.Assign(ident.Name, UnknownValue())
		return
	}
	bindTracked(ident.Name, assign.Right, n, ctx, false)
}

// bindTracked resolves the right-hand side against the current environment
// and stores the folded result. Aliasing a protected capability to a new name
// emits unsafe-assign per assignment step.
func bindTracked(name string, init jsast.Node, site jsast.Node, ctx *ProbeContext, declare bool) {
	value := UnknownValue()
	if init != nil {
		if capability := ctx.Env.ResolveCapability(init); capability != CapNone {
			value = CapabilityValue(capability)
			if !isCanonicalName(name, capability) {
				ctx.State.Warn(WarnUnsafeAssign, site, name)
			}
		} else if res, ok := resolveExpr(init, ctx.Env); ok {
			value = bindingFromResolved(res)
		}
	}
	if declare {
		ctx.Env.Declare(name, value)
	} else {
		ctx.Env.Assign(name, value)
	}
}

// isCanonicalName reports whether name is the original global spelling of the
// capability, in which case re-binding it is not considered aliasing.
func isCanonicalName(name string, capability Capability) bool {
	switch capability {
	case CapRequire:
		return name == "require"
	case CapEval:
		return name == "eval"
	case CapFunction:
		return name == "Function"
	case CapGlobal:
		return name == "global" || name == "globalThis"
	case CapProcess:
		return name == "process"
	}
	return false
}

func bindingFromResolved(res Resolved) BindingValue {
	switch res.Kind {
	case ResolvedString:
		return StringValue(res.Str, res.Unsafe)
	case ResolvedArray:
		elems := make([]BindingValue, 0, len(res.Elems))
		for _, el := range res.Elems {
			if el.Kind != ResolvedString {
				return UnknownValue()
			}
			elems = append(elems, StringValue(el.Str, el.Unsafe))
		}
		return BindingValue{VKind: BindArray, Elems: elems, Unsafe: res.Unsafe}
	default:
		return UnknownValue()
	}
}

func propertyMain(n jsast.Node, ctx *ProbeContext) {
	prop := n.(*jsast.Property)
	if prop.KeyName != "" {
		ctx.State.CountIdentifier(prop.KeyName, KindProperty)
	}
}

func stringLiteralMain(n jsast.Node, ctx *ProbeContext) {
	lit := n.(*jsast.Literal)

	if decoded, ok := decodeHexLiteral(lit.StrValue); ok {
		ctx.State.Warn(WarnEncodedLiteral, n, decoded)
	}

	score, over := ctx.Analyzer.scoreString(lit.StrValue)
	if score > 0 {
		ctx.State.AddStringScore(score)
	}
	if over {
		ctx.State.WarnScore(WarnSuspiciousLiteral, n, truncateLiteral(lit.StrValue), score)
	}
}

// truncateLiteral keeps warning payloads readable for very long strings.
func truncateLiteral(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// joinSegments concatenates resolved array segments with no separator, the
// array-literal require pattern.
func joinSegments(elems []Resolved) (string, bool) {
	var b strings.Builder
	for _, el := range elems {
		if el.Kind != ResolvedString {
			return "", false
		}
		b.WriteString(el.Str)
	}
	return b.String(), true
}
