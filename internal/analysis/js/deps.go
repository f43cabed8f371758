package js

import "github.com/lancetsec/lancet/internal/jsast"

// requireMain implements the dependency resolution protocol for a call whose
// callee folded to the require capability. The single argument of interest is
// resolved through the Literal Resolver; anything unresolvable or empty
// degrades to an unsafe-import warning and records nothing.
func requireMain(n jsast.Node, ctx *ProbeContext) {
	call := n.(*jsast.CallExpression)

	if len(call.Arguments) == 0 {
		ctx.State.Warn(WarnUnsafeImport, call, "")
		return
	}
	arg := call.Arguments[0]
	if _, spread := arg.(*jsast.SpreadElement); spread {
		ctx.State.Warn(WarnUnsafeImport, call, "")
		return
	}

	res, ok := resolveExpr(arg, ctx.Env)
	if !ok {
		// Includes calls to user functions: the resolver never evaluates
		// function bodies, so require(evil()) is always unresolvable.
		ctx.State.Warn(WarnUnsafeImport, call, "")
		return
	}

	switch res.Kind {
	case ResolvedString:
		specifier := res.Str
		unsafe := res.Unsafe
		// A hex-looking argument is opportunistically decoded; the string
		// literal probe reports the encoded-literal warning at the literal
		// itself.
		if decoded, hexed := decodeHexLiteral(specifier); hexed {
			specifier = decoded
			unsafe = true
		}
		if specifier == "" {
			ctx.State.Warn(WarnUnsafeImport, call, "")
			return
		}
		ctx.State.AddDependency(specifier, unsafe)

	case ResolvedArray:
		// Array-of-path-segments: concatenate with no separator and record
		// as one dependency.
		specifier, joined := joinSegments(res.Elems)
		if !joined || specifier == "" {
			ctx.State.Warn(WarnUnsafeImport, call, "")
			return
		}
		ctx.State.AddDependency(specifier, true)

	default:
		ctx.State.Warn(WarnUnsafeImport, call, "")
	}
}

// detectOneLineRequire reports whether the program is exactly the
// `module.exports = require(<literal>)` re-export shape.
func detectOneLineRequire(program *jsast.Program) bool {
	if len(program.Body) != 1 {
		return false
	}
	stmt, ok := program.Body[0].(*jsast.ExpressionStatement)
	if !ok {
		return false
	}
	assign, ok := stmt.Expression.(*jsast.AssignmentExpression)
	if !ok || assign.Operator != "=" {
		return false
	}
	member, ok := assign.Left.(*jsast.MemberExpression)
	if !ok || member.PropertyName != "exports" {
		return false
	}
	obj, ok := member.Object.(*jsast.Identifier)
	if !ok || obj.Name != "module" {
		return false
	}
	call, ok := assign.Right.(*jsast.CallExpression)
	if !ok {
		return false
	}
	callee, ok := call.Callee.(*jsast.Identifier)
	if !ok || callee.Name != "require" {
		return false
	}
	if len(call.Arguments) != 1 {
		return false
	}
	lit, ok := call.Arguments[0].(*jsast.Literal)
	return ok && lit.IsString && lit.StrValue != ""
}
