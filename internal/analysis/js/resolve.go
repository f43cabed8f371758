package js

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/lancetsec/lancet/internal/jsast"
)

// ResolvedKind tags the variant of a Resolved value.
type ResolvedKind uint8

const (
	ResolvedString ResolvedKind = iota
	ResolvedNumber
	ResolvedArray
)

// Resolved is the Literal Resolver's successful outcome: the statically
// computed value of an expression plus whether computing it required unsafe
// reasoning (hex decoding, Buffer reversal, array flattening).
type Resolved struct {
	Kind   ResolvedKind
	Str    string
	Num    float64
	Elems  []Resolved
	Unsafe bool
}

// resolveExpr attempts to statically compute the runtime value of an
// expression against the current binding environment. It never panics; the
// second return value is false when the expression is unresolvable, and the
// caller decides which warning that degrades to.
func resolveExpr(n jsast.Node, env *Environment) (Resolved, bool) {
	switch v := n.(type) {
	case *jsast.Literal:
		switch {
		case v.IsString:
			return Resolved{Kind: ResolvedString, Str: v.StrValue}, true
		case v.IsNumber:
			return Resolved{Kind: ResolvedNumber, Num: v.NumValue}, true
		}
		return Resolved{}, false

	case *jsast.TemplateLiteral:
		return resolveTemplate(v, env)

	case *jsast.BinaryExpression:
		if v.Operator != "+" {
			return Resolved{}, false
		}
		left, ok := resolveExpr(v.Left, env)
		if !ok {
			return Resolved{}, false
		}
		right, ok := resolveExpr(v.Right, env)
		if !ok {
			return Resolved{}, false
		}
		// Both sides must resolve; no partial concatenation.
		if left.Kind == ResolvedString && right.Kind == ResolvedString {
			return Resolved{
				Kind:   ResolvedString,
				Str:    left.Str + right.Str,
				Unsafe: left.Unsafe || right.Unsafe,
			}, true
		}
		if left.Kind == ResolvedNumber && right.Kind == ResolvedNumber {
			return Resolved{Kind: ResolvedNumber, Num: left.Num + right.Num}, true
		}
		return Resolved{}, false

	case *jsast.ArrayExpression:
		return resolveArray(v, env)

	case *jsast.Identifier:
		bv, ok := env.Lookup(v.Name)
		if !ok {
			return Resolved{}, false
		}
		switch bv.VKind {
		case BindString:
			return Resolved{Kind: ResolvedString, Str: bv.Str, Unsafe: bv.Unsafe}, true
		case BindArray:
			elems := make([]Resolved, 0, len(bv.Elems))
			for _, el := range bv.Elems {
				if el.VKind != BindString {
					return Resolved{}, false
				}
				elems = append(elems, Resolved{Kind: ResolvedString, Str: el.Str, Unsafe: el.Unsafe})
			}
			return Resolved{Kind: ResolvedArray, Elems: elems, Unsafe: bv.Unsafe}, true
		}
		// CapabilityAlias and Unknown bindings are unresolvable as values.
		return Resolved{}, false

	case *jsast.CallExpression:
		return resolveCall(v, env)

	default:
		return Resolved{}, false
	}
}

// resolveTemplate computes a template literal when every interpolation
// resolves to a string or number.
func resolveTemplate(tpl *jsast.TemplateLiteral, env *Environment) (Resolved, bool) {
	if len(tpl.Expressions) == 0 {
		return Resolved{Kind: ResolvedString, Str: strings.Join(tpl.Quasis, "")}, true
	}
	var b strings.Builder
	unsafe := false
	for i, quasi := range tpl.Quasis {
		b.WriteString(quasi)
		if i < len(tpl.Expressions) {
			part, ok := resolveExpr(tpl.Expressions[i], env)
			if !ok || part.Kind != ResolvedString {
				return Resolved{}, false
			}
			b.WriteString(part.Str)
			unsafe = unsafe || part.Unsafe
		}
	}
	return Resolved{Kind: ResolvedString, Str: b.String(), Unsafe: unsafe}, true
}

// resolveArray resolves every element. When all elements are small integer
// code points the array collapses into the decoded string (the
// codepoint-array obfuscation pattern). Otherwise string elements are kept as
// an array value for the caller to join.
func resolveArray(arr *jsast.ArrayExpression, env *Environment) (Resolved, bool) {
	elems := make([]Resolved, 0, len(arr.Elements))
	allCodepoints := len(arr.Elements) > 0
	for _, el := range arr.Elements {
		if el == nil {
			return Resolved{}, false
		}
		res, ok := resolveExpr(el, env)
		if !ok {
			return Resolved{}, false
		}
		if res.Kind != ResolvedNumber || res.Num < 0 || res.Num > unicode.MaxRune || res.Num != float64(int64(res.Num)) {
			allCodepoints = false
		}
		elems = append(elems, res)
	}

	if allCodepoints {
		var b strings.Builder
		for _, el := range elems {
			b.WriteRune(rune(int64(el.Num)))
		}
		return Resolved{Kind: ResolvedString, Str: b.String(), Unsafe: true}, true
	}

	for _, el := range elems {
		if el.Kind != ResolvedString {
			return Resolved{}, false
		}
	}
	return Resolved{Kind: ResolvedArray, Elems: elems, Unsafe: true}, true
}

// resolveCall recognizes the small set of decodable call shapes:
// Buffer.from(x).toString(), Buffer.from(x, "hex").toString(),
// String.fromCharCode(...), and <array>.join(sep). Every other call is
// unresolvable; function bodies are never evaluated.
func resolveCall(call *jsast.CallExpression, env *Environment) (Resolved, bool) {
	member, ok := call.Callee.(*jsast.MemberExpression)
	if !ok {
		return Resolved{}, false
	}

	switch member.PropertyName {
	case "toString":
		if inner, ok := member.Object.(*jsast.CallExpression); ok {
			return resolveBufferFrom(inner, env)
		}

	case "fromCharCode":
		if obj, ok := member.Object.(*jsast.Identifier); ok && obj.Name == "String" {
			var b strings.Builder
			for _, arg := range call.Arguments {
				res, ok := resolveExpr(arg, env)
				if !ok || res.Kind != ResolvedNumber {
					return Resolved{}, false
				}
				b.WriteRune(rune(int64(res.Num)))
			}
			return Resolved{Kind: ResolvedString, Str: b.String(), Unsafe: true}, true
		}

	case "join":
		base, ok := resolveExpr(member.Object, env)
		if !ok || base.Kind != ResolvedArray {
			return Resolved{}, false
		}
		sep := ","
		if len(call.Arguments) > 0 {
			res, ok := resolveExpr(call.Arguments[0], env)
			if !ok || res.Kind != ResolvedString {
				return Resolved{}, false
			}
			sep = res.Str
		}
		parts := make([]string, 0, len(base.Elems))
		for _, el := range base.Elems {
			if el.Kind != ResolvedString {
				return Resolved{}, false
			}
			parts = append(parts, el.Str)
		}
		return Resolved{Kind: ResolvedString, Str: strings.Join(parts, sep), Unsafe: true}, true
	}

	return Resolved{}, false
}

// resolveBufferFrom reverses Buffer.from(<hex-string|byte-array>[, "hex"])
// into its UTF-8 representation.
func resolveBufferFrom(call *jsast.CallExpression, env *Environment) (Resolved, bool) {
	member, ok := call.Callee.(*jsast.MemberExpression)
	if !ok || member.PropertyName != "from" {
		return Resolved{}, false
	}
	obj, ok := member.Object.(*jsast.Identifier)
	if !ok || obj.Name != "Buffer" {
		return Resolved{}, false
	}
	if len(call.Arguments) == 0 {
		return Resolved{}, false
	}

	arg, ok := resolveExpr(call.Arguments[0], env)
	if !ok {
		return Resolved{}, false
	}

	hexEncoding := false
	if len(call.Arguments) > 1 {
		enc, ok := resolveExpr(call.Arguments[1], env)
		if !ok || enc.Kind != ResolvedString {
			return Resolved{}, false
		}
		hexEncoding = enc.Str == "hex"
	}

	switch arg.Kind {
	case ResolvedString:
		if hexEncoding || isHexString(arg.Str) {
			decoded, err := hex.DecodeString(arg.Str)
			if err != nil {
				return Resolved{}, false
			}
			return Resolved{Kind: ResolvedString, Str: string(decoded), Unsafe: true}, true
		}
		return Resolved{Kind: ResolvedString, Str: arg.Str, Unsafe: true}, true

	case ResolvedArray:
		// Buffer.from([104, 116, ...]) — but resolveArray already collapses
		// all-integer arrays into a string, so a surviving array here holds
		// strings and cannot be a byte buffer.
		return Resolved{}, false

	default:
		return Resolved{}, false
	}
}

// isHexString reports whether s is plausibly a hex-encoded payload: even
// length, at least eight hex digits.
func isHexString(s string) bool {
	if len(s) < 8 || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// decodeHexLiteral opportunistically decodes a hex-looking string into
// printable text. It returns the decoded form and whether decoding applies.
func decodeHexLiteral(s string) (string, bool) {
	if !isHexString(s) {
		return "", false
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return "", false
	}
	text := string(decoded)
	for _, r := range text {
		if r == utf8RuneError || (!unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			return "", false
		}
	}
	return text, true
}

const utf8RuneError = '�'
