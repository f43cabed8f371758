package js

import "github.com/lancetsec/lancet/internal/jsast"

// Capability identifies a protected global an identifier may alias.
type Capability uint8

const (
	CapNone Capability = iota
	CapRequire
	CapEval
	CapFunction
	CapGlobal
	CapProcess
	CapMainModule
)

func (c Capability) String() string {
	switch c {
	case CapRequire:
		return "require"
	case CapEval:
		return "eval"
	case CapFunction:
		return "Function"
	case CapGlobal:
		return "global"
	case CapProcess:
		return "process"
	case CapMainModule:
		return "mainModule"
	default:
		return "none"
	}
}

// BindingKind tags the variant held by a BindingValue.
type BindingKind uint8

const (
	BindUnknown BindingKind = iota
	BindString
	BindArray
	BindCapability
)

// BindingValue is what a traced identifier currently denotes. A name holds
// exactly one variant at a time; the latest assignment wins.
type BindingValue struct {
	Kind Capability

	VKind BindingKind
	Str   string
	Elems []BindingValue
	// Unsafe records that producing the value required decoding or
	// flattening, so uses of it inherit the unsafe marker.
	Unsafe bool
}

// UnknownValue is the binding for identifiers whose value cannot be traced.
func UnknownValue() BindingValue {
	return BindingValue{VKind: BindUnknown}
}

// StringValue binds a statically known string.
func StringValue(s string, unsafe bool) BindingValue {
	return BindingValue{VKind: BindString, Str: s, Unsafe: unsafe}
}

// CapabilityValue binds a protected-global alias.
func CapabilityValue(c Capability) BindingValue {
	return BindingValue{VKind: BindCapability, Kind: c}
}

// Environment maps identifier names to binding values across a stack of
// lexical scopes. Lookups fall through to outer scopes; assignment overwrites
// in the innermost scope declaring the name, or creates a module-scope
// binding when the name was never declared, matching loose JS semantics.
type Environment struct {
	scopes []map[string]BindingValue
}

// NewEnvironment creates the module-scope environment with the implicit
// protected-global bindings.
func NewEnvironment() *Environment {
	module := map[string]BindingValue{
		"require":    CapabilityValue(CapRequire),
		"eval":       CapabilityValue(CapEval),
		"Function":   CapabilityValue(CapFunction),
		"global":     CapabilityValue(CapGlobal),
		"globalThis": CapabilityValue(CapGlobal),
		"process":    CapabilityValue(CapProcess),
	}
	return &Environment{scopes: []map[string]BindingValue{module}}
}

// PushScope enters a function or block scope.
func (e *Environment) PushScope() {
	e.scopes = append(e.scopes, make(map[string]BindingValue))
}

// PopScope leaves the innermost scope. The module scope is never popped.
func (e *Environment) PopScope() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// Declare creates a binding in the innermost scope.
func (e *Environment) Declare(name string, v BindingValue) {
	e.scopes[len(e.scopes)-1][name] = v
}

// Assign overwrites the innermost binding of name, falling back to a fresh
// module-scope binding for undeclared names.
func (e *Environment) Assign(name string, v BindingValue) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][name]; ok {
			e.scopes[i][name] = v
			return
		}
	}
	e.scopes[0][name] = v
}

// Lookup resolves name through the scope chain.
func (e *Environment) Lookup(name string) (BindingValue, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}
	return BindingValue{}, false
}

// ResolveCapability resolves an expression to the protected-global capability
// it denotes, folding member chains structurally: global.process yields
// Process, <Process>.mainModule yields MainModule, <MainModule>.require
// yields Require. Folding works through intermediate variable aliases because
// each step re-resolves against the current environment.
func (e *Environment) ResolveCapability(n jsast.Node) Capability {
	switch v := n.(type) {
	case *jsast.Identifier:
		if bv, ok := e.Lookup(v.Name); ok && bv.VKind == BindCapability {
			return bv.Kind
		}
	case *jsast.MemberExpression:
		return foldCapability(e.ResolveCapability(v.Object), v.PropertyName)
	}
	return CapNone
}

// foldCapability applies one property-access step to a capability.
func foldCapability(base Capability, property string) Capability {
	switch base {
	case CapGlobal:
		switch property {
		case "process":
			return CapProcess
		case "require":
			return CapRequire
		case "eval":
			return CapEval
		case "Function":
			return CapFunction
		case "global", "globalThis":
			return CapGlobal
		}
	case CapProcess:
		if property == "mainModule" {
			return CapMainModule
		}
	case CapMainModule:
		if property == "require" {
			return CapRequire
		}
	}
	return CapNone
}
