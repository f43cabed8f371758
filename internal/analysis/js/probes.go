package js

import (
	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/jsast"
)

// ProbeContext is the shared state handed to every probe action: the mutable
// analysis accumulator and the binding environment. Probes never touch the
// tree itself, and must not hold state outside the context, so dispatch order
// is the only source of determinism.
type ProbeContext struct {
	State    *State
	Env      *Environment
	Analyzer *Analyzer
	Logger   *zap.Logger
}

// Probe is one independent detection rule matched against tree nodes during
// the single walk.
type Probe struct {
	Name string
	// Validate entries are ANDed; the probe applies only when all pass.
	Validate []func(jsast.Node, *ProbeContext) bool
	// Main runs when the probe applies. Mutation is confined to the context.
	Main func(jsast.Node, *ProbeContext)
	// BreakOnMatch suppresses later probes for the same node, for rules whose
	// match is definitive and mutually exclusive with the rest.
	BreakOnMatch bool
}

func (p Probe) matches(n jsast.Node, ctx *ProbeContext) bool {
	for _, validate := range p.Validate {
		if !validate(n, ctx) {
			return false
		}
	}
	return true
}

// walker drives the single depth-first pass, dispatching the probe list at
// every node and handling the structural bookkeeping probes cannot: lexical
// scope entry/exit and the try-nesting counter.
type walker struct {
	probes []Probe
	ctx    *ProbeContext
}

func (w *walker) walk(n jsast.Node) {
	if n == nil {
		return
	}

	w.dispatch(n)

	switch v := n.(type) {
	case *jsast.TryStatement:
		// Only the try block itself contributes to the nesting counter;
		// handlers and finalizers run outside the guarded region.
		w.ctx.State.EnterTry()
		w.walk(v.Block)
		w.ctx.State.LeaveTry()
		w.walk(v.Handler)
		w.walk(v.Finalizer)
		return

	case *jsast.FunctionDeclaration:
		w.walkFunction(v.Params, v.Body)
		return
	case *jsast.FunctionExpression:
		w.walkFunction(v.Params, v.Body)
		return
	case *jsast.ArrowFunctionExpression:
		w.walkFunction(v.Params, v.Body)
		return
	case *jsast.CatchClause:
		w.walkFunction(paramList(v.Param), v.Body)
		return
	case *jsast.BlockStatement:
		w.walkScoped(v.Body)
		return
	}

	for _, child := range jsast.Children(n) {
		w.walk(child)
	}
}

func (w *walker) walkScoped(children []jsast.Node) {
	w.ctx.Env.PushScope()
	for _, child := range children {
		w.walk(child)
	}
	w.ctx.Env.PopScope()
}

// walkFunction enters a fresh scope with the parameter names bound as
// untraceable values, so a parameter shadows any outer binding of the same
// name, including the implicit capability globals.
func (w *walker) walkFunction(params []jsast.Node, body jsast.Node) {
	w.ctx.Env.PushScope()
	for _, param := range params {
		w.declareParamNames(param)
		w.walk(param)
	}
	w.walk(body)
	w.ctx.Env.PopScope()
}

// declareParamNames binds every identifier inside a parameter pattern,
// covering plain names as well as defaults, rest and destructuring forms.
func (w *walker) declareParamNames(param jsast.Node) {
	switch p := param.(type) {
	case nil:
	case *jsast.Identifier:
		w.ctx.Env.Declare(p.Name, UnknownValue())
	default:
		for _, child := range jsast.Children(param) {
			w.declareParamNames(child)
		}
	}
}

func paramList(param jsast.Node) []jsast.Node {
	if param == nil {
		return nil
	}
	return []jsast.Node{param}
}

func (w *walker) dispatch(n jsast.Node) {
	for _, p := range w.probes {
		if !p.matches(n, w.ctx) {
			continue
		}
		p.Main(n, w.ctx)
		if p.BreakOnMatch {
			return
		}
	}
}

// isKind builds a predicate restricting a probe to one node kind.
func isKind(kind jsast.Kind) func(jsast.Node, *ProbeContext) bool {
	return func(n jsast.Node, _ *ProbeContext) bool {
		return n.Kind() == kind
	}
}
