package js

import "github.com/lancetsec/lancet/internal/jsast"

// DependencyRecord describes one discovered runtime dependency.
type DependencyRecord struct {
	Specifier string `json:"specifier"`
	// Unsafe is true when resolving the specifier required reasoning beyond
	// plain literals: hex decoding, Buffer reversal or array flattening.
	Unsafe bool `json:"unsafe"`
	// InTry is true when at least one occurrence was lexically inside a try
	// block.
	InTry bool `json:"inTry"`
	// Builtin marks Node.js core modules.
	Builtin bool `json:"builtin"`
}

// IdentifierEntry records one named declaration for the minification
// heuristic.
type IdentifierEntry struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Identifier declaration kinds tallied in IDTypes.
const (
	KindVariableDeclarator  = "variableDeclarator"
	KindFunctionDeclaration = "functionDeclaration"
	KindClassDeclaration    = "classDeclaration"
	KindAssignExpr          = "assignExpr"
	KindProperty            = "property"
)

// State is the mutable accumulator threaded through a single walk. It is
// created fresh per analysis run and never shared between runs.
type State struct {
	deps     map[string]*DependencyRecord
	depOrder []string

	warnings    []Warning
	idTypes     map[string]int
	identifiers []IdentifierEntry

	isOneLineRequire bool
	stringScore      float64
	tryDepth         int

	file string
}

func newState(file string) *State {
	return &State{
		deps:    make(map[string]*DependencyRecord),
		idTypes: make(map[string]int),
		file:    file,
	}
}

// AddDependency records a specifier, preserving insertion order. Repeated
// specifiers are merged: unsafe and inTry are ORed across occurrences.
func (s *State) AddDependency(specifier string, unsafe bool) {
	inTry := s.tryDepth > 0
	if rec, ok := s.deps[specifier]; ok {
		rec.Unsafe = rec.Unsafe || unsafe
		rec.InTry = rec.InTry || inTry
		return
	}
	s.deps[specifier] = &DependencyRecord{
		Specifier: specifier,
		Unsafe:    unsafe,
		InTry:     inTry,
		Builtin:   IsNodeBuiltin(specifier),
	}
	s.depOrder = append(s.depOrder, specifier)
}

// Dependencies returns the records in insertion order.
func (s *State) Dependencies() []DependencyRecord {
	out := make([]DependencyRecord, 0, len(s.depOrder))
	for _, key := range s.depOrder {
		out = append(out, *s.deps[key])
	}
	return out
}

// Warn appends a warning anchored at node's span.
func (s *State) Warn(kind WarningKind, node jsast.Node, value string) {
	s.WarnScore(kind, node, value, 0)
}

// WarnScore appends a warning carrying a heuristic score payload.
func (s *State) WarnScore(kind WarningKind, node jsast.Node, value string, score float64) {
	loc := Location{File: s.file}
	if node != nil {
		span := node.Span()
		loc.Line = span.Line
		loc.Column = span.Column
	}
	s.warnings = append(s.warnings, Warning{
		Kind:     kind,
		Location: loc,
		Value:    value,
		Score:    score,
	})
}

// CountIdentifier tallies a named declaration under its kind.
func (s *State) CountIdentifier(name, kind string) {
	s.idTypes[kind]++
	s.identifiers = append(s.identifiers, IdentifierEntry{Name: name, Kind: kind})
}

// AddStringScore accumulates a literal's heuristic score.
func (s *State) AddStringScore(score float64) {
	s.stringScore += score
}

// EnterTry and LeaveTry bracket the walk of a try block body. The counter is
// the sole source of the InTry dependency flag.
func (s *State) EnterTry() { s.tryDepth++ }
func (s *State) LeaveTry() { s.tryDepth-- }

// InTry reports whether the walk is currently inside a try block.
func (s *State) InTry() bool { return s.tryDepth > 0 }
