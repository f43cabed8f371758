// Package js implements the single-pass static analysis engine that recovers
// a JavaScript file's runtime dependency graph and flags code patterns
// indicative of obfuscation or malicious intent.
//
// The engine walks the jsast tree exactly once. An ordered set of probes is
// dispatched at every node; probes mutate only the shared analysis state and
// binding environment, so two concurrent analyses never share anything.
package js

import "fmt"

// WarningKind is a stable identifier consumers match on.
type WarningKind string

const (
	// WarnUnsafeImport flags a require/import whose target could not be
	// statically resolved to a literal string.
	WarnUnsafeImport WarningKind = "unsafe-import"
	// WarnUnsafeStmt flags an eval/Function invocation.
	WarnUnsafeStmt WarningKind = "unsafe-stmt"
	// WarnUnsafeAssign flags aliasing of a protected global capability to a
	// new variable name.
	WarnUnsafeAssign WarningKind = "unsafe-assign"
	// WarnUnsafeRegex flags a regular expression vulnerable to catastrophic
	// backtracking.
	WarnUnsafeRegex WarningKind = "unsafe-regex"
	// WarnEncodedLiteral flags a hex-encoded string literal that decodes to
	// printable text.
	WarnEncodedLiteral WarningKind = "encoded-literal"
	// WarnSuspiciousLiteral flags a string literal whose heuristic score
	// crossed the configured threshold.
	WarnSuspiciousLiteral WarningKind = "suspicious-literal"
	// WarnShortIdentifiers flags a file whose declared identifiers look
	// machine-generated or minified.
	WarnShortIdentifiers WarningKind = "short-identifiers"
)

// Location points at the source position a warning refers to.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Warning is one emitted finding. The sequence is append-only; duplicates of
// the same kind and location are permitted.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Location Location    `json:"location"`
	// Value carries the offending value when one exists (alias name, decoded
	// literal, regex pattern).
	Value string `json:"value,omitempty"`
	// Score carries the heuristic score for suspicious-literal and
	// short-identifiers warnings.
	Score float64 `json:"score,omitempty"`
}
