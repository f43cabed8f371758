package js

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/jsast"
	"github.com/lancetsec/lancet/internal/jsparser"
)

func analyze(t *testing.T, source string) *Report {
	t.Helper()
	report, err := New(zap.NewNop(), Options{}).Analyze(context.Background(), "test.js", []byte(source))
	require.NoError(t, err)
	return report
}

func depNames(report *Report) []string {
	names := make([]string, 0, len(report.Dependencies))
	for _, dep := range report.Dependencies {
		names = append(names, dep.Specifier)
	}
	return names
}

func warningsOf(report *Report, kind WarningKind) []Warning {
	var out []Warning
	for _, w := range report.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

func TestAnalyzeParseError(t *testing.T) {
	_, err := New(zap.NewNop(), Options{}).Analyze(context.Background(), "bad.js", []byte("function ("))
	require.Error(t, err)
	assert.ErrorIs(t, err, jsparser.ErrParse)
}

func TestAnalyzePlainRequires(t *testing.T) {
	report := analyze(t, `
		const http = require("http");
		const tool = require("left-pad");
		require("http");
	`)

	require.Len(t, report.Dependencies, 2)
	assert.Equal(t, []string{"http", "left-pad"}, depNames(report))
	assert.True(t, report.Dependencies[0].Builtin)
	assert.False(t, report.Dependencies[0].Unsafe)
	assert.False(t, report.Dependencies[1].Builtin)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeImportStatements(t *testing.T) {
	report := analyze(t, `
		import fs from "fs";
		import { join } from "path";
		export { helper } from "./helper.js";
	`)
	assert.Equal(t, []string{"fs", "path", "./helper.js"}, depNames(report))
}

func TestAnalyzeRequireResolve(t *testing.T) {
	report := analyze(t, `require.resolve("chalk");`)
	assert.Equal(t, []string{"chalk"}, depNames(report))
}

func TestAnalyzeTryBlockMarksInTry(t *testing.T) {
	report := analyze(t, `
		try {
			require("optional-dep");
		} catch (err) {
			require("fallback-dep");
		}
		require("always-dep");
	`)

	require.Len(t, report.Dependencies, 3)
	byName := map[string]DependencyRecord{}
	for _, dep := range report.Dependencies {
		byName[dep.Specifier] = dep
	}
	assert.True(t, byName["optional-dep"].InTry)
	// The handler runs outside the guarded region.
	assert.False(t, byName["fallback-dep"].InTry)
	assert.False(t, byName["always-dep"].InTry)
}

func TestAnalyzeDuplicateRequireMergesFlags(t *testing.T) {
	report := analyze(t, `
		require("dep");
		try { require("dep"); } catch (e) {}
	`)

	require.Len(t, report.Dependencies, 1)
	assert.True(t, report.Dependencies[0].InTry)
	assert.False(t, report.Dependencies[0].Unsafe)
}

func TestAnalyzeAliasedRequire(t *testing.T) {
	report := analyze(t, `
		const r = require;
		r("chalk");
	`)

	assert.Equal(t, []string{"chalk"}, depNames(report))
	aliases := warningsOf(report, WarnUnsafeAssign)
	require.Len(t, aliases, 1)
	assert.Equal(t, "r", aliases[0].Value)
}

func TestAnalyzeAliasChainWarnsPerStep(t *testing.T) {
	report := analyze(t, `
		const a = require;
		const b = a;
		const c = b;
		c("minimist");
	`)

	assert.Equal(t, []string{"minimist"}, depNames(report))
	assert.Len(t, warningsOf(report, WarnUnsafeAssign), 3)
}

func TestAnalyzeMainModuleRequire(t *testing.T) {
	report := analyze(t, `process.mainModule.require("fs");`)
	require.Len(t, report.Dependencies, 1)
	assert.Equal(t, "fs", report.Dependencies[0].Specifier)
	assert.True(t, report.Dependencies[0].Builtin)
}

func TestAnalyzeGlobalProcessChain(t *testing.T) {
	report := analyze(t, `
		const p = globalThis.process;
		p.mainModule.require("os");
	`)
	assert.Equal(t, []string{"os"}, depNames(report))
	// Binding process under a fresh name is an aliasing step.
	assert.Len(t, warningsOf(report, WarnUnsafeAssign), 1)
}

func TestAnalyzeEvalInvocation(t *testing.T) {
	report := analyze(t, `eval("this");`)
	stmts := warningsOf(report, WarnUnsafeStmt)
	require.Len(t, stmts, 1)
	assert.Equal(t, "eval", stmts[0].Value)
}

func TestAnalyzeFunctionConstructor(t *testing.T) {
	report := analyze(t, `new Function("return this")();`)
	stmts := warningsOf(report, WarnUnsafeStmt)
	require.Len(t, stmts, 1)
	assert.Equal(t, "Function", stmts[0].Value)
}

func TestAnalyzeAliasedEval(t *testing.T) {
	report := analyze(t, `
		const run = eval;
		run("process.exit(1)");
	`)
	assert.Len(t, warningsOf(report, WarnUnsafeAssign), 1)
	assert.Len(t, warningsOf(report, WarnUnsafeStmt), 1)
}

func TestAnalyzeRequireConcatenation(t *testing.T) {
	report := analyze(t, `
		const prefix = "da";
		require(prefix + "taset");
	`)
	require.Len(t, report.Dependencies, 1)
	assert.Equal(t, "dataset", report.Dependencies[0].Specifier)
	assert.False(t, report.Dependencies[0].Unsafe)
}

func TestAnalyzeRequireTemplate(t *testing.T) {
	report := analyze(t, "const name = \"pad\";\nrequire(`left-${name}`);")
	assert.Equal(t, []string{"left-pad"}, depNames(report))
}

func TestAnalyzeRequireHexLiteral(t *testing.T) {
	// "68747470" decodes to "http".
	report := analyze(t, `require("68747470");`)

	require.Len(t, report.Dependencies, 1)
	assert.Equal(t, "http", report.Dependencies[0].Specifier)
	assert.True(t, report.Dependencies[0].Unsafe)

	encoded := warningsOf(report, WarnEncodedLiteral)
	require.Len(t, encoded, 1)
	assert.Equal(t, "http", encoded[0].Value)
}

func TestAnalyzeRequireCodepointArray(t *testing.T) {
	report := analyze(t, `require(String.fromCharCode(104, 116, 116, 112));`)
	require.Len(t, report.Dependencies, 1)
	assert.Equal(t, "http", report.Dependencies[0].Specifier)
	assert.True(t, report.Dependencies[0].Unsafe)
}

func TestAnalyzeRequireBufferFromHex(t *testing.T) {
	report := analyze(t, `require(Buffer.from("68747470", "hex").toString());`)
	require.Len(t, report.Dependencies, 1)
	assert.Equal(t, "http", report.Dependencies[0].Specifier)
	assert.True(t, report.Dependencies[0].Unsafe)
}

func TestAnalyzeRequireArraySegments(t *testing.T) {
	report := analyze(t, `require(["chalk"].join(""));`)
	require.Len(t, report.Dependencies, 1)
	assert.Equal(t, "chalk", report.Dependencies[0].Specifier)
	assert.True(t, report.Dependencies[0].Unsafe)
}

func TestAnalyzeRequireArrayLiteral(t *testing.T) {
	report := analyze(t, `require(["ch", "alk"]);`)
	require.Len(t, report.Dependencies, 1)
	assert.Equal(t, "chalk", report.Dependencies[0].Specifier)
	assert.True(t, report.Dependencies[0].Unsafe)
}

func TestAnalyzeRequireInSubscriptIndex(t *testing.T) {
	report := analyze(t, `cache[require("hidden-dep")] = 1;`)
	assert.Equal(t, []string{"hidden-dep"}, depNames(report))
}

func TestAnalyzeRequireInComputedKey(t *testing.T) {
	report := analyze(t, `const table = { [require("key-dep")]: 1 };`)
	assert.Equal(t, []string{"key-dep"}, depNames(report))
}

func TestAnalyzeRequireUnresolvable(t *testing.T) {
	cases := map[string]string{
		"no arguments":       `require();`,
		"spread argument":    `require(...args);`,
		"function call":      `require(evil());`,
		"unknown identifier": `require(somewhere);`,
		"empty string":       `require("");`,
		"empty segments":     `require(["", ""]);`,
	}
	for name, source := range cases {
		t.Run(name, func(t *testing.T) {
			report := analyze(t, source)
			assert.Empty(t, report.Dependencies)
			assert.Len(t, warningsOf(report, WarnUnsafeImport), 1)
		})
	}
}

func TestAnalyzeOneLineRequire(t *testing.T) {
	report := analyze(t, `module.exports = require("./lib/core.js");`)
	assert.True(t, report.IsOneLineRequire)
	assert.Equal(t, []string{"./lib/core.js"}, depNames(report))

	report = analyze(t, "require(\"a\");\nrequire(\"b\");")
	assert.False(t, report.IsOneLineRequire)
}

func TestAnalyzeFunctionScopeShadowing(t *testing.T) {
	report := analyze(t, `
		function wrapper(require) {
			require("not-a-real-dep");
		}
	`)
	// The parameter shadows the global; the call resolves to nothing.
	assert.Empty(t, report.Dependencies)
}

func TestAnalyzeUnsafeRegexLiteral(t *testing.T) {
	report := analyze(t, `const re = /(a+)+$/;`)
	unsafe := warningsOf(report, WarnUnsafeRegex)
	require.Len(t, unsafe, 1)
	assert.Equal(t, "(a+)+$", unsafe[0].Value)
}

func TestAnalyzeUnsafeRegexConstructor(t *testing.T) {
	report := analyze(t, `new RegExp("(x+|y)*z");`)
	assert.Len(t, warningsOf(report, WarnUnsafeRegex), 1)
}

func TestAnalyzeSafeRegexSilent(t *testing.T) {
	report := analyze(t, `const re = /^[a-z]+@[a-z]+$/;`)
	assert.Empty(t, warningsOf(report, WarnUnsafeRegex))
}

func TestAnalyzeSuspiciousLiteral(t *testing.T) {
	// High-entropy blob, well past the default length floor.
	blob := "dBoLWouldntYouLikeToKnow0x1F4A9zQ3vX8pR2mK9jW5tY7u"
	report := analyze(t, `const payload = "`+blob+`";`)

	suspicious := warningsOf(report, WarnSuspiciousLiteral)
	require.Len(t, suspicious, 1)
	assert.Greater(t, suspicious[0].Score, 0.0)
	assert.Greater(t, report.StringScore, 0.0)
}

func TestAnalyzeLowEntropyLiteralSilent(t *testing.T) {
	report := analyze(t, `const msg = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa";`)
	assert.Empty(t, warningsOf(report, WarnSuspiciousLiteral))
}

func TestAnalyzeShortIdentifiers(t *testing.T) {
	var b strings.Builder
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		b.WriteString("var " + name + " = 1;\n")
	}
	report := analyze(t, b.String())

	short := warningsOf(report, WarnShortIdentifiers)
	require.Len(t, short, 1)
	assert.Greater(t, short[0].Score, 0.0)
	assert.Equal(t, 8, report.IDTypes[KindVariableDeclarator])
}

func TestAnalyzeMinifiedBundleNotFlagged(t *testing.T) {
	var b strings.Builder
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		b.WriteString("var " + name + " = 1;\n")
	}
	b.WriteString("var padding = \"" + strings.Repeat("x", 500) + "\";\n")
	b.WriteString("//# sourceMappingURL=bundle.js.map\n")
	report := analyze(t, b.String())

	assert.Empty(t, warningsOf(report, WarnShortIdentifiers))
}

func TestAnalyzeDescriptiveIdentifiersSilent(t *testing.T) {
	report := analyze(t, `
		var firstValue = 1;
		var secondValue = 2;
		var thirdValue = 3;
		var fourthValue = 4;
		var fifthValue = 5;
	`)
	assert.Empty(t, warningsOf(report, WarnShortIdentifiers))
}

func TestAnalyzeIdentifierTally(t *testing.T) {
	report := analyze(t, `
		const one = 1;
		function named() {}
		class Klass {}
		other = 2;
		const obj = { key: 1 };
	`)

	assert.Equal(t, 1, report.IDTypes[KindFunctionDeclaration])
	assert.Equal(t, 1, report.IDTypes[KindClassDeclaration])
	assert.Equal(t, 1, report.IDTypes[KindAssignExpr])
	assert.Equal(t, 1, report.IDTypes[KindProperty])
	assert.Equal(t, 2, report.IDTypes[KindVariableDeclarator])
}

func TestAnalyzeWarningLocations(t *testing.T) {
	report := analyze(t, "\n\neval(\"this\");")
	stmts := warningsOf(report, WarnUnsafeStmt)
	require.Len(t, stmts, 1)
	assert.Equal(t, "test.js", stmts[0].Location.File)
	assert.Equal(t, 3, stmts[0].Location.Line)
}

func TestRegisterProbe(t *testing.T) {
	analyzer := New(zap.NewNop(), Options{})
	var literals int
	analyzer.RegisterProbe(Probe{
		Name:     "literal-counter",
		Validate: []func(jsast.Node, *ProbeContext) bool{isStringLiteral},
		Main: func(n jsast.Node, ctx *ProbeContext) {
			literals++
		},
	})

	_, err := analyzer.Analyze(context.Background(), "test.js", []byte(`const a = "one"; const b = "two";`))
	require.NoError(t, err)
	assert.Equal(t, 2, literals)
}
