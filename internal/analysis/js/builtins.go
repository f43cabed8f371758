package js

import "strings"

// nodeBuiltins lists the Node.js core modules (top-level names only). Resolved
// dependencies matching this table are classified as builtins rather than
// third-party packages.
var nodeBuiltins = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// IsNodeBuiltin reports whether a specifier names a Node.js core module,
// accepting the node: prefix and subpath forms like fs/promises.
func IsNodeBuiltin(specifier string) bool {
	specifier = strings.TrimPrefix(specifier, "node:")
	if idx := strings.IndexByte(specifier, '/'); idx >= 0 {
		specifier = specifier[:idx]
	}
	return nodeBuiltins[specifier]
}
