package js

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancetsec/lancet/internal/jsast"
)

func str(s string) *jsast.Literal {
	return &jsast.Literal{StrValue: s, IsString: true}
}

func num(n float64) *jsast.Literal {
	return &jsast.Literal{NumValue: n, IsNumber: true}
}

func TestResolveLiterals(t *testing.T) {
	env := NewEnvironment()

	res, ok := resolveExpr(str("chalk"), env)
	require.True(t, ok)
	assert.Equal(t, ResolvedString, res.Kind)
	assert.Equal(t, "chalk", res.Str)
	assert.False(t, res.Unsafe)

	res, ok = resolveExpr(num(7), env)
	require.True(t, ok)
	assert.Equal(t, ResolvedNumber, res.Kind)
	assert.Equal(t, 7.0, res.Num)
}

func TestResolveConcatenation(t *testing.T) {
	env := NewEnvironment()
	env.Declare("mid", StringValue("t", false))

	expr := &jsast.BinaryExpression{
		Operator: "+",
		Left: &jsast.BinaryExpression{
			Operator: "+",
			Left:     str("lef"),
			Right:    &jsast.Identifier{Name: "mid"},
		},
		Right: str("-pad"),
	}

	res, ok := resolveExpr(expr, env)
	require.True(t, ok)
	assert.Equal(t, "left-pad", res.Str)
	assert.False(t, res.Unsafe)
}

func TestResolveConcatenationRejectsPartial(t *testing.T) {
	env := NewEnvironment()
	expr := &jsast.BinaryExpression{
		Operator: "+",
		Left:     str("known"),
		Right:    &jsast.Identifier{Name: "unknowable"},
	}
	_, ok := resolveExpr(expr, env)
	assert.False(t, ok)
}

func TestResolveNonPlusOperator(t *testing.T) {
	env := NewEnvironment()
	expr := &jsast.BinaryExpression{Operator: "-", Left: num(2), Right: num(1)}
	_, ok := resolveExpr(expr, env)
	assert.False(t, ok)
}

func TestResolveCodepointArray(t *testing.T) {
	env := NewEnvironment()
	arr := &jsast.ArrayExpression{
		Elements: []jsast.Node{num(104), num(116), num(116), num(112)},
	}

	res, ok := resolveExpr(arr, env)
	require.True(t, ok)
	assert.Equal(t, ResolvedString, res.Kind)
	assert.Equal(t, "http", res.Str)
	assert.True(t, res.Unsafe)
}

func TestResolveStringArray(t *testing.T) {
	env := NewEnvironment()
	arr := &jsast.ArrayExpression{
		Elements: []jsast.Node{str("ch"), str("alk")},
	}

	res, ok := resolveExpr(arr, env)
	require.True(t, ok)
	assert.Equal(t, ResolvedArray, res.Kind)
	assert.True(t, res.Unsafe)
	require.Len(t, res.Elems, 2)
	assert.Equal(t, "ch", res.Elems[0].Str)
}

func TestResolveMixedArrayFails(t *testing.T) {
	env := NewEnvironment()
	arr := &jsast.ArrayExpression{
		Elements: []jsast.Node{str("x"), &jsast.Identifier{Name: "mystery"}},
	}
	_, ok := resolveExpr(arr, env)
	assert.False(t, ok)
}

func TestResolveArrayJoin(t *testing.T) {
	env := NewEnvironment()
	join := &jsast.CallExpression{
		Callee: &jsast.MemberExpression{
			Object: &jsast.ArrayExpression{
				Elements: []jsast.Node{str("a"), str("b")},
			},
			PropertyName: "join",
		},
		Arguments: []jsast.Node{str("/")},
	}

	res, ok := resolveExpr(join, env)
	require.True(t, ok)
	assert.Equal(t, "a/b", res.Str)
	assert.True(t, res.Unsafe)
}

func TestResolveArrayJoinDefaultSeparator(t *testing.T) {
	env := NewEnvironment()
	join := &jsast.CallExpression{
		Callee: &jsast.MemberExpression{
			Object: &jsast.ArrayExpression{
				Elements: []jsast.Node{str("a"), str("b")},
			},
			PropertyName: "join",
		},
	}

	res, ok := resolveExpr(join, env)
	require.True(t, ok)
	assert.Equal(t, "a,b", res.Str)
}

func TestResolveStringFromCharCode(t *testing.T) {
	env := NewEnvironment()
	call := &jsast.CallExpression{
		Callee: &jsast.MemberExpression{
			Object:       &jsast.Identifier{Name: "String"},
			PropertyName: "fromCharCode",
		},
		Arguments: []jsast.Node{num(104), num(105)},
	}

	res, ok := resolveExpr(call, env)
	require.True(t, ok)
	assert.Equal(t, "hi", res.Str)
	assert.True(t, res.Unsafe)
}

func TestResolveBufferFromHex(t *testing.T) {
	env := NewEnvironment()
	buffer := &jsast.CallExpression{
		Callee: &jsast.MemberExpression{
			Object:       &jsast.Identifier{Name: "Buffer"},
			PropertyName: "from",
		},
		Arguments: []jsast.Node{str("68747470"), str("hex")},
	}
	toString := &jsast.CallExpression{
		Callee: &jsast.MemberExpression{Object: buffer, PropertyName: "toString"},
	}

	res, ok := resolveExpr(toString, env)
	require.True(t, ok)
	assert.Equal(t, "http", res.Str)
	assert.True(t, res.Unsafe)
}

func TestResolveUserCallFails(t *testing.T) {
	env := NewEnvironment()
	call := &jsast.CallExpression{Callee: &jsast.Identifier{Name: "evil"}}
	_, ok := resolveExpr(call, env)
	assert.False(t, ok)
}

func TestDecodeHexLiteral(t *testing.T) {
	decoded, ok := decodeHexLiteral("68747470733a2f2f")
	require.True(t, ok)
	assert.Equal(t, "https://", decoded)

	// Too short.
	_, ok = decodeHexLiteral("6874")
	assert.False(t, ok)

	// Odd length.
	_, ok = decodeHexLiteral("687474700")
	assert.False(t, ok)

	// Decodes to non-printable bytes.
	_, ok = decodeHexLiteral("aaaaaaaaaaaaaaaa")
	assert.False(t, ok)

	// Not hex at all.
	_, ok = decodeHexLiteral("left-pad")
	assert.False(t, ok)
}
