package jsast

// Children returns the child nodes of n in source order. Nil children are
// skipped. The switch is exhaustive over the closed kind set; Unknown nodes
// expose whatever was converted beneath them.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Program:
		return v.Body
	case *TemplateLiteral:
		return v.Expressions
	case *BinaryExpression:
		return pack(v.Left, v.Right)
	case *UnaryExpression:
		return pack(v.Argument)
	case *ArrayExpression:
		return compact(v.Elements)
	case *ObjectExpression:
		return v.Properties
	case *Property:
		return pack(v.Key, v.Value)
	case *CallExpression:
		return append(pack(v.Callee), compact(v.Arguments)...)
	case *NewExpression:
		return append(pack(v.Callee), compact(v.Arguments)...)
	case *MemberExpression:
		return pack(v.Object, v.Index)
	case *AssignmentExpression:
		return pack(v.Left, v.Right)
	case *SequenceExpression:
		return v.Expressions
	case *SpreadElement:
		return pack(v.Argument)
	case *VariableDeclaration:
		return v.Declarations
	case *VariableDeclarator:
		return pack(v.Name, v.Init)
	case *FunctionDeclaration:
		return append(compact(v.Params), pack(v.Body)...)
	case *FunctionExpression:
		return append(compact(v.Params), pack(v.Body)...)
	case *ArrowFunctionExpression:
		return append(compact(v.Params), pack(v.Body)...)
	case *ClassDeclaration:
		return v.Body
	case *BlockStatement:
		return v.Body
	case *ExpressionStatement:
		return pack(v.Expression)
	case *ReturnStatement:
		return pack(v.Argument)
	case *IfStatement:
		return pack(v.Test, v.Consequent, v.Alternate)
	case *TryStatement:
		return pack(v.Block, v.Handler, v.Finalizer)
	case *CatchClause:
		return pack(v.Param, v.Body)
	case *ExportDeclaration:
		return pack(v.Declaration)
	case *Unknown:
		return v.Children
	default:
		// Identifier, Literal, ImportDeclaration and other leaves.
		return nil
	}
}

func pack(nodes ...Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func compact(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
