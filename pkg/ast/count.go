package ast

// CountNodes returns the number of nodes in the tree rooted at n.
// Each assignment target counts as a node of its own.
func CountNodes(n Node) int {
	switch n := n.(type) {
	case *Program:
		if n.Body == nil {
			return 1
		}
		return 1 + CountNodes(n.Body)
	case *Block:
		total := 1
		for _, s := range n.Stmts {
			total += CountNodes(s)
		}
		return total
	case *PrintStatement:
		total := 1
		for _, a := range n.Args {
			total += CountNodes(a)
		}
		return total
	case *Assignment:
		return 1 + len(n.Targets) + CountNodes(n.Value)
	case *ExpressionStatement:
		return 1 + CountNodes(n.X)
	case *Addition:
		return 1 + CountNodes(n.Left) + CountNodes(n.Right)
	case *Negation:
		return 1 + CountNodes(n.X)
	case *Call:
		total := 1
		for _, a := range n.Args {
			total += CountNodes(a)
		}
		return total
	case *IntLiteral, *VariableRef:
		return 1
	}
	return 0
}
