package queryast

import (
	"fmt"
	"strings"
)

// Print renders a node as an indented tree, one operator per line, with
// expressions and filters inlined in their compact String form.
//
// Example:
//
//	Project [id, name, embedding]
//	  Limit 1
//	    OrderBy [id ASC]
//	      Table items
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n, 0)
	return b.String()
}

func printNode(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	line := func(format string, args ...any) {
		b.WriteString(indent)
		fmt.Fprintf(b, format, args...)
		b.WriteByte('\n')
	}

	switch node := n.(type) {
	case *TableRef:
		line("Table %s", node.Name)
	case *Select:
		line("Select %s", node.Filter)
		printNode(b, node.Source, depth+1)
	case *OrderBy:
		keys := make([]string, len(node.Keys))
		for i, k := range node.Keys {
			keys[i] = k.String()
		}
		line("OrderBy [%s]", strings.Join(keys, ", "))
		printNode(b, node.Source, depth+1)
	case *Limit:
		line("Limit %d", node.Count)
		printNode(b, node.Source, depth+1)
	case *Project:
		items := make([]string, len(node.Items))
		for i, it := range node.Items {
			items[i] = it.String()
		}
		line("Project [%s]", strings.Join(items, ", "))
		printNode(b, node.Source, depth+1)
	case *Join:
		line("Join ON %s", node.On)
		printNode(b, node.Left, depth+1)
		printNode(b, node.Right, depth+1)
	case *Union:
		line("Union")
		printNode(b, node.Left, depth+1)
		printNode(b, node.Right, depth+1)
	case *With:
		line("With %s", node.Name)
		printNode(b, node.Definition, depth+1)
		printNode(b, node.Body, depth+1)
	case nil:
		line("<nil>")
	default:
		// Expressions and filters are leaves of the printed tree.
		line("%s", node)
	}
}
