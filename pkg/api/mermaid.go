package api

import (
	"fmt"
	"strings"
)

// nodeShapes renders node labels per type so exported diagrams
// distinguish decisions from stages
var nodeShapes = map[NodeType]string{
	NodeTypeStart:    "%s([%s])",
	NodeTypeEnd:      "%s([%s])",
	NodeTypeBranch:   "%s{%s}",
	NodeTypeRiskEval: "%s[[%s]]",
}

// Mermaid renders the flow as a Mermaid flowchart. Branch edges carry
// their condition as the edge label
func (f *Flow) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, n := range f.Nodes {
		b.WriteString("    ")
		b.WriteString(mermaidNode(n))
		b.WriteByte('\n')
	}

	for _, n := range f.Nodes {
		switch n.Type {
		case NodeTypeBranch:
			for _, br := range n.Branches {
				fmt.Fprintf(&b, "    %s -- %s --> %s\n",
					n.ID, mermaidLabel(br.Condition), br.Next)
			}
		case NodeTypeEnd:
		default:
			if n.Next != "" {
				fmt.Fprintf(&b, "    %s --> %s\n", n.ID, n.Next)
			}
		}
	}
	return b.String()
}

func mermaidNode(n *Node) string {
	if shape, ok := nodeShapes[n.Type]; ok {
		return fmt.Sprintf(shape, n.ID, n.ID)
	}
	return fmt.Sprintf("%s[%s]", n.ID, n.ID)
}

// mermaidLabel strips characters that break Mermaid edge labels
func mermaidLabel(s string) string {
	r := strings.NewReplacer("|", " ", "\n", " ", "\"", "'")
	return r.Replace(s)
}
