package logtree

import (
	"slices"
	"strings"
)

// Log is an immutable, ordered forest of nodes. The zero value is an empty
// log at indent 0.
type Log struct {
	base  int
	nodes []Node
}

// Empty returns an empty log whose top-level nodes sit at indent base.
func Empty(base int) Log {
	if base < 0 {
		base = 0
	}
	return Log{base: base}
}

// Base returns the indent of the log's top-level nodes.
func (l Log) Base() int {
	return l.base
}

// Nodes returns a copy of the top-level nodes.
func (l Log) Nodes() []Node {
	return slices.Clone(l.nodes)
}

// Len returns the number of top-level nodes.
func (l Log) Len() int {
	return len(l.nodes)
}

// IsEmpty reports whether the log has no nodes.
func (l Log) IsEmpty() bool {
	return len(l.nodes) == 0
}

// Append returns a new log with a leaf added at the base indent.
func (l Log) Append(kind Kind, message string) Log {
	return l.add(Node{Indent: l.base, Kind: kind, Message: message})
}

// Info is shorthand for Append(KindInfo, message).
func (l Log) Info(message string) Log { return l.Append(KindInfo, message) }

// Warn is shorthand for Append(KindWarn, message).
func (l Log) Warn(message string) Log { return l.Append(KindWarn, message) }

// Error is shorthand for Append(KindError, message).
func (l Log) Error(message string) Log { return l.Append(KindError, message) }

// Nest returns a new log with a context node named label whose children are
// the nodes of inner, rebased one level below this log's base.
func (l Log) Nest(label string, inner Log) Log {
	return l.add(Node{
		Indent:   l.base,
		Kind:     KindContext,
		Message:  label,
		Children: rebase(inner.nodes, l.base+1),
	})
}

// Merge returns a new log with the top-level nodes of other appended,
// rebased to this log's base.
func (l Log) Merge(other Log) Log {
	if other.IsEmpty() {
		return l
	}
	return Log{
		base:  l.base,
		nodes: append(slices.Clip(l.nodes), rebase(other.nodes, l.base)...),
	}
}

// Rebase returns a copy of the log rooted at a different base indent.
func (l Log) Rebase(base int) Log {
	if base < 0 {
		base = 0
	}
	return Log{base: base, nodes: rebase(l.nodes, base)}
}

// add never writes into a backing array shared with another Log.
func (l Log) add(n Node) Log {
	return Log{base: l.base, nodes: append(slices.Clip(l.nodes), n)}
}

// Lines renders the log pre-order, one line per node.
func (l Log) Lines() []string {
	var lines []string
	for _, n := range l.nodes {
		lines = appendLines(lines, n)
	}
	return lines
}

// String renders the log as newline separated lines.
func (l Log) String() string {
	return strings.Join(l.Lines(), "\n")
}

// Walk visits every node pre-order. Returning false from fn stops the walk.
func (l Log) Walk(fn func(Node) bool) {
	var walk func([]Node) bool
	walk = func(nodes []Node) bool {
		for _, n := range nodes {
			if !fn(n) {
				return false
			}
			if !walk(n.Children) {
				return false
			}
		}
		return true
	}
	walk(l.nodes)
}

// Count returns the number of nodes of the given kind anywhere in the tree.
func (l Log) Count(kind Kind) int {
	count := 0
	l.Walk(func(n Node) bool {
		if n.Kind == kind {
			count++
		}
		return true
	})
	return count
}

func appendLines(lines []string, n Node) []string {
	if strings.TrimSpace(n.Message) != "" {
		lines = append(lines, FormatLine(n.Kind, n.Message, n.Indent))
	}
	for _, c := range n.Children {
		lines = appendLines(lines, c)
	}
	return lines
}

// FormatLine renders a single line the way Lines does.
func FormatLine(kind Kind, message string, indent int) string {
	if indent < 0 {
		indent = 0
	}
	return strings.Repeat(IndentUnit, indent) + kind.Tag() + message
}

// IndentUnit is the text used for one indent level.
const IndentUnit = "    "
