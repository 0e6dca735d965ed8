package logtree

// Kind is the kind of a log node.
type Kind int

const (
	KindContext Kind = iota
	KindInfo
	KindWarn
	KindError
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindInfo:
		return "info"
	case KindWarn:
		return "warn"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Tag returns the line prefix used when rendering a leaf of this kind.
// Context headers are rendered without a tag.
func (k Kind) Tag() string {
	switch k {
	case KindInfo:
		return "INFO: "
	case KindWarn:
		return "WARN: "
	case KindError:
		return "ERRO: "
	default:
		return ""
	}
}

// Node is a single entry of the log tree.
type Node struct {
	Indent   int
	Kind     Kind
	Message  string
	Children []Node
}

// IsContext reports whether the node opens a scope.
func (n Node) IsContext() bool {
	return n.Kind == KindContext
}

// rebase returns a copy of nodes with their indents recomputed so that the
// top level sits at base. Only context nodes push their subtree one level in.
func rebase(nodes []Node, base int) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.Indent = base
		if n.IsContext() {
			n.Children = rebase(n.Children, base+1)
		}
		out[i] = n
	}
	return out
}
