package drivertest

import (
	"strings"

	"github.com/entrhq/stepwise/pkg/driver"
)

// Node is an element of the fake DOM. Build trees with Elem and the chainable
// setters; tests may mutate nodes between steps to simulate page changes.
type Node struct {
	Tag     string
	ID      string
	Classes []string
	Name    string
	Text    string
	Value   string
	Attrs   map[string]string
	Styles  map[string]string

	Disabled bool
	Checked  bool
	Hidden   bool

	Location driver.Point
	Size     driver.Size

	// IDErr makes the identity probe of this node fail.
	IDErr error

	// OnClick runs after the node is clicked.
	OnClick func(s *Session)

	Children []*Node

	parent *Node
	handle string
}

// Elem creates a node from a compact spec such as "button#go.primary.large"
// and attaches children in order.
func Elem(spec string, children ...*Node) *Node {
	n := &Node{Attrs: map[string]string{}, Styles: map[string]string{}}
	tag, rest := splitSpec(spec)
	n.Tag = strings.ToLower(tag)
	for _, part := range rest {
		switch part[0] {
		case '#':
			n.ID = part[1:]
		case '.':
			n.Classes = append(n.Classes, part[1:])
		}
	}
	return n.Append(children...)
}

func splitSpec(spec string) (string, []string) {
	var parts []string
	start := 0
	for i := 1; i < len(spec); i++ {
		if spec[i] == '#' || spec[i] == '.' {
			parts = append(parts, spec[start:i])
			start = i
		}
	}
	parts = append(parts, spec[start:])
	if len(parts) > 0 && parts[0] != "" && parts[0][0] != '#' && parts[0][0] != '.' {
		return parts[0], parts[1:]
	}
	return "div", parts
}

// Append attaches children to the node.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Remove detaches the node from its parent; live handles become stale.
func (n *Node) Remove() {
	if n.parent == nil {
		return
	}
	siblings := n.parent.Children
	for i, c := range siblings {
		if c == n {
			n.parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func (n *Node) WithText(text string) *Node { n.Text = text; return n }
func (n *Node) WithName(name string) *Node { n.Name = name; return n }
func (n *Node) WithValue(v string) *Node   { n.Value = v; return n }
func (n *Node) WithAttr(k, v string) *Node { n.Attrs[k] = v; return n }
func (n *Node) WithStyle(k, v string) *Node {
	n.Styles[k] = v
	return n
}
func (n *Node) WithBox(x, y, w, h int) *Node {
	n.Location = driver.Point{X: x, Y: y}
	n.Size = driver.Size{Width: w, Height: h}
	return n
}
func (n *Node) AsDisabled() *Node               { n.Disabled = true; return n }
func (n *Node) AsChecked() *Node                { n.Checked = true; return n }
func (n *Node) AsHidden() *Node                 { n.Hidden = true; return n }
func (n *Node) Clicked(fn func(*Session)) *Node { n.OnClick = fn; return n }

func (n *Node) hasClass(class string) bool {
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

func (n *Node) attr(name string) (string, bool) {
	switch name {
	case "id":
		return n.ID, n.ID != ""
	case "class":
		return strings.Join(n.Classes, " "), len(n.Classes) > 0
	case "name":
		return n.Name, n.Name != ""
	case "value":
		return n.Value, true
	}
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *Node) displayed() bool {
	for p := n; p != nil; p = p.parent {
		if p.Hidden {
			return false
		}
	}
	return true
}

// visibleText concatenates the text of the node and its displayed
// descendants, space separated.
func (n *Node) visibleText() string {
	if !n.displayed() {
		return ""
	}
	var parts []string
	var walk func(*Node)
	walk = func(c *Node) {
		if c.Hidden {
			return
		}
		if t := strings.TrimSpace(c.Text); t != "" {
			parts = append(parts, t)
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// descendants returns the node's descendants in document order.
func (n *Node) descendants() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(c *Node) {
		for _, child := range c.Children {
			out = append(out, child)
			walk(child)
		}
	}
	walk(n)
	return out
}

func (n *Node) contains(target *Node) bool {
	for p := target; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}
