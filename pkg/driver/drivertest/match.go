package drivertest

import (
	"fmt"
	"strings"

	"github.com/entrhq/stepwise/pkg/driver"
)

// compound is one simple CSS selector: tag, id, classes and attributes.
type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	name    string
	value   string
	present bool // [name] without a value
}

// parseCSS supports descendant combinators between compound selectors made
// of tag, #id, .class, [attr] and [attr=value]. That covers what the tests
// need without pretending to be a full engine.
func parseCSS(selector string) ([]compound, error) {
	fields := strings.Fields(selector)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty css selector")
	}
	out := make([]compound, 0, len(fields))
	for _, f := range fields {
		c, err := parseCompound(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseCompound(s string) (compound, error) {
	var c compound
	i := 0
	readIdent := func() string {
		start := i
		for i < len(s) && s[i] != '#' && s[i] != '.' && s[i] != '[' {
			i++
		}
		return s[start:i]
	}
	if s[0] != '#' && s[0] != '.' && s[0] != '[' {
		c.tag = strings.ToLower(readIdent())
		if c.tag == "*" {
			c.tag = ""
		}
	}
	for i < len(s) {
		switch s[i] {
		case '#':
			i++
			c.id = readIdent()
		case '.':
			i++
			c.classes = append(c.classes, readIdent())
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute selector in %q", s)
			}
			body := s[i+1 : i+end]
			i += end + 1
			if k, v, ok := strings.Cut(body, "="); ok {
				c.attrs = append(c.attrs, attrMatch{name: k, value: strings.Trim(v, `"'`)})
			} else {
				c.attrs = append(c.attrs, attrMatch{name: body, present: true})
			}
		default:
			return c, fmt.Errorf("unsupported css syntax %q", s)
		}
	}
	return c, nil
}

func (c compound) matches(n *Node) bool {
	if c.tag != "" && n.Tag != c.tag {
		return false
	}
	if c.id != "" && n.ID != c.id {
		return false
	}
	for _, class := range c.classes {
		if !n.hasClass(class) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := n.attr(a.name)
		if !ok || (!a.present && v != a.value) {
			return false
		}
	}
	return true
}

// matchesChain checks n against the last compound and its ancestors, up to
// but excluding stop, against the preceding ones.
func matchesChain(chain []compound, n *Node, stop *Node) bool {
	last := len(chain) - 1
	if !chain[last].matches(n) {
		return false
	}
	i := last - 1
	for p := n.parent; p != nil && p != stop && i >= 0; p = p.parent {
		if chain[i].matches(p) {
			i--
		}
	}
	return i < 0
}

func matcher(by driver.By) (func(n *Node, scope *Node) bool, error) {
	switch by.Strategy {
	case driver.StrategyCSS:
		chain, err := parseCSS(by.Value)
		if err != nil {
			return nil, err
		}
		return func(n, _ *Node) bool { return matchesChain(chain, n, nil) }, nil
	case driver.StrategyID:
		return func(n, _ *Node) bool { return n.ID == by.Value }, nil
	case driver.StrategyName:
		return func(n, _ *Node) bool { return n.Name == by.Value }, nil
	case driver.StrategyTagName:
		tag := strings.ToLower(by.Value)
		return func(n, _ *Node) bool { return n.Tag == tag }, nil
	case driver.StrategyClassName:
		return func(n, _ *Node) bool { return n.hasClass(by.Value) }, nil
	case driver.StrategyLinkText:
		return func(n, _ *Node) bool { return n.Tag == "a" && n.visibleText() == by.Value }, nil
	case driver.StrategyPartialLinkText:
		return func(n, _ *Node) bool { return n.Tag == "a" && strings.Contains(n.visibleText(), by.Value) }, nil
	default:
		return nil, fmt.Errorf("%s: %w", by, driver.ErrUnsupported)
	}
}
