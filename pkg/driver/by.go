package driver

import "fmt"

// Strategy names a locator engine.
type Strategy string

const (
	StrategyCSS             Strategy = "css"
	StrategyXPath           Strategy = "xpath"
	StrategyID              Strategy = "id"
	StrategyName            Strategy = "name"
	StrategyTagName         Strategy = "tag"
	StrategyClassName       Strategy = "class"
	StrategyLinkText        Strategy = "link text"
	StrategyPartialLinkText Strategy = "partial link text"
)

// By is a single locator: a strategy and the value it matches.
type By struct {
	Strategy Strategy
	Value    string
}

// String renders the locator for logs, e.g. `css "a.nav"`.
func (b By) String() string {
	return fmt.Sprintf("%s %q", b.Strategy, b.Value)
}

// Valid reports whether the locator names a known strategy and a value.
func (b By) Valid() error {
	if b.Value == "" {
		return fmt.Errorf("empty %s locator", b.Strategy)
	}
	switch b.Strategy {
	case StrategyCSS, StrategyXPath, StrategyID, StrategyName,
		StrategyTagName, StrategyClassName, StrategyLinkText, StrategyPartialLinkText:
		return nil
	default:
		return fmt.Errorf("unknown locator strategy %q", b.Strategy)
	}
}

func ByCSS(selector string) By         { return By{StrategyCSS, selector} }
func ByXPath(expr string) By           { return By{StrategyXPath, expr} }
func ByID(id string) By                { return By{StrategyID, id} }
func ByName(name string) By            { return By{StrategyName, name} }
func ByTagName(tag string) By          { return By{StrategyTagName, tag} }
func ByClassName(class string) By      { return By{StrategyClassName, class} }
func ByLinkText(text string) By        { return By{StrategyLinkText, text} }
func ByPartialLinkText(text string) By { return By{StrategyPartialLinkText, text} }
