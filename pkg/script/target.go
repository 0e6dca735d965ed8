package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/stepwise/pkg/browse"
	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// Selector builds the element selector the target describes.
func (t *Target) Selector() (browse.Selector, error) {
	var found []driver.By
	add := func(by driver.By) {
		if by.Value != "" {
			found = append(found, by)
		}
	}
	add(driver.ByCSS(t.CSS))
	add(driver.ByXPath(t.XPath))
	add(driver.ByID(t.ID))
	add(driver.ByName(t.Name))
	add(driver.ByTagName(t.Tag))
	add(driver.ByClassName(t.Class))
	add(driver.ByLinkText(t.LinkText))
	add(driver.ByPartialLinkText(t.PartialLinkText))

	if len(found) != 1 {
		return browse.Selector{}, fmt.Errorf("target needs exactly one locator, got %d", len(found))
	}
	sel := browse.Locate(found[0])
	if t.Index != nil {
		sel = sel.Plus(browse.At(*t.Index))
	}
	return sel, nil
}

var varRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// Expand replaces ${name} references in text with the run's config values.
// Any other '$' is literal. It fails naming every reference that is not set.
func Expand(text string) step.Step[string] {
	if !varRef.MatchString(text) {
		return step.Pure(text)
	}
	return step.Bind(step.Get(), func(s state.State) step.Step[string] {
		var missing []string
		out := varRef.ReplaceAllStringFunc(text, func(ref string) string {
			name := varRef.FindStringSubmatch(ref)[1]
			v, ok := s.Config(name)
			if !ok {
				missing = append(missing, name)
			}
			return v
		})
		if len(missing) > 0 {
			return step.Failf[string]("undefined variable(s) %s in %q", strings.Join(missing, ", "), text)
		}
		return step.Pure(out)
	})
}

func withText(text string, fn func(string) step.Step[step.Unit]) step.Step[step.Unit] {
	return step.Bind(Expand(text), fn)
}
