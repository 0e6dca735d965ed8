package cdpdriver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/entrhq/stepwise/pkg/driver"
)

// query is a locator compiled for chromedp.
type query struct {
	selector string
	option   chromedp.QueryOption

	// linkText, when set, filters matched anchors by their visible text.
	linkText func(text string) bool
}

func compile(by driver.By) (query, error) {
	if err := by.Valid(); err != nil {
		return query{}, err
	}
	q := strconv.Quote(by.Value)
	css := func(sel string) query { return query{selector: sel, option: chromedp.ByQueryAll} }

	switch by.Strategy {
	case driver.StrategyCSS, driver.StrategyTagName:
		return css(by.Value), nil
	case driver.StrategyID:
		return css("[id=" + q + "]"), nil
	case driver.StrategyName:
		return css("[name=" + q + "]"), nil
	case driver.StrategyClassName:
		return css("[class~=" + q + "]"), nil
	case driver.StrategyXPath:
		return query{selector: by.Value, option: chromedp.BySearch}, nil
	case driver.StrategyLinkText:
		want := by.Value
		out := css("a")
		out.linkText = func(text string) bool { return text == want }
		return out, nil
	case driver.StrategyPartialLinkText:
		want := by.Value
		out := css("a")
		out.linkText = func(text string) bool { return strings.Contains(text, want) }
		return out, nil
	}
	return query{}, fmt.Errorf("%s: %w", by, driver.ErrUnsupported)
}
