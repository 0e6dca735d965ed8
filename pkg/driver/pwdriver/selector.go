package pwdriver

import (
	"fmt"
	"strconv"

	"github.com/entrhq/stepwise/pkg/driver"
)

// translate maps a locator to a Playwright selector.
func translate(by driver.By) (string, error) {
	if err := by.Valid(); err != nil {
		return "", err
	}
	q := strconv.Quote(by.Value)
	switch by.Strategy {
	case driver.StrategyCSS:
		return "css=" + by.Value, nil
	case driver.StrategyXPath:
		return "xpath=" + by.Value, nil
	case driver.StrategyID:
		return "css=[id=" + q + "]", nil
	case driver.StrategyName:
		return "css=[name=" + q + "]", nil
	case driver.StrategyTagName:
		return "css=" + by.Value, nil
	case driver.StrategyClassName:
		return "css=[class~=" + q + "]", nil
	case driver.StrategyLinkText:
		return "css=a:text-is(" + q + ")", nil
	case driver.StrategyPartialLinkText:
		return "css=a:has-text(" + q + ")", nil
	}
	return "", fmt.Errorf("%s: %w", by, driver.ErrUnsupported)
}
