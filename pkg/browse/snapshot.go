package browse

import (
	"context"
	"fmt"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// ElementSnapshot captures an element's observable properties when it was
// resolved. It stays valid after the live handle goes stale.
type ElementSnapshot struct {
	ID        string       `json:"id"`
	Tag       string       `json:"tag"`
	Text      string       `json:"text"`
	Enabled   bool         `json:"enabled"`
	Selected  bool         `json:"selected"`
	Displayed bool         `json:"displayed"`
	Location  driver.Point `json:"location"`
	Size      driver.Size  `json:"size"`

	// Selector and Index record where the element came from.
	Selector string `json:"selector"`
	Index    int    `json:"index"`
}

func (e ElementSnapshot) String() string {
	return fmt.Sprintf("<%s> %q at %s[%d]", e.Tag, e.Text, e.Selector, e.Index)
}

// Capture probes el. A failing ID probe leaves ID empty; any other probe
// failure is returned.
func Capture(ctx context.Context, el driver.Element, origin string, index int) (ElementSnapshot, error) {
	snap := ElementSnapshot{Selector: origin, Index: index}
	if id, err := el.ID(ctx); err == nil {
		snap.ID = id
	}

	var err error
	if snap.Tag, err = el.TagName(ctx); err != nil {
		return snap, fmt.Errorf("tag name: %w", err)
	}
	if snap.Text, err = el.Text(ctx); err != nil {
		return snap, fmt.Errorf("text: %w", err)
	}
	if snap.Enabled, err = el.Enabled(ctx); err != nil {
		return snap, fmt.Errorf("enabled: %w", err)
	}
	if snap.Selected, err = el.Selected(ctx); err != nil {
		return snap, fmt.Errorf("selected: %w", err)
	}
	if snap.Displayed, err = el.Displayed(ctx); err != nil {
		return snap, fmt.Errorf("displayed: %w", err)
	}
	if snap.Location, err = el.Location(ctx); err != nil {
		return snap, fmt.Errorf("location: %w", err)
	}
	if snap.Size, err = el.Size(ctx); err != nil {
		return snap, fmt.Errorf("size: %w", err)
	}
	return snap, nil
}

// Snapshots resolves sel and captures every match.
func Snapshots(sel Selector) step.Step[[]ElementSnapshot] {
	origin := sel.String()
	return step.Bind(All(sel), func(set []driver.Element) step.Step[[]ElementSnapshot] {
		return step.Effect("snapshot "+origin, func(ctx context.Context, _ state.State) ([]ElementSnapshot, error) {
			out := make([]ElementSnapshot, 0, len(set))
			for i, el := range set {
				snap, err := Capture(ctx, el, origin, i)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out = append(out, snap)
			}
			return out, nil
		})
	})
}

// Snapshot resolves sel to exactly one element and captures it.
func Snapshot(sel Selector) step.Step[ElementSnapshot] {
	origin := sel.String()
	return step.Bind(One(sel), func(el driver.Element) step.Step[ElementSnapshot] {
		return step.Effect("snapshot "+origin, func(ctx context.Context, _ state.State) (ElementSnapshot, error) {
			return Capture(ctx, el, origin, 0)
		})
	})
}
