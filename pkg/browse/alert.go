package browse

import (
	"context"
	"time"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// AlertPresent reports whether a dialog is open.
func AlertPresent() step.Step[bool] {
	return step.WithSession("check alert", func(ctx context.Context, s driver.Session) (bool, error) {
		return s.AlertPresent(ctx)
	})
}

// AlertText returns the message of the open dialog.
func AlertText() step.Step[string] {
	return step.WithSession("read alert", func(ctx context.Context, s driver.Session) (string, error) {
		return s.AlertText(ctx)
	})
}

// AcceptAlert accepts the open dialog.
func AcceptAlert() step.Step[step.Unit] {
	return step.Then(
		step.WithSession("accept alert", func(ctx context.Context, s driver.Session) (step.Unit, error) {
			return step.Unit{}, s.AcceptAlert(ctx)
		}),
		step.Info("accepted alert"),
	)
}

// DismissAlert dismisses the open dialog.
func DismissAlert() step.Step[step.Unit] {
	return step.Then(
		step.WithSession("dismiss alert", func(ctx context.Context, s driver.Session) (step.Unit, error) {
			return step.Unit{}, s.DismissAlert(ctx)
		}),
		step.Info("dismissed alert"),
	)
}

// AlertSendKeys types text into the open prompt.
func AlertSendKeys(text string) step.Step[step.Unit] {
	return step.WithSession("type into alert", func(ctx context.Context, s driver.Session) (step.Unit, error) {
		return step.Unit{}, s.AlertSendKeys(ctx, text)
	})
}

// WaitForAlert polls until a dialog opens and returns its message.
func WaitForAlert(interval, timeout time.Duration) step.Step[string] {
	present := step.WaitUntilWith(AlertPresent(),
		func(open bool) bool { return !open },
		interval, timeout,
		func(_ bool, elapsed time.Duration) *state.Failure {
			return state.Timeout("timed out after %s waiting for an alert", elapsed.Round(time.Millisecond))
		})
	return step.Then(present, AlertText())
}
