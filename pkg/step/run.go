package step

import (
	"context"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/state"
)

// Run executes a against session with settings and releases the session
// afterwards when settings.QuitOnFinish is set. A failure to quit is logged
// as a warning and does not fault the run.
func Run[A any](ctx context.Context, a Step[A], session driver.Session, settings config.Settings) (state.State, A) {
	return RunWith(ctx, a, NoEnv{}, session, settings)
}

// RunWith is Run for actions that read an environment.
func RunWith[E, A any](ctx context.Context, a Action[E, A], env E, session driver.Session, settings config.Settings) (state.State, A) {
	s := state.New(settings.WithDefaults()).WithSession(session)
	s, v := a(ctx, s, env)
	s, err := s.Release(ctx)
	if err != nil {
		s = s.Append(logtree.KindWarn, "quit session: "+err.Error())
	}
	return s, v
}

// RunOrError is Run that hands a faulted run to settings.FailureAction and
// returns its error.
func RunOrError[A any](ctx context.Context, a Step[A], session driver.Session, settings config.Settings) (state.State, A, error) {
	s, v := Run(ctx, a, session, settings)
	if err := s.Err(); err != nil {
		s.Settings().Fail(err, s.Log())
		return s, v, err
	}
	return s, v, nil
}
