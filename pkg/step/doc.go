// Package step is the computation model of stepwise.
//
// An Action is a function from a run State (and an environment) to a new
// State and a value. Actions compose with Bind, Map, Then and Or; Context
// scopes the log and labels failures; Sequence and Collect run lists fail-fast
// or accumulate-all; WaitUntil and DoWhile poll. Once a State carries an
// error, every composed action passes it through untouched until Or or
// Recover takes the alternative path.
//
// A Step is an Action that needs no environment. Environment-reading actions
// are built with Ask, Asks, Lift and Provide; Await adapts calls that complete
// asynchronously. They all share one interpreter: the Action function type.
//
//	login := step.Context("login", step.Then(
//		browse.Navigate("https://example.com/login"),
//		browse.Type(browse.CSS("input[name=user]"), "alice"),
//	))
//	final, _, err := step.RunOrError(ctx, login, session, settings)
package step
