// Package browse is the browser automation vocabulary built on the step
// engine: element selectors bound to a live driver.Session, actions,
// assertions and element snapshots.
//
// Selectors are values; nothing touches the browser until a step built from
// them runs.
//
//	submit := browse.CSS("form#login").Plus(browse.CSS("button")).Plus(browse.Enabled())
//	flow := step.Context("log in", step.Then(
//		browse.Type(browse.Name("user"), "alice"),
//		browse.Click(submit),
//	))
package browse
