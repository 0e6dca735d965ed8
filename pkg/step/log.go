package step

import (
	"context"
	"fmt"

	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/state"
)

func logLine(kind logtree.Kind, message string) Step[Unit] {
	return guard(func(_ context.Context, s state.State, _ NoEnv) (state.State, Unit) {
		return s.Append(kind, message), Unit{}
	})
}

// Info adds an info line to the log.
func Info(message string) Step[Unit] { return logLine(logtree.KindInfo, message) }

// Infof adds a formatted info line to the log.
func Infof(format string, args ...any) Step[Unit] {
	return Info(fmt.Sprintf(format, args...))
}

// Warn adds a warning line. Warnings never affect control flow.
func Warn(message string) Step[Unit] { return logLine(logtree.KindWarn, message) }

// Warnf adds a formatted warning line.
func Warnf(format string, args ...any) Step[Unit] {
	return Warn(fmt.Sprintf(format, args...))
}

// Error adds an error line without faulting the run.
func Error(message string) Step[Unit] { return logLine(logtree.KindError, message) }

// Context runs a inside a log scope named label. The scope is closed whether
// or not a faults, and failures raised inside get label in their breadcrumb.
func Context[E, A any](label string, a Action[E, A]) Action[E, A] {
	return guard(func(ctx context.Context, s state.State, env E) (state.State, A) {
		out, v := a(ctx, s.Push(label), env)
		return out.Pop(s, label), v
	})
}
