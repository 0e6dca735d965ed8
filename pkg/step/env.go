package step

import (
	"context"

	"github.com/entrhq/stepwise/pkg/state"
)

// Ask returns the environment.
func Ask[E any]() Action[E, E] {
	return func(_ context.Context, s state.State, env E) (state.State, E) {
		return s, env
	}
}

// Asks returns a projection of the environment.
func Asks[E, B any](proj func(E) B) Action[E, B] {
	return func(_ context.Context, s state.State, env E) (state.State, B) {
		return s, proj(env)
	}
}

// Provide fixes the environment of a, producing a Step.
func Provide[E, A any](env E, a Action[E, A]) Step[A] {
	return func(ctx context.Context, s state.State, _ NoEnv) (state.State, A) {
		return a(ctx, s, env)
	}
}

// Lift makes a Step usable where an environment is read.
func Lift[E, A any](st Step[A]) Action[E, A] {
	return func(ctx context.Context, s state.State, _ E) (state.State, A) {
		return st(ctx, s, NoEnv{})
	}
}

// Local runs a with a modified environment.
func Local[E, A any](fn func(E) E, a Action[E, A]) Action[E, A] {
	return func(ctx context.Context, s state.State, env E) (state.State, A) {
		return a(ctx, s, fn(env))
	}
}
