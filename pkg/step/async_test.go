package step

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwait(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		s, v := exec(t, Await("fetch", func(ctx context.Context, _ state.State) Future[string] {
			return Go(ctx, func(context.Context) (string, error) { return "done", nil })
		}))
		require.False(t, s.Failed())
		assert.Equal(t, "done", v)
	})

	t.Run("error", func(t *testing.T) {
		s, _ := exec(t, Await("fetch", func(context.Context, state.State) Future[string] {
			return Resolved("", errors.New("refused"))
		}))
		assert.EqualError(t, s.Err(), "fetch: refused")
		kind, _ := state.KindOf(s.Err())
		assert.Equal(t, state.KindCapability, kind)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		never := make(chan Outcome[int])
		s, _ := Await("slow", func(context.Context, state.State) Future[int] { return never }).
			Run(ctx, state.New(config.Settings{}), NoEnv{})
		assert.ErrorIs(t, s.Err(), context.Canceled)
	})

	t.Run("composes", func(t *testing.T) {
		slow := func(v int) Step[int] {
			return Await("slow", func(ctx context.Context, _ state.State) Future[int] {
				return Go(ctx, func(context.Context) (int, error) {
					time.Sleep(time.Millisecond)
					return v, nil
				})
			})
		}
		_, v := exec(t, Sequence(slow(1), slow(2)))
		assert.Equal(t, []int{1, 2}, v)
	})
}
