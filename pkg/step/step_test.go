package step

import (
	"context"
	"testing"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exec[A any](t *testing.T, a Step[A]) (state.State, A) {
	t.Helper()
	return a(context.Background(), state.New(config.Settings{}), NoEnv{})
}

func counter(n *int) Step[int] {
	return Effect("count", func(context.Context, state.State) (int, error) {
		*n++
		return *n, nil
	})
}

func TestBindLaws(t *testing.T) {
	f := func(v int) Step[int] { return Then(Infof("got %d", v), Pure(v*2)) }

	t.Run("left identity", func(t *testing.T) {
		left, lv := exec(t, Bind(Pure(21), f))
		right, rv := exec(t, f(21))
		assert.Equal(t, rv, lv)
		assert.Equal(t, right.Log().Lines(), left.Log().Lines())
	})

	t.Run("right identity", func(t *testing.T) {
		m := Then(Info("m"), Pure(7))
		left, lv := exec(t, Bind(m, Pure[int]))
		right, rv := exec(t, m)
		assert.Equal(t, rv, lv)
		assert.Equal(t, right.Log().Lines(), left.Log().Lines())
	})

	t.Run("associativity", func(t *testing.T) {
		g := func(v int) Step[int] { return Then(Info("g"), Pure(v+1)) }
		m := Pure(1)
		left, lv := exec(t, Bind(Bind(m, f), g))
		right, rv := exec(t, Bind(m, func(v int) Step[int] { return Bind(f(v), g) }))
		assert.Equal(t, rv, lv)
		assert.Equal(t, right.Log().Lines(), left.Log().Lines())
	})
}

func TestBindSkipsAfterFailure(t *testing.T) {
	calls := 0
	s, v := exec(t, Bind(Fail[int]("boom"), func(int) Step[int] { return counter(&calls) }))

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, v)
	assert.EqualError(t, s.Err(), "boom")
}

func TestFailedStatePassesThrough(t *testing.T) {
	start := state.New(config.Settings{}).Fail(state.Assertion("earlier"))
	calls := 0

	s, _ := Then(Info("ignored"), counter(&calls))(context.Background(), start, NoEnv{})

	assert.Equal(t, 0, calls)
	assert.Equal(t, start.Log().Lines(), s.Log().Lines())
	assert.EqualError(t, s.Err(), "earlier")
}

func TestMap(t *testing.T) {
	_, v := exec(t, Map(Pure(2), func(i int) string { return string(rune('a' + i)) }))
	assert.Equal(t, "c", v)
}

func TestContextRendersNestedLog(t *testing.T) {
	s, _ := exec(t, Context("A", Info("x")))
	assert.Equal(t, []string{"A", "    INFO: x"}, s.Log().Lines())
}

func TestContextBreadcrumbs(t *testing.T) {
	s, _ := exec(t, Context("A", Context("B", Context("C", Fail[Unit]("boom")))))

	require.True(t, s.Failed())
	assert.EqualError(t, s.Err(), "boom (A → B → C)")
	assert.Equal(t, []string{
		"A",
		"    B",
		"        C",
		"            ERRO: boom",
	}, s.Log().Lines())
	assert.Equal(t, 0, s.Depth())
}

func TestContextStreamsIndentedLines(t *testing.T) {
	type line struct {
		text   string
		indent int
	}
	var got []line
	settings := config.Settings{LoggingAction: func(text string, indent int) {
		got = append(got, line{text, indent})
	}}

	Context("outer", Then(Info("a"), Context("inner", Info("b")))).
		Run(context.Background(), state.New(settings), NoEnv{})

	assert.Equal(t, []line{
		{"outer", 0},
		{"INFO: a", 1},
		{"inner", 1},
		{"INFO: b", 2},
	}, got)
}

func TestOr(t *testing.T) {
	lhsFails := Then(SetConfig("side", "lhs"), Fail[string]("lhs failed"))

	t.Run("rhs runs from the pre-lhs state", func(t *testing.T) {
		s, v := exec(t, Or(lhsFails, Pure("rhs")))
		require.False(t, s.Failed())
		assert.Equal(t, "rhs", v)
		_, ok := s.Config("side")
		assert.False(t, ok)
	})

	t.Run("lhs success skips rhs", func(t *testing.T) {
		calls := 0
		_, v := exec(t, Or(Pure(10), counter(&calls)))
		assert.Equal(t, 10, v)
		assert.Equal(t, 0, calls)
	})

	t.Run("both failing keeps both errors in order", func(t *testing.T) {
		s, _ := exec(t, Pure("x").Or(Fail[string]("never")).In("ok"))
		require.False(t, s.Failed())

		s, _ = exec(t, Or(lhsFails, Fail[string]("rhs failed")))
		errs := s.Errors()
		require.Len(t, errs, 2)
		assert.Equal(t, "lhs failed", errs[0].Message)
		assert.Equal(t, "rhs failed", errs[1].Message)
	})
}

func TestFirstOf(t *testing.T) {
	_, v := exec(t, FirstOf(Fail[int]("a"), Fail[int]("b"), Pure(3)))
	assert.Equal(t, 3, v)
}

func TestRecover(t *testing.T) {
	s, v := exec(t, Recover(Fail[string]("nope"), func(fs []*state.Failure) Step[string] {
		return Pure("recovered from " + fs[0].Message)
	}))
	assert.False(t, s.Failed())
	assert.Equal(t, "recovered from nope", v)
}

func TestAttempt(t *testing.T) {
	s, r := exec(t, Attempt(Then(Info("tried"), Fail[int]("bad"))))
	assert.False(t, s.Failed())
	assert.False(t, r.OK())
	assert.EqualError(t, r.Err(), "bad")
	assert.True(t, s.Log().IsEmpty(), "a failed attempt rolls the state back")

	s, r = exec(t, Attempt(Then(Info("tried"), Pure(4))))
	assert.True(t, r.OK())
	assert.Equal(t, 4, r.Value)
	assert.Equal(t, []string{"INFO: tried"}, s.Log().Lines())
}

func TestEnsure(t *testing.T) {
	check := func(v int) string {
		if v < 0 {
			return "negative"
		}
		return ""
	}
	s, _ := exec(t, Ensure(Pure(-1), check))
	assert.EqualError(t, s.Err(), "negative")
	assert.Equal(t, state.KindAssertion, s.Errors()[0].Kind)

	s, v := exec(t, Ensure(Pure(2), check))
	assert.False(t, s.Failed())
	assert.Equal(t, 2, v)
}

func TestWhen(t *testing.T) {
	s, _ := exec(t, When(false, Info("skipped")))
	assert.True(t, s.Log().IsEmpty())
	s, _ = exec(t, When(true, Info("ran")))
	assert.Equal(t, []string{"INFO: ran"}, s.Log().Lines())
}

func TestLogKinds(t *testing.T) {
	s, _ := exec(t, Then(Info("i"), Then(Warn("w"), Error("e"))))
	assert.Equal(t, []string{"INFO: i", "WARN: w", "ERRO: e"}, s.Log().Lines())
	assert.False(t, s.Failed(), "an error line is not a failure")
}

func TestSilent(t *testing.T) {
	var streamed []string
	settings := config.Settings{LoggingAction: func(text string, _ int) { streamed = append(streamed, text) }}

	s, _ := Then(Silent(Info("hidden")), Info("shown")).Run(context.Background(), state.New(settings), NoEnv{})

	assert.Equal(t, []string{"INFO: shown"}, streamed)
	assert.Equal(t, []string{"INFO: hidden", "INFO: shown"}, s.Log().Lines())
}
