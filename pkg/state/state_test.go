package state

import (
	"context"
	"testing"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/driver/drivertest"
	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	s := New(config.Settings{})

	assert.Equal(t, config.DefaultWait, s.Settings().Wait)
	assert.Equal(t, config.DefaultInterval, s.Settings().Interval)
	assert.False(t, s.Failed())
	assert.Nil(t, s.Err())
	assert.Nil(t, s.Session())
}

func TestWithConfigCopiesMapping(t *testing.T) {
	base := New(config.Settings{}).WithConfig("user", "alice")
	changed := base.WithConfig("user", "bob")

	v, _ := base.Config("user")
	assert.Equal(t, "alice", v)
	v, _ = changed.Config("user")
	assert.Equal(t, "bob", v)

	m := changed.ConfigMap()
	m["user"] = "mallory"
	v, _ = changed.Config("user")
	assert.Equal(t, "bob", v)
}

func TestFailRecordsAndLogs(t *testing.T) {
	var events []types.RunEvent
	var errorsSeen []types.RunEvent
	s := New(config.Settings{
		LogStream:   func(e types.RunEvent) { events = append(events, e) },
		ErrorStream: func(e types.RunEvent) { errorsSeen = append(errorsSeen, e) },
	})

	failed := s.Fail(Assertion("boom"))

	assert.False(t, s.Failed(), "original state must be untouched")
	require.True(t, failed.Failed())
	assert.EqualError(t, failed.Err(), "boom")
	assert.Equal(t, []string{"ERRO: boom"}, failed.Log().Lines())
	assert.Len(t, errorsSeen, 1)
	assert.Len(t, events, 2) // append + failure
}

func TestErrJoinsMultipleFailures(t *testing.T) {
	s := New(config.Settings{}).Fail(Assertion("lhs"), Assertion("rhs"))

	assert.Len(t, s.Errors(), 2)
	assert.EqualError(t, s.Err(), "lhs\nrhs")
}

func TestPushPopNestsLogAndCrumbs(t *testing.T) {
	var lines []string
	var indents []int
	outer := New(config.Settings{
		LoggingAction: func(text string, indent int) {
			lines = append(lines, text)
			indents = append(indents, indent)
		},
	}).Append(logtree.KindInfo, "before")

	inner := outer.Push("A")
	assert.Equal(t, 1, inner.Depth())
	assert.True(t, inner.Log().IsEmpty())

	inner = inner.Append(logtree.KindInfo, "x").Fail(Assertion("boom"))
	done := inner.Pop(outer, "A")

	assert.Equal(t, 0, done.Depth())
	assert.Equal(t, []string{"INFO: before", "A", "    INFO: x", "    ERRO: boom"}, done.Log().Lines())
	assert.EqualError(t, done.Err(), "boom (A)")
	assert.Equal(t, []string{"INFO: before", "A", "INFO: x", "ERRO: boom"}, lines)
	assert.Equal(t, []int{0, 0, 1, 1}, indents)
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps session by default", func(t *testing.T) {
		session := drivertest.NewSession()
		s, err := New(config.Settings{}).WithSession(session).Release(ctx)
		require.NoError(t, err)
		assert.NotNil(t, s.Session())
		assert.False(t, session.Quitted())
	})

	t.Run("quits when requested", func(t *testing.T) {
		session := drivertest.NewSession()
		s, err := New(config.Settings{QuitOnFinish: true}).WithSession(session).Release(ctx)
		require.NoError(t, err)
		assert.Nil(t, s.Session())
		assert.True(t, session.Quitted())
	})
}
