package step

import (
	"context"
	"testing"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/driver/drivertest"
	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReleasesSession(t *testing.T) {
	session := drivertest.NewSession()
	s, v := Run(context.Background(), Pure(1), session, config.Settings{QuitOnFinish: true})

	assert.Equal(t, 1, v)
	assert.True(t, session.Quitted())
	assert.Nil(t, s.Session())
}

func TestRunKeepsSessionByDefault(t *testing.T) {
	session := drivertest.NewSession()
	_, _ = Run(context.Background(), Done(), session, config.Settings{})
	assert.False(t, session.Quitted())
}

func TestRunOrErrorCallsFailureAction(t *testing.T) {
	var gotErr error
	var gotLog logtree.Log
	settings := config.Settings{FailureAction: func(err error, log logtree.Log) {
		gotErr, gotLog = err, log
	}}

	_, _, err := RunOrError(context.Background(), Context("A", Fail[Unit]("boom")), nil, settings)

	require.Error(t, err)
	assert.EqualError(t, err, "boom (A)")
	assert.Equal(t, err, gotErr)
	assert.Equal(t, []string{"A", "    ERRO: boom"}, gotLog.Lines())
}

func TestSessionSteps(t *testing.T) {
	s, _ := exec(t, Session())
	assert.ErrorIs(t, s.Err(), ErrNoSession)

	session := drivertest.NewSession()
	_, got, err := RunOrError(context.Background(), WithSession("url", func(ctx context.Context, d driver.Session) (string, error) {
		return d.CurrentURL(ctx)
	}), session, config.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "about:blank", got)
}

func TestConfigSteps(t *testing.T) {
	s, v := exec(t, Then(SetConfig("user", "alice"), Config("user")))
	assert.False(t, s.Failed())
	assert.Equal(t, "alice", v)

	s, _ = exec(t, Config("missing"))
	assert.EqualError(t, s.Err(), `config key "missing" is not set`)

	_, v = exec(t, ConfigOr("missing", "def"))
	assert.Equal(t, "def", v)
}
