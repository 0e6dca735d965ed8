package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/state"
)

func failedState() state.State {
	s := state.New(config.Settings{})
	outer := s
	s = s.Push("login")
	s = s.Append(logtree.KindInfo, "typed user")
	s = s.Fail(state.Capability("click #go", errors.New("detached")))
	return s.Pop(outer, "login")
}

func TestParseVerbosity(t *testing.T) {
	assert.Equal(t, Quiet, ParseVerbosity("quiet"))
	assert.Equal(t, Verbose, ParseVerbosity("verbose"))
	assert.Equal(t, Debug, ParseVerbosity("debug"))
	assert.Equal(t, Normal, ParseVerbosity(""))
}

func TestLoggingActionIndents(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(Normal).WithWriter(&buf)

	settings := config.Settings{LoggingAction: c.LoggingAction()}
	s := state.New(settings)
	outer := s
	s = s.Push("checkout")
	s = s.Append(logtree.KindWarn, "slow")
	s.Pop(outer, "checkout")

	assert.Equal(t, "checkout\n    WARN: slow\n", buf.String())
}

func TestQuietConsoleSuppressesLines(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(Quiet).WithWriter(&buf)
	c.LoggingAction()("INFO: hello", 0)
	c.Header("run")
	assert.Empty(t, buf.String())
}

func TestFailureAction(t *testing.T) {
	s := failedState()

	var buf bytes.Buffer
	NewConsole(Debug).WithWriter(&buf).FailureAction()(s.Err(), s.Log())
	out := buf.String()

	assert.Contains(t, out, "✗ Error: click #go: detached (login)")
	assert.Contains(t, out, "capability: click #go")
	assert.Contains(t, out, "    INFO: typed user")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(Normal).WithWriter(&buf).Summary(failedState())
	out := buf.String()

	assert.Contains(t, out, "✗ FAILED")
	assert.Contains(t, out, "Contexts: 1  Warnings: 0  Errors: 1")
}

func TestNewSummary(t *testing.T) {
	start := time.Now().Add(-time.Second)
	sum := NewSummary("", "login.yaml", start, failedState())

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, statusFailed, sum.Status)
	require.Len(t, sum.Failures, 1)
	assert.Equal(t, "capability", sum.Failures[0].Kind)
	assert.Equal(t, "detached", sum.Failures[0].Cause)
	assert.Equal(t, []string{"login"}, sum.Failures[0].Crumbs)
	assert.Equal(t, 1, sum.Counts.Infos)
	assert.GreaterOrEqual(t, sum.Duration, time.Second)

	ok := NewSummary("run-1", "noop.yaml", start, state.New(config.Settings{}))
	assert.Equal(t, statusSuccess, ok.Status)
	assert.Empty(t, ok.Error)
}

func TestArtifactWriter(t *testing.T) {
	dir := t.TempDir()
	sum := NewSummary("run-1", "login.yaml", time.Now(), failedState())

	w := NewArtifactWriter(dir)
	require.NoError(t, w.WriteAll(sum))

	data, err := os.ReadFile(filepath.Join(dir, "run-1", "run.json"))
	require.NoError(t, err)
	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, sum.Log, decoded.Log)

	md, err := os.ReadFile(filepath.Join(dir, "run-1", "log.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "- **capability** click #go: detached (login)")
	assert.Contains(t, string(md), "    ERRO: click #go: detached")
}
