package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/driver/drivertest"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

var testSettings = config.Settings{Wait: 50 * time.Millisecond, Interval: 5 * time.Millisecond}

const loginScript = `
name: login
vars:
  base: https://example.com
steps:
  - navigate: ${base}/login
  - type: {name: user, text: alice}
  - click: {id: submit}
  - assert_url: "${base}/home*"
  - context:
      label: welcome
      steps:
        - wait_visible: {css: h1, timeout: 1s, interval: 1ms}
        - assert_text: {css: h1, contains: alice}
        - assert_count: {tag: li, count: 2}
`

func loginSession() *drivertest.Session {
	session := drivertest.NewSession()
	session.AddPage("https://example.com/login",
		drivertest.Elem("input").WithName("user"),
		drivertest.Elem("button#submit").WithText("Sign in").Clicked(func(s *drivertest.Session) {
			s.SetURL("https://example.com/home")
			s.SetDocument(
				drivertest.Elem("h1").WithText("Hello alice"),
				drivertest.Elem("ul", drivertest.Elem("li"), drivertest.Elem("li")),
			)
		}),
	)
	return session
}

func compile(t *testing.T, src string) step.Step[step.Unit] {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	prog, err := s.Compile()
	require.NoError(t, err)
	return prog
}

func TestLoginScript(t *testing.T) {
	session := loginSession()
	s, _, err := step.RunOrError(context.Background(), compile(t, loginScript), session, testSettings)
	require.NoError(t, err, s.Log().String())

	lines := s.Log().Lines()
	require.NotEmpty(t, lines)
	assert.Equal(t, "login", lines[0])
	assert.Contains(t, lines, "    welcome")
	assert.Equal(t, "navigate https://example.com/login", session.Calls[0])
	assert.Contains(t, session.Calls, "type input[name=user] alice")
}

func TestFailureCarriesBreadcrumb(t *testing.T) {
	src := `
name: checkout
steps:
  - context:
      label: cart
      steps:
        - click: {id: pay}
`
	s, _ := step.Run(context.Background(), compile(t, src), drivertest.NewSession(), testSettings)
	assert.EqualError(t, s.Err(), `no element found for id "pay" (checkout → cart)`)
}

func TestAnyOfFallsBack(t *testing.T) {
	src := `
steps:
  - any_of:
      - [{click: {id: accept-cookies}}]
      - [{log: no cookie banner}]
`
	s, _ := step.Run(context.Background(), compile(t, src), drivertest.NewSession(), testSettings)
	require.NoError(t, s.Err())
	assert.Contains(t, s.Log().Lines(), "INFO: no cookie banner")
}

func TestCollectReportsEveryFailure(t *testing.T) {
	src := `
steps:
  - collect:
      - click: {id: a}
      - log: between
      - click: {id: b}
`
	s, _ := step.Run(context.Background(), compile(t, src), drivertest.NewSession(), testSettings)
	require.True(t, s.Failed())
	errs := s.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, state.KindAggregate, errs[0].Kind)
	assert.Len(t, errs[0].Nested, 2)
	assert.Contains(t, s.Log().Lines(), "INFO: between")
}

func TestUndefinedVariable(t *testing.T) {
	s, _ := step.Run(context.Background(), compile(t, "steps: [{navigate: '${host}/x'}]"), drivertest.NewSession(), testSettings)
	assert.EqualError(t, s.Err(), `undefined variable(s) host in "${host}/x"`)
}

func TestExpandLeavesBareDollars(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "price", text: "costs $5 for ${item}", want: "costs $5 for tea"},
		{name: "double dollar", text: "$$ ${item}", want: "$$ tea"},
		{name: "query", text: "https://x/?q=$foo&i=${item}", want: "https://x/?q=$foo&i=tea"},
		{name: "jquery", text: "$('#cart').text()", want: "$('#cart').text()"},
		{name: "unclosed", text: "${item", want: "${item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := step.Then(step.SetConfig("item", "tea"), Expand(tt.text))
			s, got := step.Run(context.Background(), prog, drivertest.NewSession(), testSettings)
			require.NoError(t, s.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScriptAndResize(t *testing.T) {
	session := drivertest.NewSession()
	session.Scripts["return document.title"] = "Home"

	src := `
steps:
  - resize: {width: 800, height: 600}
  - script: return document.title
`
	s, _ := step.Run(context.Background(), compile(t, src), session, testSettings)
	require.NoError(t, s.Err())
	w, h := session.WindowSize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Contains(t, s.Log().Lines(), "INFO: script returned Home")
}

func TestAlertInstruction(t *testing.T) {
	session := drivertest.NewSession()
	session.OpenAlert("sure?")

	s, _ := step.Run(context.Background(), compile(t, "steps: [{alert: accept}]"), session, testSettings)
	require.NoError(t, s.Err())
	present, err := session.AlertPresent(context.Background())
	require.NoError(t, err)
	assert.False(t, present)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"two instructions", "steps: [{navigate: x, log: y}]", "steps[0]: expected exactly one instruction, got 2 [navigate log]"},
		{"empty instruction", "steps: [{}]", "steps[0]: expected exactly one instruction, got 0 []"},
		{"no locator", "steps: [{click: {text: x}}]", "steps[0]: target needs exactly one locator, got 0"},
		{"two locators", "steps: [{click: {id: a, css: b}}]", "steps[0]: target needs exactly one locator, got 2"},
		{"assert text operand", "steps: [{assert_text: {id: a}}]", "steps[0]: assert_text needs equals or contains"},
		{"assert count operand", "steps: [{assert_count: {id: a}}]", "steps[0]: assert_count needs count"},
		{"alert verb", "steps: [{alert: maybe}]", `steps[0]: alert must be accept or dismiss, got "maybe"`},
		{"nested", "steps: [{context: {label: x, steps: [{click: {}}]}}]", "steps[0].context[0]: target needs exactly one locator, got 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.src))
			require.NoError(t, err)
			_, err = s.Compile()
			assert.EqualError(t, err, tt.want)
		})
	}

	_, err := Parse([]byte("name: empty"))
	assert.EqualError(t, err, "script has no steps")
}

func TestLoadDefaultsName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: [{log: hi}]"), 0600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke.yaml", s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
