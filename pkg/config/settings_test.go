package config

import (
	"errors"
	"testing"
	"time"

	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSettingsWithDefaults(t *testing.T) {
	s := Settings{Wait: 2 * time.Second}.WithDefaults()

	assert.Equal(t, 2*time.Second, s.Wait)
	assert.Equal(t, DefaultInterval, s.Interval)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.Error(t, Settings{Wait: -time.Second}.Validate())
	assert.Error(t, Settings{Interval: -time.Second}.Validate())
}

func TestSettingsSinks(t *testing.T) {
	var lines []string
	var events, failures []types.RunEvent
	var failed error

	s := Settings{
		LoggingAction: func(text string, indent int) { lines = append(lines, text) },
		LogStream:     func(e types.RunEvent) { events = append(events, e) },
		ErrorStream:   func(e types.RunEvent) { failures = append(failures, e) },
		FailureAction: func(err error, _ logtree.Log) { failed = err },
	}

	s.Log("INFO: hello", 0)
	s.Emit(types.NewAppendEvent("info", "hello", 0))
	s.Emit(types.NewFailureEvent(errors.New("boom"), 0))
	s.Fail(errors.New("final"), logtree.Empty(0))

	assert.Equal(t, []string{"INFO: hello"}, lines)
	assert.Len(t, events, 2)
	assert.Len(t, failures, 1)
	assert.EqualError(t, failed, "final")
}

func TestSettingsSinksAreOptional(t *testing.T) {
	s := DefaultSettings()

	assert.NotPanics(t, func() {
		s.Log("x", 0)
		s.Emit(types.NewFailureEvent(errors.New("boom"), 0))
		s.Fail(errors.New("boom"), logtree.Empty(0))
	})
}
