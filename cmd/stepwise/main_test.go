package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/state"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "stepwise v"+version+"\n", out.String())
}

func TestRunRequiresScript(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run"})
	assert.Error(t, root.Execute())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvWait, config.EnvInterval, config.EnvDriver, config.EnvHeadless} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "stepwise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver:\n  name: playwright\n  headless: true\n"), 0600))

	root := newRootCmd()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{"--driver", "chromedp", "--headless=false", "--artifacts", "out"}))

	flags := &runFlags{}
	flags.Driver, _ = run.Flags().GetString("driver")
	flags.Headless, _ = run.Flags().GetBool("headless")
	flags.Artifacts, _ = run.Flags().GetString("artifacts")

	cfg, err := loadConfig(run, &cliFlags{ConfigFile: path, Verbosity: "quiet"}, flags)
	require.NoError(t, err)
	assert.Equal(t, config.DriverChromedp, cfg.Driver.Name)
	assert.False(t, cfg.Driver.Headless)
	assert.True(t, cfg.Artifacts.Enabled)
	assert.Equal(t, "out", cfg.Artifacts.OutputDir)
	assert.Equal(t, "quiet", cfg.Logging.Verbosity)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	root := newRootCmd()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)

	_, err = loadConfig(run, &cliFlags{}, &runFlags{Driver: "selenium"})
	assert.ErrorContains(t, err, "invalid driver: selenium")
}

func TestWriteArtifactsUsesFreshRunDirs(t *testing.T) {
	out := t.TempDir()
	first, err := writeArtifacts(out, "login.yaml", time.Now(), state.New(config.Settings{}))
	require.NoError(t, err)
	second, err := writeArtifacts(out, "login.yaml", time.Now(), state.New(config.Settings{}))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.FileExists(t, filepath.Join(first, "run.json"))
	assert.FileExists(t, filepath.Join(second, "run.json"))
}
