package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogger(t *testing.T) {
	l := logrus.New()

	require.NoError(t, configureLogger(l, "debug", "json"))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	require.NoError(t, configureLogger(l, "warn", ""))
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	assert.Error(t, configureLogger(l, "loud", "text"))
	assert.Error(t, configureLogger(l, "info", "xml"))
}

func TestRunFlags_Options(t *testing.T) {
	appSettings = nil
	var flags runFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)

	opts := flags.options(cmd)
	assert.Nil(t, opts.Seed)
	assert.Nil(t, opts.MaxImages)

	require.NoError(t, cmd.ParseFlags([]string{"-t", "noir", "-s", "sexy", "--seed", "0", "-n", "5", "--mode", "random"}))
	opts = flags.options(cmd)
	assert.Equal(t, "noir", opts.Theme)
	assert.Equal(t, "sexy", opts.Style)
	assert.Equal(t, "random", string(opts.Mode))
	require.NotNil(t, opts.Seed)
	assert.Equal(t, int64(0), *opts.Seed)
	require.NotNil(t, opts.MaxImages)
	assert.Equal(t, 5, *opts.MaxImages)
}

func TestInitThenGenerate(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	work := t.TempDir()
	t.Chdir(work)

	rootCmd.SetArgs([]string{"init", work})
	require.NoError(t, rootCmd.Execute())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)
	rootCmd.SetArgs([]string{"generate", filepath.Join(work, "prompts", "rainy-street.prompt.yaml"), "-f", "jsonl"})
	require.NoError(t, rootCmd.Execute())

	scanner := bufio.NewScanner(&out)
	var seeds []int64
	for scanner.Scan() {
		var rec struct {
			Seed   int64  `json:"seed"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		assert.Contains(t, rec.Prompt, "standing on a rainy street at night")
		seeds = append(seeds, rec.Seed)
	}
	require.Len(t, seeds, 10)
	assert.Equal(t, int64(42), seeds[0])
	assert.Equal(t, int64(51), seeds[9])
}
