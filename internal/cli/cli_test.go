package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/genediff/internal/model"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(model.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestNewLogger_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(model.LogConfig{Level: "chatty", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestReadGeneLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"up_regulated":["A"],"down_regulated":["B","C"]}`), 0o644))

	lists, err := readGeneLists(nil, path)
	require.NoError(t, err)
	assert.Equal(t, model.GeneLists{UpRegulated: []string{"A"}, DownRegulated: []string{"B", "C"}}, lists)

	lists, err = readGeneLists(strings.NewReader(`{"up_regulated":[],"down_regulated":["X"]}`), "-")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, lists.DownRegulated)

	_, err = readGeneLists(strings.NewReader(`{`), "-")
	assert.Error(t, err)
}

func TestReadGeneLists_MissingList(t *testing.T) {
	_, err := readGeneLists(strings.NewReader(`{"down_regulated":["X"]}`), "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "up_regulated is required")

	_, err = readGeneLists(strings.NewReader(`{"up_regulated":["X"],"down_regulated":null}`), "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down_regulated is required")
}

func TestProcessedDirFlag(t *testing.T) {
	for _, name := range []string{"build", "serve", "compare"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, cmd.InheritedFlags().Lookup("processed-dir"), name)
		assert.Nil(t, cmd.LocalFlags().Lookup("data-dir"), name)
	}

	initConfig()
	dir := t.TempDir()
	flag := rootCmd.PersistentFlags().Lookup("processed-dir")
	require.NoError(t, rootCmd.PersistentFlags().Set("processed-dir", dir))
	t.Cleanup(func() {
		_ = flag.Value.Set("")
		flag.Changed = false
	})

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Data.ProcessedDir)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# genediff configuration"))
	assert.Contains(t, string(data), "martservice")
	assert.Contains(t, string(data), "processed_dir: processed_data")
}
