package configpaths_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumblegum/guitarcore/internal/configpaths"
)

func TestExt(t *testing.T) {
	tests := map[string]string{
		"json": "json",
		"yaml": "yaml",
		"yml":  "yaml",
		"toml": "toml",
		"ini":  "json",
	}
	for in, want := range tests {
		assert.Equal(t, want, configpaths.Ext(in), in)
	}
}

func TestUserPathIsFirst(t *testing.T) {
	tests := []struct {
		path string
		pick func(j, y, t []string) []string
	}{
		{path: "my.json", pick: func(j, _, _ []string) []string { return j }},
		{path: "my.yml", pick: func(_, y, _ []string) []string { return y }},
		{path: "my.toml", pick: func(_, _, t []string) []string { return t }},
		{path: "my.conf", pick: func(j, _, _ []string) []string { return j }},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			j, y, tm := configpaths.ConfigCandidatePaths(tt.path)
			got := tt.pick(j, y, tm)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.path, got[0])
		})
	}
}

func TestDefaultConfigDirFollowsXDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG only applies off Windows")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := configpaths.DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, configpaths.AppName), got)

	p, err := configpaths.DefaultNamedConfigPath("emulate", "yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, configpaths.AppName, "emulate.yaml"), p)

	j, _, _ := configpaths.ConfigCandidatePaths("")
	assert.Contains(t, j, filepath.Join(dir, configpaths.AppName, "config.json"))
}
