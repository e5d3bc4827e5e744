package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		contents string
		want     Config
		wantErr  bool
	}{
		{
			"json",
			"config.json",
			"{\n\t\"token\": \" abc.def \",\n\t\"min_delay\": 1000,\n\t\"max_delay\": 3000\n}\n",
			Config{Token: "abc.def", MinDelay: ptr(1000), MaxDelay: ptr(3000)},
			false,
		},
		{
			"explicit zero delays",
			"config.yaml",
			"token: abc.def\nmin_delay: 0\nmax_delay: 0\n",
			Config{Token: "abc.def", MinDelay: ptr(0), MaxDelay: ptr(0)},
			false,
		},
		{
			"min delay without max",
			"config.yaml",
			"token: abc.def\nmin_delay: 500\n",
			Config{},
			true,
		},
		{
			"max delay without min",
			"config.json",
			`{"token": "abc.def", "max_delay": 500}`,
			Config{},
			true,
		},
		{
			"yaml",
			"config.yaml",
			"token: abc.def\napi_url: http://localhost:8080/api\n",
			Config{Token: "abc.def", APIURL: "http://localhost:8080/api"},
			false,
		},
		{
			"invalid json",
			"config.json",
			"{token: ",
			Config{},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.filename, tt.contents))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadOrLegacy(t *testing.T) {
	t.Run("missing legacy file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		got, err := LoadOrLegacy("")
		assert.NoError(t, err)
		assert.Equal(t, Config{}, got)
	})
	t.Run("legacy file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, LegacyPath), []byte(`{"token": "legacy"}`), 0600))
		t.Chdir(dir)
		got, err := LoadOrLegacy("")
		assert.NoError(t, err)
		assert.Equal(t, "legacy", got.Token)
	})
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadOrLegacy(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestConfig_Delays(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantMin int
		wantMax int
		wantOk  bool
	}{
		{"set", Config{MinDelay: ptr(1), MaxDelay: ptr(2)}, 1, 2, true},
		{"zeroes", Config{MinDelay: ptr(0), MaxDelay: ptr(0)}, 0, 0, true},
		{"not set", Config{}, 0, 0, false},
		{"half set", Config{MaxDelay: ptr(2)}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax, ok := tt.cfg.Delays()
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantMin, gotMin)
			assert.Equal(t, tt.wantMax, gotMax)
		})
	}
}

func TestLoad_halfDelays(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "min_delay: 500\n"))
	assert.ErrorIs(t, err, ErrHalfDelays)
}

func ptr[T any](v T) *T {
	return &v
}
