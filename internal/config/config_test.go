package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "auto", cfg.Mode)
	assert.Equal(t, "ledongthuc", cfg.Engine)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 0, cfg.DescriptionColumn)
	assert.Equal(t, 2, cfg.WeightsColumn)
	assert.Equal(t, "DG Form", cfg.Sheet)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 32, cfg.CacheSize)
	assert.Equal(t, "packlist", cfg.ServerName)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.Directory)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "bad mode", modify: func(c *Config) { c.Mode = "ocr" }, wantErr: "invalid mode"},
		{name: "bad engine", modify: func(c *Config) { c.Engine = "pdfium" }, wantErr: "invalid engine"},
		{name: "zero max size", modify: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "must be positive"},
		{name: "negative column", modify: func(c *Config) { c.WeightsColumn = -1 }, wantErr: "cannot be negative"},
		{name: "same columns", modify: func(c *Config) { c.WeightsColumn = 0 }, wantErr: "must differ"},
		{name: "negative cache", modify: func(c *Config) { c.CacheSize = -1 }, wantErr: "cache size"},
		{name: "negative debounce", modify: func(c *Config) { c.Debounce = -time.Second }, wantErr: "debounce"},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFlagsAndPositionals(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, rest, err := Load("extract", []string{"--mode=table", "--keep-incomplete", "--weights-col", "3", "list.pdf"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Mode)
	assert.True(t, cfg.KeepIncomplete)
	assert.Equal(t, 3, cfg.WeightsColumn)
	assert.Equal(t, []string{"list.pdf"}, rest)
}

func TestLoadWatchFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, _, err := Load("watch", []string{"--scan", "--debounce=2s", "--dir=inbox", "--out=results"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, cfg.InitialScan)
	assert.Equal(t, 2*time.Second, cfg.Debounce)
	assert.True(t, filepath.IsAbs(cfg.Directory))
	assert.Equal(t, "results", filepath.Base(cfg.OutputDir))
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PACKLIST_ENGINE", "fitz")
	t.Setenv("PACKLIST_DESC_COL", "1")
	t.Setenv("PACKLIST_LOGLEVEL", "DEBUG")

	cfg, _, err := Load("extract", nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "fitz", cfg.Engine)
	assert.Equal(t, 1, cfg.DescriptionColumn)
	assert.True(t, cfg.IsDebug())

	// flags win over the environment
	cfg, _, err = Load("extract", []string{"--engine=ledongthuc"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "ledongthuc", cfg.Engine)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PACKLIST_SHEET=Declaration\n"), 0o600))
	t.Setenv("PACKLIST_SHEET", "")
	require.NoError(t, os.Unsetenv("PACKLIST_SHEET"))

	cfg, _, err := Load("dgdec", nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "Declaration", cfg.Sheet)
}

func TestLoadErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := Load("extract", []string{"--version"}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrVersionRequested))

	_, _, err = Load("extract", []string{"--mode=ocr"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	var usage bytes.Buffer
	_, _, err = Load("extract", []string{"--no-such-flag"}, &usage)
	require.Error(t, err)
	assert.Contains(t, usage.String(), "PACKLIST_MODE")
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Directory = filepath.Join(root, "inbox")
	cfg.OutputDir = filepath.Join(root, "results")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Directory)
	assert.DirExists(t, cfg.OutputDir)

	cfg.Directory = ""
	assert.Error(t, cfg.EnsureDirectories())
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, "Mode: auto")
	assert.Contains(t, s, "Engine: ledongthuc")
}
