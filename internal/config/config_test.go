package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "somacli/internal/errors"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "SOMA_SMARTSHEET_ACCESS_TOKEN", "test-token")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Smartsheet.AccessToken)
	assert.Equal(t, "https://api.smartsheet.com/2.0", cfg.Smartsheet.BaseURL)
	assert.Equal(t, "Neuron Reconstructions", cfg.Smartsheet.SheetName)
	assert.Equal(t, "LC", cfg.Analysis.DefaultLocation)
	assert.Equal(t, "svg", cfg.Analysis.PlotFormat)
	assert.Equal(t, "csv", cfg.Analysis.ReportFormat)
	assert.Equal(t, 50, cfg.Analysis.MaxSamplesDisplay)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingToken(t *testing.T) {
	setEnv(t, "SOMA_SMARTSHEET_ACCESS_TOKEN", "")

	_, err := LoadFrom("")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "SOMA_SMARTSHEET_ACCESS_TOKEN")
}

func TestLoad_InvalidPlotFormat(t *testing.T) {
	setEnv(t, "SOMA_SMARTSHEET_ACCESS_TOKEN", "test-token")
	setEnv(t, "SOMA_ANALYSIS_PLOT_FORMAT", "pdf")

	_, err := LoadFrom("")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setEnv(t, "SOMA_SMARTSHEET_ACCESS_TOKEN", "env-token")
	setEnv(t, "SOMA_OUTPUT_DIR", "env-results")

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := "smartsheet:\n  sheet_name: Custom Sheet\noutput:\n  dir: file-results\n"
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	cfg, err := LoadFrom(configFile)
	require.NoError(t, err)

	// File supplies values the environment does not
	assert.Equal(t, "Custom Sheet", cfg.Smartsheet.SheetName)
	// Environment wins when both are set
	assert.Equal(t, "env-results", cfg.Output.Dir)
}

func TestEnsureOutputDir(t *testing.T) {
	setEnv(t, "SOMA_SMARTSHEET_ACCESS_TOKEN", "test-token")
	setEnv(t, "SOMA_OUTPUT_DIR", filepath.Join(t.TempDir(), "nested", "results"))

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	require.NoError(t, cfg.EnsureOutputDir())
	info, err := os.Stat(cfg.Output.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReportPath(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Dir: "results"}}
	assert.Equal(t, filepath.Join("results", "soma_analysis_LC_20240101_120000.csv"),
		cfg.ReportPath("soma_analysis_LC_20240101_120000.csv"))
}
