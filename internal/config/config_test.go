package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dookofcrds/PenFramework/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "penframe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, path, err := Load(New(filepath.Join(t.TempDir(), "absent.yaml")))
	// An explicitly named file that does not exist is an error.
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Empty(t, path)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err = Load(New(""))
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, 3, cfg.Parallel)
	assert.True(t, cfg.Color)
	assert.True(t, cfg.StrictStderr)
	assert.True(t, cfg.Upload.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, "amass", cfg.Tools["amass"].Binary)
	assert.Equal(t, "nmap", cfg.Tools["nmap"].Binary)
	assert.Equal(t, "nuclei", cfg.Tools["nuclei"].Binary)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
output_dir: scans
parallel: 1
upload:
  url: https://dradis.example
  project_id: "12"
  timeout: 5s
tools:
  nmap:
    args: "-sV -p 1-1000"
`)
	t.Setenv("PENFRAME_UPLOAD_API_KEY", "from-env")
	t.Setenv("PENFRAME_PARALLEL", "2")

	cfg, used, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, "scans", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Parallel)
	assert.Equal(t, "from-env", cfg.Upload.APIKey)
	assert.Equal(t, "12", cfg.Upload.ProjectID)
	assert.Equal(t, 5*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, "-sV -p 1-1000", cfg.Tools["nmap"].Args)
	assert.Equal(t, "nmap", cfg.Tools["nmap"].Binary)
	require.NoError(t, Validate(cfg))
}

func validConfig() *core.Config {
	return &core.Config{
		OutputDir: "results",
		Parallel:  3,
		Upload: core.UploadConfig{
			Enabled:   true,
			URL:       "https://dradis.example",
			ProjectID: "1",
			APIKey:    "k",
			Timeout:   10 * time.Second,
		},
		Tools: map[string]core.ToolOptions{"nmap": {Args: "-sV"}},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validConfig()))

	cases := map[string]func(*core.Config){
		"parallel":      func(c *core.Config) { c.Parallel = 0 },
		"output dir":    func(c *core.Config) { c.OutputDir = " " },
		"unknown tool":  func(c *core.Config) { c.Tools["masscan"] = core.ToolOptions{} },
		"bad args":      func(c *core.Config) { c.Tools["nmap"] = core.ToolOptions{Args: `-p "22`} },
		"missing key":   func(c *core.Config) { c.Upload.APIKey = "" },
		"bad scheme":    func(c *core.Config) { c.Upload.URL = "ftp://dradis.example" },
		"missing host":  func(c *core.Config) { c.Upload.URL = "https://" },
		"zero timeout":  func(c *core.Config) { c.Upload.Timeout = 0 },
		"negative size": func(c *core.Config) { c.Upload.MaxPayloadBytes = -1 },
	}
	for name, mutate := range cases {
		c := validConfig()
		mutate(c)
		assert.Error(t, Validate(c), name)
	}
}

func TestValidateIgnoresUploadWhenDisabled(t *testing.T) {
	c := validConfig()
	c.Upload = core.UploadConfig{Enabled: false}
	assert.NoError(t, Validate(c))
}

func TestValidateUploadNamesMissingKeys(t *testing.T) {
	err := ValidateUpload(core.UploadConfig{Timeout: time.Second})

	assert.ErrorIs(t, err, core.ErrUploadNotConfigured)
	assert.Contains(t, err.Error(), "upload.url")
	assert.Contains(t, err.Error(), "upload.project_id")
	assert.Contains(t, err.Error(), "upload.api_key")
}

func TestDumpRedactsAPIKey(t *testing.T) {
	c := validConfig()
	c.Upload.APIKey = "super-secret"

	data, err := Dump(c)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "super-secret")
	assert.Contains(t, string(data), "********")
	assert.Equal(t, "super-secret", c.Upload.APIKey)
}
