package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules"

	"github.com/google/shlex"
	"github.com/spf13/viper"
)

const EnvPrefix = "PENFRAME"

// New returns a viper instance with defaults and environment binding in
// place. configFile may be empty, in which case penframe.yaml is searched in
// the working directory and ./config.
func New(configFile string) *viper.Viper {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("penframe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Default values
	v.SetDefault("output_dir", "results")
	v.SetDefault("parallel", 3)
	v.SetDefault("verbose", false)
	v.SetDefault("color", true)
	v.SetDefault("strict_stderr", true)
	v.SetDefault("upload.enabled", true)
	v.SetDefault("upload.url", "")
	v.SetDefault("upload.project_id", "")
	v.SetDefault("upload.api_key", "")
	v.SetDefault("upload.timeout", 10*time.Second)
	v.SetDefault("upload.max_payload_bytes", 0)
	for _, m := range modules.All() {
		key := "tools." + strings.ToLower(m.Name())
		v.SetDefault(key+".binary", m.Binary())
		v.SetDefault(key+".args", "")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (if any) and decodes the result. The returned
// path is the file that was read, or empty when only defaults, environment
// and flags apply.
func Load(v *viper.Viper) (*core.Config, string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	}

	var config core.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}

	return &config, v.ConfigFileUsed(), nil
}

// Validate checks the settings a run depends on before any tool is started.
func Validate(config *core.Config) error {
	var errs []error

	if strings.TrimSpace(config.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if config.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel must be at least 1, got %d", config.Parallel))
	}

	for name, opts := range config.Tools {
		if _, err := modules.Lookup(name); err != nil {
			errs = append(errs, fmt.Errorf("tools.%s: %w", name, err))
			continue
		}
		if _, err := shlex.Split(opts.Args); err != nil {
			errs = append(errs, fmt.Errorf("tools.%s.args: %w", name, err))
		}
	}

	if config.Upload.Enabled {
		if err := ValidateUpload(config.Upload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func ValidateUpload(upload core.UploadConfig) error {
	var missing []string
	if upload.URL == "" {
		missing = append(missing, "upload.url")
	}
	if upload.ProjectID == "" {
		missing = append(missing, "upload.project_id")
	}
	if upload.APIKey == "" {
		missing = append(missing, "upload.api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s (set them in the config file or as %s_UPLOAD_* variables)",
			core.ErrUploadNotConfigured, strings.Join(missing, ", "), EnvPrefix)
	}

	u, err := url.Parse(upload.URL)
	if err != nil {
		return fmt.Errorf("upload.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upload.url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("upload.url: missing host")
	}
	if upload.Timeout <= 0 {
		return fmt.Errorf("upload.timeout must be positive, got %s", upload.Timeout)
	}
	if upload.MaxPayloadBytes < 0 {
		return fmt.Errorf("upload.max_payload_bytes must not be negative, got %d", upload.MaxPayloadBytes)
	}
	return nil
}
