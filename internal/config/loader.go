package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "MEDASSIST"
	configBaseName = "medassist"
	defaultBaseURL = "http://localhost:8000/api"
)

// Load reads configFile (or medassist.yaml from the usual locations when empty),
// applies MEDASSIST_* environment overrides and validates the result.
// A missing config file is not an error.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		v.SetConfigFile(found)
	} else {
		v.SetConfigName(configBaseName)
		v.SetConfigType("yaml")
	}

	// MEDASSIST_API_BASE_URL overrides api.base_url
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("[config Load] failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("[config Load] failed to unmarshal config: %w", err)
	}

	if err := Validate(s); err != nil {
		return nil, err
	}
	return New(s), nil
}

// Validate checks settings against their struct tags.
func Validate(s Settings) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidConfig, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()

	v.SetDefault("env", "DEV")
	v.SetDefault("app_name", "MedAssist")
	v.SetDefault("log_level", "info")
	v.SetDefault("api.base_url", defaultBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.single_flight_refresh", true)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", filepath.Join(dataDir, "credentials.json"))
	v.SetDefault("store.passphrase", "")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_prefix", "medassist")
	v.SetDefault("store.refresh_ttl", time.Duration(0))
	v.SetDefault("store.sqlite_path", filepath.Join(dataDir, "credentials.db"))
	v.SetDefault("metrics.enabled", false)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".medassist"
	}
	return filepath.Join(home, ".medassist")
}

func findConfigFile() string {
	return findConfigFileInPaths([]string{".", defaultDataDir()})
}

func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configBaseName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
