package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig merges base.yaml and <env>.yaml in that order, then replaces
// ${VAR} placeholders from secrets.env and the process environment.
// Unresolved placeholders are left as is for the caller to validate.
func LoadConfig(env string, configDir string) (map[string]any, error) {
	if configDir == "" {
		configDir = "config"
	}

	merged, err := loadYAMLFile(filepath.Join(configDir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}

	if env != "" && env != "base" {
		overlay, err := loadYAMLFile(filepath.Join(configDir, env+".yaml"))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// the secrets file is optional
		case err != nil:
			return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
		default:
			merged = mergeMaps(merged, overlay)
		}
	}

	secrets, err := godotenv.Read(filepath.Join(configDir, "secrets.env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load secrets.env: %w", err)
	}

	return expandPlaceholders(merged, lookupWith(secrets)), nil
}

// Decode decodes a merged config into out via a yaml round trip, so yaml tags
// and time.Duration parsing still apply.
func Decode(merged map[string]any, out any) error {
	raw, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to re-encode config: %w", err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func loadYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeMaps merges src into dst recursively; src wins.
func mergeMaps(dst, src map[string]any) map[string]any {
	result := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		result[k] = v
	}

	for k, v := range src {
		dstMap, dstOK := result[k].(map[string]any)
		srcMap, srcOK := v.(map[string]any)
		if dstOK && srcOK {
			result[k] = mergeMaps(dstMap, srcMap)
			continue
		}
		result[k] = v
	}
	return result
}

// lookupWith checks secrets.env first, then non-empty process variables.
func lookupWith(secrets map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := secrets[key]; ok {
			return v, true
		}
		if v := os.Getenv(key); v != "" {
			return v, true
		}
		return "", false
	}
}

func expandPlaceholders(node map[string]any, lookup func(string) (string, bool)) map[string]any {
	result := make(map[string]any, len(node))
	for k, v := range node {
		switch val := v.(type) {
		case string:
			result[k] = os.Expand(val, func(key string) string {
				if s, ok := lookup(key); ok {
					return s
				}
				return "${" + key + "}"
			})
		case map[string]any:
			result[k] = expandPlaceholders(val, lookup)
		default:
			result[k] = v
		}
	}
	return result
}

// GetEnv returns the environment variable key, or defaultValue if unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv returns CONFIG_ENV, defaulting to local.
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
