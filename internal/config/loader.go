package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LPCASSIST_"

	// DefaultPath is loaded when Load is called without a path and the
	// file exists in the working directory.
	DefaultPath = "lpcassist.yaml"
)

// Load builds the configuration.
//
// Precedence (highest to lowest):
//  1. LPCASSIST_* environment variables
//  2. OLLAMA_URL and OLLAMA_TIMEOUT_SECS, when the llm keys are unset
//  3. The YAML file at path (or DefaultPath if present)
//  4. Defaults
//
// Environment keys split on the first underscore after the prefix:
//
//	LPCASSIST_LLM_BASE_URL         -> llm.base_url
//	LPCASSIST_SERVER_PORT          -> server.port
//	LPCASSIST_BENCHMARK_MODELS=a,b -> benchmark.models
//
// An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := applyOllamaEnv(k); err != nil {
		return nil, err
	}

	// zapcore cannot parse the custom trace level.
	trace := strings.EqualFold(k.String("logging.level"), "trace")
	if trace {
		k.Delete("logging.level")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if trace {
		cfg.Logging.Level = logging.TraceLevel
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps LPCASSIST_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// applyOllamaEnv honours the plain OLLAMA_* variables used by other Ollama
// tooling when the llm section does not set the same values.
func applyOllamaEnv(k *koanf.Koanf) error {
	if url := os.Getenv("OLLAMA_URL"); url != "" && !k.Exists("llm.base_url") {
		if err := k.Set("llm.base_url", url); err != nil {
			return fmt.Errorf("applying OLLAMA_URL: %w", err)
		}
	}
	if secs := os.Getenv("OLLAMA_TIMEOUT_SECS"); secs != "" && !k.Exists("llm.timeout") {
		n, err := strconv.Atoi(secs)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: OLLAMA_TIMEOUT_SECS must be a positive integer, got %q", ErrInvalidConfig, secs)
		}
		if err := k.Set("llm.timeout", (time.Duration(n) * time.Second).String()); err != nil {
			return fmt.Errorf("applying OLLAMA_TIMEOUT_SECS: %w", err)
		}
	}
	return nil
}

// readConfigFile reads a regular config file of at most 1MB.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(content) > maxConfigFileSize {
		return nil, errors.New("config file too large")
	}
	return content, nil
}

// validateConfigFileProperties rejects directories, oversized files and
// world-writable files.
func validateConfigFileProperties(info os.FileInfo) error {
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", info.Name())
	}
	if info.Mode().Perm()&0o002 != 0 {
		return fmt.Errorf("insecure config file permissions: %v (world-writable)", info.Mode().Perm())
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
