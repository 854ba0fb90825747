package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-humeval/internal/ports"
)

// EnvPrefix is the prefix of every environment override variable.
const EnvPrefix = "HUMRANK"

// ConfigLoader provides YAML configuration parsing, environment overrides,
// validation, and caching for ranking runs.
// Use ConfigLoader to load configurations from files or readers while
// benefiting from SHA256-based caching and comprehensive validation.
type ConfigLoader struct {
	// validator performs struct field validation and custom validation
	// rules for ranking configurations.
	validator *validator.Validate
	// cache stores validated configurations indexed by SHA256 hash of the
	// normalized configuration.
	// WARNING: Cached configurations MUST NOT be mutated.
	cache map[string]*Config
	// cacheMu provides thread-safe access to the cache map during
	// concurrent read and write operations.
	cacheMu sync.RWMutex
	// sf prevents duplicate validation when multiple goroutines request
	// the same configuration simultaneously.
	sf singleflight.Group
	// lookupEnv controls whether environment overrides are applied.
	lookupEnv bool
}

// NewConfigLoader creates a new loader with validation capabilities and an
// empty cache. Environment overrides are applied unless disabled with
// WithoutEnv.
// NewConfigLoader returns an error if validator registration fails.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()

	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ConfigLoader{
		validator: v,
		cache:     make(map[string]*Config),
		lookupEnv: true,
	}, nil
}

// WithoutEnv disables environment overrides and returns the loader.
func (cl *ConfigLoader) WithoutEnv() *ConfigLoader {
	cl.lookupEnv = false
	return cl
}

// load is the common implementation for loading configurations from byte
// data, utilizing singleflight to prevent duplicate validation and
// SHA256-based caching for efficiency.
// WARNING: The returned configuration is a pointer to a cached instance.
// Callers MUST NOT mutate it.
func (cl *ConfigLoader) load(ctx context.Context, data []byte) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config, err := cl.parseYAML(data)
	if err != nil {
		return nil, ports.NewConfigError("yaml", err)
	}

	if cl.lookupEnv {
		if err := applyEnv(config); err != nil {
			return nil, ports.NewConfigError(EnvPrefix, err)
		}
	}

	// Hash the normalized config, after overrides, not the raw bytes.
	hash, err := cl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		if cached, ok := cl.getCachedConfig(hash); ok {
			return cached, nil
		}

		if err := cl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		cl.cacheConfig(hash, config)
		return config, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Config), nil
}

// LoadFromFile loads a configuration from a YAML file.
// LoadFromFile returns an error if file reading, parsing, or validation
// fails.
func (cl *ConfigLoader) LoadFromFile(ctx context.Context, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, ports.NewConfigError(cleanPath, fmt.Errorf("failed to read file: %w", err))
	}

	return cl.load(ctx, data)
}

// LoadFromReader loads a configuration from an io.Reader.
// LoadFromReader reads all data into memory and performs the same
// validation as LoadFromFile.
func (cl *ConfigLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return cl.load(ctx, data)
}

// parseYAML decodes YAML on top of DefaultConfig. Strict decoding rejects
// unknown fields so configuration typos are not silently ignored.
func (cl *ConfigLoader) parseYAML(data []byte) (*Config, error) {
	config := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return config, nil
}

// applyEnv overlays HUMRANK_* environment variables.
func applyEnv(config *Config) error {
	var overrides EnvOverrides
	if err := envconfig.Process(EnvPrefix, &overrides); err != nil {
		return fmt.Errorf("processing env config: %w", err)
	}
	overrides.Apply(config)
	return nil
}

// validateConfig performs struct field validation followed by semantic
// validation of relationships between configuration elements.
func (cl *ConfigLoader) validateConfig(config *Config) error {
	if err := cl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := ValidateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// calculateConfigHash computes the SHA256 hash of a normalized Config for
// cache indexing, ensuring semantically identical configurations produce
// the same hash regardless of whitespace or key ordering differences.
func (cl *ConfigLoader) calculateConfigHash(config *Config) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedConfig is safe for concurrent use.
func (cl *ConfigLoader) getCachedConfig(hash string) (*Config, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()

	config, ok := cl.cache[hash]
	return config, ok
}

// cacheConfig is safe for concurrent use and overwrites any existing
// entry with the same hash.
func (cl *ConfigLoader) cacheConfig(hash string, config *Config) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache[hash] = config
}

// ClearCache removes all cached configurations, forcing subsequent loads
// to validate from source.
func (cl *ConfigLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache = make(map[string]*Config)
}
