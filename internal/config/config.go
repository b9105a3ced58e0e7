// Package config loads the service configuration from YAML and validates it.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// DefaultFilePath is where the file backend keeps sessions when no path
// is configured.
const DefaultFilePath = ".statetree/sessions"

// Config is the full service configuration.
type Config struct {
	Listen   string  `yaml:"listen" validate:"required,hostname_port"`
	LogLevel string  `yaml:"log_level" validate:"oneof=debug info warn error"`
	Store    Store   `yaml:"store"`
	Session  Session `yaml:"session"`
	Security Secure  `yaml:"security"`
}

// Store selects and configures the tree store.
type Store struct {
	Backend string `yaml:"backend" validate:"oneof=memory file redis"`
	Path    string `yaml:"path" validate:"required_if=Backend file"`
	Redis   Redis  `yaml:"redis"`
}

// Redis configures the redis backend and the distributed locker.
type Redis struct {
	Address  string        `yaml:"address" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0,lte=15"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Session configures session handling.
type Session struct {
	LockTTL time.Duration `yaml:"lock_ttl" validate:"gte=0"`
}

// Secure configures protection of slot data at rest.
type Secure struct {
	// MaskFields are regular expressions matched against record field names.
	MaskFields []string `yaml:"mask_fields" validate:"dive,pattern"`

	// EncryptionKey is a hex encoded AES-256 key.
	EncryptionKey string `yaml:"encryption_key" validate:"omitempty,aeskey"`

	// FallbackKeys are previous keys, tried when decrypting.
	FallbackKeys []string `yaml:"fallback_keys" validate:"dive,aeskey"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
		Store: Store{
			Backend: BackendMemory,
			Redis: Redis{
				Address: "127.0.0.1:6379",
				Prefix:  "statetree:",
			},
		},
		Session: Session{LockTTL: 30 * time.Second},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	v, err := newValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %s", describe(verrs))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Backend == BackendRedis && c.Store.Redis.Address == "" {
		return errors.New("invalid config: store.redis.address is required for the redis backend")
	}
	return nil
}

// Keys decodes the encryption keys. It returns nil when encryption is off.
func (s Secure) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key: %w", err)
	}
	for _, k := range s.FallbackKeys {
		b, err := hex.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback key: %w", err)
		}
		fallback = append(fallback, b)
	}
	return active, fallback, nil
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("pattern", validateRegexp); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	if err := v.RegisterValidation("aeskey", validateAESKey); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return v, nil
}

func validateRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

func validateAESKey(fl validator.FieldLevel) bool {
	b, err := hex.DecodeString(fl.Field().String())
	return err == nil && len(b) == 32
}

func describe(errs validator.ValidationErrors) string {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s fails %q", e.Namespace(), e.Tag())
	}
	return msg
}
