package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagvault/pkg/adapters/codec"
	"github.com/aretw0/tagvault/pkg/core"
	"github.com/aretw0/tagvault/pkg/loop"
)

// DefaultStarter is the document a tag starts from when it holds nothing usable.
const DefaultStarter = `{
	// bumped when the document layout changes
	"version": 1,
	"counter": 0
}`

// Config is the file and environment configuration of a tagvault deployment.
// Environment variables override the file.
type Config struct {
	Key          string        `yaml:"key"           env:"TAGVAULT_KEY"`
	KeyType      string        `yaml:"key_type"      env:"TAGVAULT_KEY_TYPE"`
	Codec        string        `yaml:"codec"         env:"TAGVAULT_CODEC"`
	Strict       bool          `yaml:"strict"        env:"TAGVAULT_STRICT"`
	ResetUIDs    []string      `yaml:"reset_uids"    env:"TAGVAULT_RESET_UIDS" envSeparator:","`
	ResumeWindow time.Duration `yaml:"resume_window" env:"TAGVAULT_RESUME_WINDOW"`
	PollInterval time.Duration `yaml:"poll_interval" env:"TAGVAULT_POLL_INTERVAL"`
	// Starter is a JSON document; comments and trailing commas are allowed.
	Starter string `yaml:"starter" env:"TAGVAULT_STARTER"`
	// Version is the value the "version" field of a stored document must hold.
	// Zero accepts any document.
	Version int64 `yaml:"version" env:"TAGVAULT_VERSION"`
	// Counter is the integer field incremented on every presentation.
	Counter string `yaml:"counter" env:"TAGVAULT_COUNTER"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Key:          "ffffffffffff",
		KeyType:      "a",
		Codec:        "json",
		ResumeWindow: loop.DefaultResumeWindow,
		PollInterval: 10 * time.Millisecond,
		Starter:      DefaultStarter,
		Version:      1,
		Counter:      "counter",
	}
}

// LoadConfig reads the YAML file at path, when path is not empty, over the defaults
// and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field that can be checked without a tag.
func (c Config) Validate() error {
	var errs []error
	if _, _, err := c.SessionKey(); err != nil {
		errs = append(errs, err)
	}
	if _, err := codec.ByName(c.Codec, c.Strict); err != nil {
		errs = append(errs, err)
	}
	if err := loop.ValidateResetUIDs(c.ResetUIDs); err != nil {
		errs = append(errs, err)
	}
	if c.ResumeWindow < 0 {
		errs = append(errs, fmt.Errorf("resume_window must not be negative"))
	}
	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll_interval must not be negative"))
	}
	if _, err := c.Settings(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SessionKey parses the sector key and the key slot it authenticates against.
func (c Config) SessionKey() (core.Key, core.KeyType, error) {
	key, err := core.ParseKey(c.Key)
	if err != nil {
		return core.Key{}, 0, err
	}
	switch strings.ToLower(c.KeyType) {
	case "", "a":
		return key, core.KeyA, nil
	case "b":
		return key, core.KeyB, nil
	default:
		return core.Key{}, 0, fmt.Errorf("unknown key_type %q (want a or b)", c.KeyType)
	}
}

// DocumentCodec returns the configured bank encoding.
func (c Config) DocumentCodec() (core.Codec, error) {
	return codec.ByName(c.Codec, c.Strict)
}

// StarterDocument parses the starter document.
func (c Config) StarterDocument() (core.Document, error) {
	doc, err := ParseDocument(c.Starter, c.Strict)
	if err != nil {
		return nil, fmt.Errorf("starter: %w", err)
	}
	return doc, nil
}

// Settings returns the part of the configuration the control loop can reload.
func (c Config) Settings() (loop.Settings, error) {
	starter, err := c.StarterDocument()
	if err != nil {
		return loop.Settings{}, err
	}
	return loop.Settings{
		ResetUIDs:    c.ResetUIDs,
		Starter:      starter,
		ResumeWindow: c.ResumeWindow,
	}, nil
}

// ParseDocument decodes a JSON document that may carry comments and trailing commas.
func ParseDocument(src string, strict bool) (core.Document, error) {
	return codec.NewJSON(strict).Decode(jsonc.ToJSON([]byte(src)))
}
