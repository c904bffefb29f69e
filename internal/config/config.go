package config

import (
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/spf13/viper"
)

const DefaultPath = "./fargatectl.yaml"

type Config struct {
	Stacks      map[string]StackConfig `mapstructure:"stacks"`
	environment string
	declared    map[string]struct{}
	v           *viper.Viper
}

type StackConfig struct {
	Environments map[string]EnvironmentConfig `mapstructure:"environments"`
	Extras       map[string]any               `mapstructure:",remain"`
}

type EnvironmentConfig struct {
	Extras map[string]any `mapstructure:",remain"`
}

func newConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.v = v
	cfg.declared = declaredStacks(v)
	return &cfg, nil
}

// declaredStacks collects the stack keys as written. viper drops keys with empty or null
// values from AllKeys, a stack declared as `name: {}` still counts.
func declaredStacks(v *viper.Viper) map[string]struct{} {
	declared := map[string]struct{}{}
	if raw, ok := v.Get("stacks").(map[string]any); ok {
		for k := range raw {
			declared[strings.ToLower(k)] = struct{}{}
		}
	}
	return declared
}

func NewConfigFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return newConfigFromViper(v)
}

func NewConfigFromReader(reader io.Reader) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(reader); err != nil {
		return nil, fmt.Errorf("reading config from reader: %w", err)
	}

	return newConfigFromViper(v)
}

// Environment returns the environment the config was narrowed to, empty for the base config.
func (c *Config) Environment() string {
	return c.environment
}

// WithEnvironment returns a copy of the config where every stack that declares env has the
// environment section deep-merged over its base values. Stacks without the environment keep
// their base values.
func (c *Config) WithEnvironment(env string) (*Config, error) {
	newV := viper.New()

	if err := newV.MergeConfigMap(c.v.AllSettings()); err != nil {
		return nil, fmt.Errorf("merging config map from global config instance: %w", err)
	}

	found := false
	overrides := map[string]any{}
	for k, stack := range c.Stacks {
		envPart, ok := stack.Environments[env]
		if !ok {
			continue
		}
		found = true
		overrides[k] = envPart.Extras
	}
	if !found {
		return nil, fmt.Errorf("%w - environment '%s' not found in config", lib.BadUserInputError, env)
	}

	if err := newV.MergeConfigMap(map[string]any{"stacks": overrides}); err != nil {
		return nil, fmt.Errorf("merging environment config map: %w", err)
	}

	cfg, err := newConfigFromViper(newV)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling config with environment: %w", err)
	}
	cfg.environment = env
	maps.Copy(cfg.declared, c.declared)

	return cfg, nil
}

// HasStack reports whether the stack is declared. Keys are matched case-insensitively since
// viper lowercases them.
func (c *Config) HasStack(stack string) bool {
	key := strings.ToLower(stack)
	if _, ok := c.declared[key]; ok {
		return true
	}
	_, ok := c.Stacks[key]
	return ok
}

// LoadStackConfigPart decodes the stack section (or one of its nested parts) into cfg. A stack
// declared without any values leaves cfg untouched.
func (c *Config) LoadStackConfigPart(cfg any, stack string, partKeys ...string) error {
	keyParts := append([]string{"stacks", strings.ToLower(stack)}, partKeys...)
	key := strings.Join(keyParts, ".")
	if !c.v.IsSet(key) {
		if len(partKeys) == 0 && c.HasStack(stack) {
			return nil
		}
		return fmt.Errorf("%w - config not found for stack %s at %s", lib.BadUserInputError, stack, key)
	}

	if err := c.v.UnmarshalKey(key, cfg); err != nil {
		return fmt.Errorf("unmarshaling stack config: %w", err)
	}

	return nil
}

// HasStackConfigPart reports whether an optional nested part of the stack section is set.
func (c *Config) HasStackConfigPart(stack string, partKeys ...string) bool {
	keyParts := append([]string{"stacks", strings.ToLower(stack)}, partKeys...)
	return c.v.IsSet(strings.Join(keyParts, "."))
}
