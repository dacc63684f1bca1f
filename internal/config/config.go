package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "CAMPAIGN"
	configFileName = "campaign"
)

type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
	DevAPIConfig
	Validate() error
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Client
	Storage
	DevAPI
}

// Option adjusts how the configuration is loaded.
type Option func(*loader)

type loader struct {
	file      string
	defaults  map[string]any
	overrides map[string]any
	flags     map[string]*pflag.Flag
	skipFiles bool
}

// WithConfigFile loads the given file instead of searching the default locations.
// A missing explicit file is an error.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.file = path
	}
}

// WithOverrides sets values that win over files and environment variables (CLI flags).
func WithOverrides(values map[string]any) Option {
	return func(l *loader) {
		if l.overrides == nil {
			l.overrides = make(map[string]any)
		}
		for k, v := range values {
			l.overrides[k] = v
		}
	}
}

// WithDefaults replaces built-in defaults, e.g. a command that wants a
// different token store than library users get.
func WithDefaults(values map[string]any) Option {
	return func(l *loader) {
		if l.defaults == nil {
			l.defaults = make(map[string]any)
		}
		for k, v := range values {
			l.defaults[k] = v
		}
	}
}

// WithFlag binds a command line flag to key. The flag only wins when it was set.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(l *loader) {
		if flag == nil {
			return
		}
		if l.flags == nil {
			l.flags = make(map[string]*pflag.Flag)
		}
		l.flags[key] = flag
	}
}

// WithoutConfigFiles skips the default file search; only defaults, env and overrides apply.
func WithoutConfigFiles() Option {
	return func(l *loader) {
		l.skipFiles = true
	}
}

// New reads defaults, an optional campaign.yaml, CAMPAIGN_* environment
// variables and overrides, in increasing order of precedence.
func New(options ...Option) (Config, error) {
	l := &loader{}
	for _, opt := range options {
		opt(l)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for k, val := range l.defaults {
		v.SetDefault(k, val)
	}

	switch {
	case l.file != "":
		v.SetConfigFile(l.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "[config.New] read config file")
		}
	case !l.skipFiles:
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "campaign"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "[config.New] read config file")
			}
		}
	}

	for k, flag := range l.flags {
		if err := v.BindPFlag(k, flag); err != nil {
			return nil, errors.Wrapf(err, "[config.New] bind flag %s", flag.Name)
		}
	}
	for k, val := range l.overrides {
		v.Set(k, val)
	}

	c := mainConfig{
		EnvVars: EnvVars{v: v},
		Client:  Client{v: v},
		Storage: Storage{v: v},
		DevAPI:  DevAPI{v: v},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
