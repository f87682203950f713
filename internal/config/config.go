package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/providers"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("openai", defaults.OpenAI)
	viper.SetDefault("generation", defaults.Generation)
	viper.SetDefault("print", defaults.Print)

	// Environment variables with EASEL_ prefix
	viper.SetEnvPrefix("EASEL")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.easel")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToOpenAIConfig converts the config to provider client options, resolving
// ${ENV_VAR} references in the API key.
func (c *Config) ToOpenAIConfig() providers.OpenAIConfig {
	return providers.OpenAIConfig{
		APIKey:      ResolveEnvVars(c.OpenAI.APIKey),
		PlanModel:   c.OpenAI.PlanModel,
		VisionModel: c.OpenAI.VisionModel,
		ImageModel:  c.OpenAI.ImageModel,
		BaseURL:     c.OpenAI.BaseURL,
		Timeout:     time.Duration(c.OpenAI.TimeoutSeconds) * time.Second,
	}
}

// ResolvedAuthToken returns the server auth token with ${ENV_VAR} references
// expanded. Empty means auth is disabled.
func (c *Config) ResolvedAuthToken() string {
	return ResolveEnvVars(c.Server.AuthToken)
}

// DefaultPrintSpec converts the print defaults to a session print spec.
func (c *Config) DefaultPrintSpec() *book.PrintSpec {
	if c.Print.WidthInches <= 0 || c.Print.HeightInches <= 0 {
		return nil
	}
	fit := book.FitContain
	if c.Print.Fit == string(book.FitCover) {
		fit = book.FitCover
	}
	return &book.PrintSpec{
		WidthInches:  c.Print.WidthInches,
		HeightInches: c.Print.HeightInches,
		DPI:          c.Print.DPI,
		Fit:          fit,
	}
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Easel configuration
# Secrets use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx EASEL_AUTH_TOKEN=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
