package config

// Config holds easel configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	OpenAI     OpenAICfg     `mapstructure:"openai" yaml:"openai"`
	Generation GenerationCfg `mapstructure:"generation" yaml:"generation"`
	Print      PrintCfg      `mapstructure:"print" yaml:"print"`
}

// ServerCfg configures the HTTP API server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// AuthToken guards the session endpoints when set. Supports ${ENV_VAR}
	// syntax. PDF downloads stay open so rendered links work in a browser.
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`
}

// OpenAICfg configures the OpenAI-backed providers.
type OpenAICfg struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	PlanModel      string `mapstructure:"plan_model" yaml:"plan_model"`
	VisionModel    string `mapstructure:"vision_model" yaml:"vision_model"`
	ImageModel     string `mapstructure:"image_model" yaml:"image_model"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// GenerationCfg tunes the page generation engine and completion pool.
type GenerationCfg struct {
	WindowSize int `mapstructure:"window_size" yaml:"window_size"` // prior pages fed as image context
	Workers    int `mapstructure:"workers" yaml:"workers"`         // concurrent completion sweeps
	QueueSize  int `mapstructure:"queue_size" yaml:"queue_size"`   // pending completion requests
}

// PrintCfg sets the default print spec applied when a session omits one.
type PrintCfg struct {
	WidthInches  float64 `mapstructure:"width_inches" yaml:"width_inches"`
	HeightInches float64 `mapstructure:"height_inches" yaml:"height_inches"`
	DPI          int     `mapstructure:"dpi" yaml:"dpi"`
	Fit          string  `mapstructure:"fit" yaml:"fit"` // "contain" or "cover"
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:      "127.0.0.1",
			Port:      8383,
			AuthToken: "${EASEL_AUTH_TOKEN}",
		},
		OpenAI: OpenAICfg{
			APIKey:         "${OPENAI_API_KEY}",
			PlanModel:      "gpt-4o",
			VisionModel:    "gpt-4o-mini",
			ImageModel:     "gpt-image-1",
			TimeoutSeconds: 300,
		},
		Generation: GenerationCfg{
			WindowSize: 3,
			Workers:    2,
			QueueSize:  32,
		},
		Print: PrintCfg{
			WidthInches:  8.5,
			HeightInches: 11,
			DPI:          300,
			Fit:          "contain",
		},
	}
}
