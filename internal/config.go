package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings. Every field can be set from a TROPEDECK_*
// environment variable; command-line flags override the environment.
type Config struct {
	TropesURL        string   `env:"TROPEDECK_TROPES_URL" envDefault:"https://markjbarber-tech.github.io/DnD-Story-Generator/data.csv"`
	TropesMirrors    []string `env:"TROPEDECK_TROPES_MIRRORS" envSeparator:"," envDefault:"https://raw.githubusercontent.com/markjbarber-tech/DnD-Story-Generator/main/Data.csv"`
	EncounterURL     string   `env:"TROPEDECK_ENCOUNTER_URL"`
	EncounterMirrors []string `env:"TROPEDECK_ENCOUNTER_MIRRORS" envSeparator:","`

	// EncounterTropesURL serves the personal tropes that can be attached to
	// an encounter.
	EncounterTropesURL string `env:"TROPEDECK_ENCOUNTER_TROPES_URL" envDefault:"https://raw.githubusercontent.com/markjbarber-tech/DnD-Story-Generator/main/Personal%20data.csv"`
	PromptTemplateURL  string `env:"TROPEDECK_PROMPT_TEMPLATE_URL" envDefault:"https://raw.githubusercontent.com/markjbarber-tech/DnD-Story-Generator/fb5b57a89a19fea37d44c110ee9e9e3505dacb6f/Lovable_DnD_Encounter_AutoExec_System_Prompt_v1.3.txt"`

	UseProxies    bool          `env:"TROPEDECK_USE_PROXIES" envDefault:"true"`
	AllOriginsURL string        `env:"TROPEDECK_ALLORIGINS_URL" envDefault:"https://api.allorigins.win/get"`
	CORSProxyURL  string        `env:"TROPEDECK_CORS_PROXY_URL" envDefault:"https://cors-anywhere.herokuapp.com/"`
	FetchTimeout  time.Duration `env:"TROPEDECK_FETCH_TIMEOUT" envDefault:"10s"`
	Offline       bool          `env:"TROPEDECK_OFFLINE"`

	DBPath   string `env:"TROPEDECK_DB"`
	RedisURL string `env:"TROPEDECK_REDIS_URL"`
	LogLevel string `env:"TROPEDECK_LOG_LEVEL" envDefault:"warn"`

	DefaultCount   int           `env:"TROPEDECK_DEFAULT_COUNT" envDefault:"5"`
	CustomInputTTL time.Duration `env:"TROPEDECK_CUSTOM_INPUT_TTL" envDefault:"720h"`

	RelayURL      string        `env:"TROPEDECK_RELAY_URL" envDefault:"http://localhost:8787"`
	RelayTimeout  time.Duration `env:"TROPEDECK_RELAY_TIMEOUT" envDefault:"120s"`
	ListenAddr    string        `env:"TROPEDECK_LISTEN_ADDR" envDefault:":8787"`
	AllowOrigins  []string      `env:"TROPEDECK_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"TROPEDECK_OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model         string        `env:"TROPEDECK_MODEL" envDefault:"gpt-4o"`
	MaxTokens     int           `env:"TROPEDECK_MAX_TOKENS" envDefault:"4000"`
	Temperature   float64       `env:"TROPEDECK_TEMPERATURE" envDefault:"0.8"`
}

// LoadConfig reads the configuration from the environment and fills in
// derived defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that env parsing cannot express.
func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.DefaultCount < 1 {
		return fmt.Errorf("default count must be at least 1, got %d", c.DefaultCount)
	}
	if c.CustomInputTTL <= 0 {
		return fmt.Errorf("custom input TTL must be positive, got %s", c.CustomInputTTL)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DefaultDBPath returns ~/.tropedeck/tropedeck.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tropedeck", "tropedeck.db"), nil
}
