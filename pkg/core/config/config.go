package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General      GeneralConfig      `toml:"general"`
	Server       ServerConfig       `toml:"server"`
	Providers    ProvidersConfig    `toml:"providers"`
	Routing      RoutingConfig      `toml:"routing"`
	Cache        CacheConfig        `toml:"cache"`
	Conversation ConversationConfig `toml:"conversation"`
	Quality      QualityConfig      `toml:"quality"`
	Batch        BatchConfig        `toml:"batch"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// ServerConfig holds the HTTP/WebSocket gateway configuration
type ServerConfig struct {
	Port         int      `toml:"port"`
	Host         string   `toml:"host"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// ProvidersConfig holds translation provider configurations
type ProvidersConfig struct {
	DeepL  ProviderConfig `toml:"deepl"`
	Google ProviderConfig `toml:"google"`
	Azure  ProviderConfig `toml:"azure"`
	GPT4o  ProviderConfig `toml:"gpt4o"`
}

// ProviderConfig holds a single provider's configuration
type ProviderConfig struct {
	Enabled bool     `toml:"enabled"`
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key"`
	Model   string   `toml:"model"`
	Region  string   `toml:"region"`
	Timeout Duration `toml:"timeout"`
}

// RoutingConfig holds routing optimizer settings
type RoutingConfig struct {
	DefaultProvider     string   `toml:"default_provider"`
	EuropeanLanguages   []string `toml:"european_languages"`
	CulturalLanguages   []string `toml:"cultural_languages"`
	DomainRoutesFile    string   `toml:"domain_routes_file"`
	QualitySnapshotFile string   `toml:"quality_snapshot_file"`
}

// CacheConfig holds translation cache settings
type CacheConfig struct {
	Disabled    bool     `toml:"disabled"`
	MaxItems    int      `toml:"max_items"`
	TTL         Duration `toml:"ttl"`
	PriorityTTL Duration `toml:"priority_ttl"`
}

// ConversationConfig holds context store settings
type ConversationConfig struct {
	MaxHistorySize int      `toml:"max_history_size"`
	Expiration     Duration `toml:"expiration"`
	SweepInterval  Duration `toml:"sweep_interval"`
}

// QualityConfig holds quality assessor settings
type QualityConfig struct {
	Threshold       float64 `toml:"threshold"`
	AccuracyWeight  float64 `toml:"accuracy_weight"`
	FluencyWeight   float64 `toml:"fluency_weight"`
	CulturalWeight  float64 `toml:"cultural_weight"`
	EnhancedEnabled bool    `toml:"enhanced_enabled"`
}

// BatchConfig holds batch translation settings
type BatchConfig struct {
	ChunkSize int      `toml:"chunk_size"`
	Delay     Duration `toml:"delay"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Expand environment variables in sensitive fields
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from the VOXLATE_CONFIG environment variable
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("VOXLATE_CONFIG")
	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"./configs/config.toml",
			"./config.toml",
			filepath.Join(os.Getenv("HOME"), ".config/voxlate/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		// No config file is fine, run on defaults
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.expandEnvVars()
		return cfg, nil
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "voxlate"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// Server
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 120 * time.Second
	}

	// Providers
	applyProviderDefaults(&c.Providers.DeepL, "https://api-free.deepl.com/v2", "")
	applyProviderDefaults(&c.Providers.Google, "https://translation.googleapis.com/language/translate/v2", "")
	applyProviderDefaults(&c.Providers.Azure, "https://api.cognitive.microsofttranslator.com", "")
	applyProviderDefaults(&c.Providers.GPT4o, "https://api.openai.com/v1", "gpt-4o")
	if c.Providers.Azure.Region == "" {
		c.Providers.Azure.Region = "westeurope"
	}

	// Routing
	if c.Routing.DefaultProvider == "" {
		c.Routing.DefaultProvider = "google"
	}
	if len(c.Routing.EuropeanLanguages) == 0 {
		c.Routing.EuropeanLanguages = []string{
			"en", "de", "fr", "es", "it", "nl", "pt", "pl", "ru",
			"sv", "da", "fi", "cs", "ro", "hu", "bg", "el",
		}
	}
	if len(c.Routing.CulturalLanguages) == 0 {
		c.Routing.CulturalLanguages = []string{"ja", "zh", "ko", "ar", "th", "vi", "hi"}
	}
	if c.Routing.QualitySnapshotFile == "" {
		c.Routing.QualitySnapshotFile = filepath.Join(c.General.DataDir, "quality_matrix.json")
	}

	// Cache
	if c.Cache.MaxItems == 0 {
		c.Cache.MaxItems = 1000
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = time.Hour
	}
	if c.Cache.PriorityTTL.Duration == 0 {
		c.Cache.PriorityTTL.Duration = 6 * time.Hour
	}

	// Conversation
	if c.Conversation.MaxHistorySize == 0 {
		c.Conversation.MaxHistorySize = 10
	}
	if c.Conversation.Expiration.Duration == 0 {
		c.Conversation.Expiration.Duration = 30 * time.Minute
	}
	if c.Conversation.SweepInterval.Duration == 0 {
		c.Conversation.SweepInterval.Duration = 15 * time.Minute
	}

	// Quality
	if c.Quality.Threshold == 0 {
		c.Quality.Threshold = 0.8
	}
	if c.Quality.AccuracyWeight == 0 {
		c.Quality.AccuracyWeight = 0.5
	}
	if c.Quality.FluencyWeight == 0 {
		c.Quality.FluencyWeight = 0.3
	}
	if c.Quality.CulturalWeight == 0 {
		c.Quality.CulturalWeight = 0.2
	}

	// Batch
	if c.Batch.ChunkSize == 0 {
		c.Batch.ChunkSize = 10
	}
	if c.Batch.Delay.Duration == 0 {
		c.Batch.Delay.Duration = 100 * time.Millisecond
	}
}

func applyProviderDefaults(p *ProviderConfig, baseURL, model string) {
	if p.BaseURL == "" {
		p.BaseURL = baseURL
	}
	if p.Model == "" {
		p.Model = model
	}
	if p.Timeout.Duration == 0 {
		p.Timeout.Duration = 10 * time.Second
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.Providers.DeepL.APIKey = expandKey(c.Providers.DeepL.APIKey, "DEEPL_API_KEY")
	c.Providers.Google.APIKey = expandKey(c.Providers.Google.APIKey, "GOOGLE_API_KEY")
	c.Providers.Azure.APIKey = expandKey(c.Providers.Azure.APIKey, "AZURE_API_KEY")
	c.Providers.GPT4o.APIKey = expandKey(c.Providers.GPT4o.APIKey, "OPENAI_API_KEY")
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Routing.QualitySnapshotFile = os.ExpandEnv(c.Routing.QualitySnapshotFile)
}

// expandKey expands $VAR references and falls back to a conventional
// environment variable when the config leaves the key empty
func expandKey(value, envVar string) string {
	expanded := os.ExpandEnv(value)
	if expanded == "" {
		return os.Getenv(envVar)
	}
	return expanded
}

// Address returns the gateway listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
