package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"cgbot/database"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken       string
	GuildID            string
	OwnerID            string
	Prefix             string
	ServerLogChannelID string
	ModLogChannelID    string
	InvitePermissions  int64

	// Database configuration
	DatabaseURL string

	// NATS configuration, empty disables event forwarding
	NATSServers string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// CodinGame and project links
	CodinGameBaseURL string
	DocsURL          string
	GitHubURL        string
	PyPIURL          string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

// Profile is the per-environment section of the optional YAML config file
type Profile struct {
	Prefix             string `yaml:"prefix"`
	OwnerID            string `yaml:"owner_id"`
	GuildID            string `yaml:"guild_id"`
	ServerLogChannelID string `yaml:"server_log_channel_id"`
	ModLogChannelID    string `yaml:"mod_log_channel_id"`
	LogLevel           string `yaml:"log_level"`
	DocsURL            string `yaml:"docs_url"`
	GitHubURL          string `yaml:"github_url"`
	PyPIURL            string `yaml:"pypi_url"`
}

// File is the layout of config.yaml
type File struct {
	Development Profile `yaml:"development"`
	Production  Profile `yaml:"production"`
}

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// Tests may have installed an instance already
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// SetTestConfig replaces the global configuration, for tests only
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// ResetConfig clears the global configuration so the next Get reloads it
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig returns a configuration suitable for tests
func NewTestConfig() *Config {
	cfg := defaults(EnvironmentTest)
	cfg.DiscordToken = "test-token"
	cfg.OTelServiceName = "cgbot-test"
	return cfg
}

// defaults returns the built-in profile for an environment
func defaults(environment string) *Config {
	logLevel := "info"
	if environment != EnvironmentProduction {
		logLevel = "debug"
	}

	return &Config{
		Prefix:                   "!",
		OwnerID:                  "401346079733317634",
		GuildID:                  "754028526079836251",
		ServerLogChannelID:       "754240215056384001",
		ModLogChannelID:          "754240243615662142",
		InvitePermissions:        268528728,
		OTelExporterType:         "console",
		OTelOTLPEndpoint:         "localhost:4317",
		OTelServiceName:          "cgbot",
		OTelExportIntervalMillis: 30000,
		CodinGameBaseURL:         "https://www.codingame.com/services/",
		DocsURL:                  "https://codingame.readthedocs.io/en/latest/",
		GitHubURL:                "https://github.com/takos22/codingame",
		PyPIURL:                  "https://pypi.org/project/codingame/",
		LogLevel:                 logLevel,
		Environment:              environment,
	}
}

// load loads configuration from .env, the YAML profile file and environment variables
func load() (*Config, error) {
	_ = godotenv.Load()

	environment := EnvironmentProduction
	if os.Getenv("DEV") == "1" {
		environment = EnvironmentDevelopment
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		environment = env
	}

	config := defaults(environment)

	configFile := getEnvWithDefault("CONFIG_FILE", "config.yaml")
	file, err := LoadFile(configFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if file != nil {
		profile := file.Production
		if environment != EnvironmentProduction {
			profile = file.Development
		}
		config.applyProfile(profile)
	}

	config.applyEnv()

	if config.Environment != EnvironmentTest {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// LoadFile decodes a YAML config file
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &file, nil
}

func (c *Config) applyProfile(p Profile) {
	setIfNotEmpty(&c.Prefix, p.Prefix)
	setIfNotEmpty(&c.OwnerID, p.OwnerID)
	setIfNotEmpty(&c.GuildID, p.GuildID)
	setIfNotEmpty(&c.ServerLogChannelID, p.ServerLogChannelID)
	setIfNotEmpty(&c.ModLogChannelID, p.ModLogChannelID)
	setIfNotEmpty(&c.LogLevel, p.LogLevel)
	setIfNotEmpty(&c.DocsURL, p.DocsURL)
	setIfNotEmpty(&c.GitHubURL, p.GitHubURL)
	setIfNotEmpty(&c.PyPIURL, p.PyPIURL)
}

func (c *Config) applyEnv() {
	c.DiscordToken = os.Getenv("DISCORD_TOKEN")

	setIfNotEmpty(&c.Prefix, os.Getenv("COMMAND_PREFIX"))
	setIfNotEmpty(&c.OwnerID, os.Getenv("OWNER_ID"))
	setIfNotEmpty(&c.GuildID, os.Getenv("GUILD_ID"))
	setIfNotEmpty(&c.ServerLogChannelID, os.Getenv("SERVER_LOG_CHANNEL_ID"))
	setIfNotEmpty(&c.ModLogChannelID, os.Getenv("MOD_LOG_CHANNEL_ID"))
	setIfNotEmpty(&c.LogLevel, os.Getenv("LOG_LEVEL"))

	c.DatabaseURL = database.ConstructDatabaseURL(os.Getenv("DATABASE_URL"), os.Getenv("DATABASE_NAME"))
	c.NATSServers = os.Getenv("NATS_SERVERS")

	c.OTelEnabled = os.Getenv("OTEL_ENABLED") == "true"
	setIfNotEmpty(&c.OTelExporterType, os.Getenv("OTEL_EXPORTER_TYPE"))
	setIfNotEmpty(&c.OTelOTLPEndpoint, os.Getenv("OTEL_OTLP_ENDPOINT"))
	setIfNotEmpty(&c.OTelServiceName, os.Getenv("OTEL_SERVICE_NAME"))
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			c.OTelExportIntervalMillis = parsed
		}
	}

	setIfNotEmpty(&c.CodinGameBaseURL, os.Getenv("CODINGAME_BASE_URL"))
	setIfNotEmpty(&c.DocsURL, os.Getenv("DOCS_URL"))
	setIfNotEmpty(&c.GitHubURL, os.Getenv("GITHUB_URL"))
	setIfNotEmpty(&c.PyPIURL, os.Getenv("PYPI_URL"))

	if perms := os.Getenv("INVITE_PERMISSIONS"); perms != "" {
		if parsed, err := strconv.ParseInt(perms, 10, 64); err == nil {
			c.InvitePermissions = parsed
		}
	}
}

// IsDevelopment reports whether the bot runs with the development profile
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
