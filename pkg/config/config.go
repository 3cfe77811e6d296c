package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/smith3v/meowfacts/pkg/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Session  SessionConfig  `json:"session" yaml:"session"`
	FactsAPI FactsAPIConfig `json:"facts_api" yaml:"facts_api"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

type DatabaseConfig struct {
	Driver       string `json:"driver" yaml:"driver"` // postgres or sqlite
	URL          string `json:"url" yaml:"url"`
	Host         string `json:"host" yaml:"host"`
	User         string `json:"user" yaml:"user"`
	Password     string `json:"password" yaml:"password"`
	DBName       string `json:"dbname" yaml:"dbname"`
	Port         int    `json:"port" yaml:"port"`
	SSLMode      string `json:"sslmode" yaml:"sslmode"`
	Path         string `json:"path" yaml:"path"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns"`
}

type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	StaticDir   string   `json:"static_dir" yaml:"static_dir"`
}

type SessionConfig struct {
	Secret     string `json:"secret" yaml:"secret"`
	CookieName string `json:"cookie_name" yaml:"cookie_name"`
	TTLHours   int    `json:"ttl_hours" yaml:"ttl_hours"`
	Secure     bool   `json:"secure" yaml:"secure"`
}

type FactsAPIConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	PopulateCount  int    `json:"populate_count" yaml:"populate_count"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

type TelegramConfig struct {
	Token     string `json:"token" yaml:"token"`
	DailyHour int    `json:"daily_hour" yaml:"daily_hour"`
}

type LoggingConfig struct {
	Level     string `json:"level" yaml:"level"`
	File      string `json:"file" yaml:"file"`
	GormLevel string `json:"gorm_level" yaml:"gorm_level"`
	Format    string `json:"format" yaml:"format"`
}

var AppConfig = Defaults()

// Defaults returns a config with every optional field filled in.
func Defaults() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Path == "" {
		c.Database.Path = "meowfacts.db"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:5173"}
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "meowfacts_session"
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = 24
	}
	if c.FactsAPI.BaseURL == "" {
		c.FactsAPI.BaseURL = "https://meowfacts.herokuapp.com/"
	}
	if c.FactsAPI.PopulateCount <= 0 {
		c.FactsAPI.PopulateCount = 234
	}
	if c.FactsAPI.TimeoutSeconds <= 0 {
		c.FactsAPI.TimeoutSeconds = 10
	}
	if c.Telegram.DailyHour <= 0 || c.Telegram.DailyHour > 23 {
		c.Telegram.DailyHour = 9
	}
}

func LoadConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	cfg.applyDefaults()
	AppConfig = cfg
	return nil
}

// ApplyEnv loads an optional .env file and lets environment variables
// override the file configuration.
func ApplyEnv() {
	for _, p := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				logger.Error("failed to load env file", "path", p, "error", err)
			}
			break
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		AppConfig.Database.URL = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		AppConfig.Database.Driver = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		AppConfig.Session.Secret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			AppConfig.Server.Addr = ":" + v
		}
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		var origins []string
		for _, p := range strings.Split(v, ",") {
			if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			AppConfig.Server.CORSOrigins = origins
		}
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		AppConfig.Telegram.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		AppConfig.Logging.Level = v
	}
}
