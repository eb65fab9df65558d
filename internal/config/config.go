package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type FilesConfig struct {
	// FontPath is an optional TTF used for receipts; core fonts are used when empty.
	FontPath string `yaml:"font_path"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Limit    int           `yaml:"limit"`
	Window   time.Duration `yaml:"window"`
}

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Database struct {
		// Driver is "postgres" or "memory".
		Driver string `yaml:"driver"`
		DSN    string `yaml:"url"`
	} `yaml:"database"`
	JWT struct {
		Secret    string        `yaml:"secret"`
		AccessTTL time.Duration `yaml:"access_ttl"`
	} `yaml:"jwt"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		DryRun       bool   `yaml:"dry_run"`
	} `yaml:"email"`
	OTP struct {
		SweepSchedule string `yaml:"sweep_schedule"`
		BcryptCost    int    `yaml:"bcrypt_cost"`
	} `yaml:"otp"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Files    FilesConfig    `yaml:"files"`
}

// LoadConfig reads the config file named by GRUBGO_CONFIG (or config/config.yaml)
// and panics when it cannot be loaded or is incomplete.
func LoadConfig() *Config {
	path := os.Getenv("GRUBGO_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := Load(path)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("Invalid config: " + err.Error())
	}
	return cfg
}

// Load parses the YAML file at path, applies environment overrides and defaults.
// A missing file is not an error: everything may come from the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Email.SMTPHost, "SMTP_HOST")
	setString(&c.Email.SMTPUser, "SMTP_USER")
	setString(&c.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&c.Email.FromEmail, "SMTP_FROM")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Email.SMTPPort, "SMTP_PORT"); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := strings.TrimSpace(os.Getenv("SMTP_DRY_RUN")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SMTP_DRY_RUN: %w", err)
		}
		c.Email.DryRun = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5050
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 24 * time.Hour
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "GrubGo"
	}
	if c.OTP.SweepSchedule == "" {
		c.OTP.SweepSchedule = "@every 5m"
	}
	if c.Redis.Limit == 0 {
		c.Redis.Limit = 20
	}
	if c.Redis.Window == 0 {
		c.Redis.Window = time.Minute
	}
}

// Validate reports the settings without which the process must not start.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.JWT.Secret) == "" {
		missing = append(missing, "jwt.secret")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			missing = append(missing, "database.url")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if !c.Email.DryRun {
		if c.Email.SMTPHost == "" {
			missing = append(missing, "email.smtp_host")
		}
		if c.Email.SMTPUser == "" || c.Email.SMTPPassword == "" {
			missing = append(missing, "email.smtp_user/smtp_password")
		}
		if c.Email.FromEmail == "" {
			missing = append(missing, "email.from_email")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
