// Package settings loads the server settings.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, and MEMORYMATCH_* environment variables (a .env file is loaded
// into the environment first). Command line flags are applied on top by main.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. MEMORYMATCH_SERVER_PORT
const EnvPrefix = "MEMORYMATCH"

// Settings holds all server configuration
type Settings struct {
	Server   ServerSettings  `mapstructure:"server" validate:"required"`
	Log      LogSettings     `mapstructure:"log" validate:"required"`
	Storage  StorageSettings `mapstructure:"storage" validate:"required"`
	Assets   AssetSettings   `mapstructure:"assets" validate:"required"`
	Sessions SessionSettings `mapstructure:"sessions" validate:"required"`
	Ngrok    NgrokSettings   `mapstructure:"ngrok"`
}

type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gt=0,lt=65536"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn error fatal"`
	Pretty bool   `mapstructure:"pretty"`
}

type StorageSettings struct {
	GamesDir    string `mapstructure:"games_dir" validate:"required"`
	SessionsDir string `mapstructure:"sessions_dir" validate:"required"`
	// ScoresDSN is the SQLite database path; empty disables the leaderboard
	ScoresDSN string `mapstructure:"scores_dsn"`
}

type AssetSettings struct {
	Backend  string     `mapstructure:"backend" validate:"required,oneof=local s3 none"`
	LocalDir string     `mapstructure:"local_dir" validate:"required_if=Backend local"`
	BaseURL  string     `mapstructure:"base_url"`
	S3       S3Settings `mapstructure:"s3"`
}

type S3Settings struct {
	Bucket          string `mapstructure:"bucket" validate:"required"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
	PublicBaseURL   string `mapstructure:"public_base_url" validate:"omitempty,url"`
}

type SessionSettings struct {
	MaxIdle       time.Duration `mapstructure:"max_idle" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	SyncInterval  time.Duration `mapstructure:"sync_interval" validate:"gte=0"`
}

type NgrokSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	Authtoken string `mapstructure:"authtoken" validate:"required_if=Enabled true"`
	Domain    string `mapstructure:"domain"`
}

// Addr returns the listen address
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("storage.games_dir", "games")
	v.SetDefault("storage.sessions_dir", "sessions")
	v.SetDefault("storage.scores_dsn", "data/scores.db")
	v.SetDefault("assets.backend", "local")
	v.SetDefault("assets.local_dir", "assets")
	v.SetDefault("assets.base_url", "")
	v.SetDefault("assets.s3.bucket", "")
	v.SetDefault("assets.s3.endpoint", "")
	v.SetDefault("assets.s3.region", "auto")
	v.SetDefault("assets.s3.access_key_id", "")
	v.SetDefault("assets.s3.secret_access_key", "")
	v.SetDefault("assets.s3.public_base_url", "")
	v.SetDefault("sessions.max_idle", 24*time.Hour)
	v.SetDefault("sessions.sweep_interval", time.Hour)
	v.SetDefault("sessions.sync_interval", 5*time.Second)
	v.SetDefault("ngrok.enabled", false)
	v.SetDefault("ngrok.authtoken", "")
	v.SetDefault("ngrok.domain", "")
}

// Load reads the settings. configFile may be empty, in which case
// memorymatch.yaml is looked up in the working directory and skipped if absent.
func Load(configFile string) (*Settings, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("memorymatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings; S3 fields are only required for the s3 backend
func (s *Settings) Validate() error {
	if err := validate.StructExcept(s, "Assets.S3"); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if s.Assets.Backend == "s3" {
		if err := validate.Struct(s.Assets.S3); err != nil {
			return fmt.Errorf("invalid s3 settings: %w", err)
		}
	}
	return nil
}
