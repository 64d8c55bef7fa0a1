package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envDev  = "dev"
	envProd = "prod"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	Port           string
	DBPath         string
	DBMaxOpenConns int
	DBMaxIdleConns int
	LogLevel       string
	SeedOnStart    bool
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == envDev
}

// Load reads .env (if present), an optional CONFIG_FILE and the environment.
func Load() (Config, error) {
	return load(".env")
}

func load(dotenvPath string) (Config, error) {
	// Best-effort: production should use real env injection.
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	v := viper.New()
	v.SetDefault("app_env", envProd)
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "./printledger.db")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("seed_on_start", false)
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Env:            v.GetString("app_env"),
		Port:           v.GetString("port"),
		DBPath:         v.GetString("db_path"),
		DBMaxOpenConns: v.GetInt("db_max_open_conns"),
		DBMaxIdleConns: v.GetInt("db_max_idle_conns"),
		LogLevel:       v.GetString("log_level"),
		SeedOnStart:    v.GetBool("seed_on_start"),
	}

	if cfg.DBMaxOpenConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > cfg.DBMaxOpenConns {
		cfg.DBMaxIdleConns = cfg.DBMaxOpenConns
	}

	return cfg, nil
}
