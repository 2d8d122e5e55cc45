package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"timetrack/backend/internal/model"
)

type Config struct {
	Port          string   `mapstructure:"port"`
	DBPath        string   `mapstructure:"db_path"`
	MigrationsDir string   `mapstructure:"migrations_dir"`
	JWTSecret     string   `mapstructure:"jwt_secret"`
	TokenTTLHours int      `mapstructure:"token_ttl_hours"`
	CORSOrigins   []string `mapstructure:"cors_origins"`

	Pomodoro PomodoroConfig `mapstructure:"pomodoro"`
}

type PomodoroConfig struct {
	WorkMinutes       int `mapstructure:"work_minutes"`
	ShortBreakMinutes int `mapstructure:"short_break_minutes"`
	LongBreakMinutes  int `mapstructure:"long_break_minutes"`
	LongBreakInterval int `mapstructure:"long_break_interval"`
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c Config) PomodoroSettings() model.PomodoroSettings {
	return model.PomodoroSettings{
		WorkMinutes:       c.Pomodoro.WorkMinutes,
		ShortBreakMinutes: c.Pomodoro.ShortBreakMinutes,
		LongBreakMinutes:  c.Pomodoro.LongBreakMinutes,
		LongBreakInterval: c.Pomodoro.LongBreakInterval,
	}
}

// Load reads config.yaml if present, with TIMETRACK_* environment variables
// taking precedence over file values and defaults.
func Load(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/timetrack/")
	}

	viper.SetEnvPrefix("TIMETRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaults := model.DefaultPomodoroSettings()
	viper.SetDefault("port", "8080")
	viper.SetDefault("db_path", "./data/timetrack.db")
	viper.SetDefault("migrations_dir", "./migrations")
	viper.SetDefault("jwt_secret", "change-this-secret")
	viper.SetDefault("token_ttl_hours", 72)
	viper.SetDefault("cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	viper.SetDefault("pomodoro.work_minutes", defaults.WorkMinutes)
	viper.SetDefault("pomodoro.short_break_minutes", defaults.ShortBreakMinutes)
	viper.SetDefault("pomodoro.long_break_minutes", defaults.LongBreakMinutes)
	viper.SetDefault("pomodoro.long_break_interval", defaults.LongBreakInterval)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("config file not found, using defaults")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
