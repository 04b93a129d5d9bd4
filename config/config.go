package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server    Server
	Database  Database
	Log       Log
	Auth      Auth
	Attempts  Attempts
	Lifecycle Lifecycle
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Log struct {
	Level  string
	Format string // "console" or "json"
}

type Auth struct {
	JWTSecret string
}

type Attempts struct {
	// ResultsRequireEndTime withholds correctness from students until the
	// test's end time has passed, even after publication.
	ResultsRequireEndTime bool
	EnforceDeadline       bool
	DeadlineGrace         time.Duration
}

type Lifecycle struct {
	SweepInterval time.Duration // 0 disables the background sweeper
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("ATTEMPT_DEADLINE_GRACE_SECONDS", 30)
	viper.SetDefault("LIFECYCLE_SWEEP_INTERVAL", "0s")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Format = viper.GetString("LOG_FORMAT")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")

	config.Attempts.ResultsRequireEndTime = viper.GetBool("RESULTS_REQUIRE_END_TIME")
	config.Attempts.EnforceDeadline = viper.GetBool("ENFORCE_ATTEMPT_DEADLINE")
	config.Attempts.DeadlineGrace = time.Duration(viper.GetInt("ATTEMPT_DEADLINE_GRACE_SECONDS")) * time.Second

	config.Lifecycle.SweepInterval = viper.GetDuration("LIFECYCLE_SWEEP_INTERVAL")

	if config.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set. Every authenticated request will be rejected.")
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("db_host", config.Database.Host).
		Str("db_name", config.Database.Name).
		Bool("results_require_end_time", config.Attempts.ResultsRequireEndTime).
		Bool("enforce_deadline", config.Attempts.EnforceDeadline).
		Dur("sweep_interval", config.Lifecycle.SweepInterval).
		Msg("Config loaded")
	return &config, nil
}
