package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/rpattn/reportql/internal/db"
)

// Config holds everything the server needs to start.
type Config struct {
	ServerAddr     string
	SchemaPath     string
	MigrationsPath string
	Database       db.Config
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		ServerAddr:     ":8080",
		SchemaPath:     "esquema.json",
		MigrationsPath: "migrations",
		Database:       db.DefaultConfig(),
	}
}

// Load reads config.yaml from the given directory, with environment
// overrides under the REPORTQL prefix (REPORTQL_DATABASE_HOST and so on).
func Load(configPath string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("REPORTQL")

	v.BindEnv("server.addr")
	v.BindEnv("schema.path")
	v.BindEnv("migrations.path")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.ServerAddr = v.GetString("server.addr")
	}
	if v.IsSet("schema.path") {
		cfg.SchemaPath = v.GetString("schema.path")
	}
	if v.IsSet("migrations.path") {
		cfg.MigrationsPath = v.GetString("migrations.path")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
