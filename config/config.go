/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads database and logging settings from an optional YAML
// file, a .env file and QUERYDSL_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tomoncle/querydsl/database"
	"github.com/tomoncle/querydsl/utils"
)

const (
	envPrefix = "QUERYDSL"
	envFile   = ".env"
)

// LogConfig selects the console format and levels. Loggers overrides the
// level of individual named loggers, e.g. {"DATABASE": "warn"}.
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Loggers map[string]string `mapstructure:"loggers"`
}

type Config struct {
	Database database.Config `mapstructure:"database"`
	Log      LogConfig       `mapstructure:"log"`
}

// Load reads path when it is not empty, then the .env file of the working
// directory, then the environment. Later sources win; variables already set
// in the environment are never replaced by .env values.
func Load(path string) (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := database.DefaultConnectionConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.connection.type", "sqlite")
	v.SetDefault("database.connection.host", "localhost")
	v.SetDefault("database.connection.port", 0)
	v.SetDefault("database.connection.username", "")
	v.SetDefault("database.connection.password", "")
	v.SetDefault("database.connection.dbname", ":memory:")
	v.SetDefault("database.connection.sslmode", "disable")
	v.SetDefault("database.connection.max_idle_conns", d.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", d.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", d.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", d.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", d.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", d.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", d.WriteTimeout)
	v.SetDefault("database.connection.enable_reconnect", d.EnableReconnect)
	v.SetDefault("database.connection.reconnect_interval", d.ReconnectInterval)
	v.SetDefault("database.connection.max_reconnect_tries", d.MaxReconnectTries)
	v.SetDefault("database.connection.health_check_interval", d.HealthCheckInterval)
	v.SetDefault("database.connection.enable_query_log", d.EnableQueryLog)
	v.SetDefault("database.connection.slow_query_time", d.SlowQueryTime)

	v.SetDefault("database.migrate.enable_migrate_on_startup", true)
	v.SetDefault("database.migrate.enable_foreign_key", true)
	v.SetDefault("database.migrate.foreign_key_file", "")
}

// Validate rejects settings no manager could connect with.
func (c *Config) Validate() error {
	conn := c.Database.ConnectionConfig
	switch conn.Type {
	case "mysql", "postgres", "postgresql":
		if conn.Host == "" || conn.Port <= 0 {
			return fmt.Errorf("invalid config: %s requires host and port", conn.Type)
		}
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("invalid config: unsupported database type %q", conn.Type)
	}
	if conn.MaxOpenConns < 0 || conn.MaxIdleConns < 0 {
		return fmt.Errorf("invalid config: negative pool size")
	}
	if conn.ConnectTimeout < 0 || conn.SlowQueryTime < 0 {
		return fmt.Errorf("invalid config: negative duration")
	}
	return nil
}

// Apply configures the console loggers.
func (c *Config) Apply() {
	if c.Log.Format != "" {
		utils.ConfigureConsoleLogFormat(c.Log.Format)
	}
	if c.Log.Level != "" {
		utils.ConfigureLogLevel(c.Log.Level)
	}
	for name, level := range c.Log.Loggers {
		utils.SetLoggerLevel(name, level)
	}
}

// ConnectTimeout is a convenience for callers building their own contexts.
func (c *Config) ConnectTimeout() time.Duration {
	if c.Database.ConnectionConfig.ConnectTimeout <= 0 {
		return 30 * time.Second
	}
	return c.Database.ConnectionConfig.ConnectTimeout
}
