/* Copyright 2025 Dnote Authors
 *
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

package config

import (
	"net/url"
	"os"

	"github.com/bookclub/bookclub/pkg/dirs"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDBDir is the default directory name for the club data
	DefaultDBDir = "bookclub"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DefaultEnvFile is the dotenv file read from the working directory
	DefaultEnvFile = ".env"
)

var (
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = dirs.DataPath(DefaultDBDir, DefaultDBFilename)
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrDBMissingURL is an error for a postgres configuration missing the database url
	ErrDBMissingURL = errors.New("Database URL is empty")
	// ErrDBDriverInvalid is an error for an unknown database driver
	ErrDBDriverInvalid = errors.New("Invalid DB driver")
	// ErrBaseURLInvalid is an error for an incomplete configuration with invalid base url
	ErrBaseURLInvalid = errors.New("Invalid BaseURL")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrLogLevelInvalid is an error for an unknown log level
	ErrLogLevelInvalid = errors.New("Invalid log level")
)

// fileConfig is the layout of the YAML configuration file
type fileConfig struct {
	AppEnv              string `yaml:"app_env"`
	Port                string `yaml:"port"`
	BaseURL             string `yaml:"base_url"`
	DBDriver            string `yaml:"db_driver"`
	DBPath              string `yaml:"db_path"`
	DatabaseURL         string `yaml:"database_url"`
	DisableRegistration bool   `yaml:"disable_registration"`
	LogLevel            string `yaml:"log_level"`
}

func readConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fc, errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, errors.Wrapf(err, "parsing config file %s", path)
	}

	return fc, nil
}

// loadEnvFile exports the variables of the dotenv file at the given path
// without overriding the environment. A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil
		}
		return errors.Wrapf(err, "loading env file %s", path)
	}

	return nil
}

func readBoolEnv(name string) bool {
	return os.Getenv(name) == "true"
}

// resolve returns value if non-empty, otherwise env var, otherwise the file
// value, otherwise default
func resolve(value, envKey, fileVal, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	if fileVal != "" {
		return fileVal
	}
	return defaultVal
}

// Config is an application configuration
type Config struct {
	AppEnv              string
	BaseURL             string
	DisableRegistration bool
	Port                string
	DBDriver            string
	DBPath              string
	DatabaseURL         string
	LogLevel            string
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv              string
	Port                string
	BaseURL             string
	DBDriver            string
	DBPath              string
	DatabaseURL         string
	DisableRegistration bool
	LogLevel            string
	// ConfigFile is the path to a YAML configuration file
	ConfigFile string
	// EnvFile is the path to a dotenv file. DefaultEnvFile is used when empty.
	EnvFile string
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables, the
// configuration file and defaults, in that order.
func New(p Params) (Config, error) {
	envFile := p.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	fc, err := readConfigFile(resolve(p.ConfigFile, "CONFIG_FILE", "", ""))
	if err != nil {
		return Config{}, err
	}

	c := Config{
		AppEnv:              resolve(p.AppEnv, "APP_ENV", fc.AppEnv, AppEnvProduction),
		Port:                resolve(p.Port, "PORT", fc.Port, "3001"),
		BaseURL:             resolve(p.BaseURL, "BASE_URL", fc.BaseURL, "http://localhost:3001"),
		DBDriver:            resolve(p.DBDriver, "DB_DRIVER", fc.DBDriver, database.DriverSQLite),
		DBPath:              resolve(p.DBPath, "DB_PATH", fc.DBPath, DefaultDBPath),
		DatabaseURL:         resolve(p.DatabaseURL, "DATABASE_URL", fc.DatabaseURL, ""),
		DisableRegistration: p.DisableRegistration || readBoolEnv("DISABLE_REGISTRATION") || fc.DisableRegistration,
		LogLevel:            resolve(p.LogLevel, "LOG_LEVEL", fc.LogLevel, log.LevelInfo),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// DBParams returns the parameters for opening the configured database
func (c Config) DBParams() database.Params {
	return database.Params{
		Driver:   c.DBDriver,
		Path:     c.DBPath,
		URL:      c.DatabaseURL,
		LogLevel: c.LogLevel,
	}
}

func validate(c Config) error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return errors.Wrapf(ErrBaseURLInvalid, "'%s'", c.BaseURL)
	}
	if c.Port == "" {
		return ErrPortInvalid
	}

	switch c.DBDriver {
	case database.DriverSQLite:
		if c.DBPath == "" {
			return ErrDBMissingPath
		}
	case database.DriverPostgres:
		if c.DatabaseURL == "" {
			return ErrDBMissingURL
		}
	default:
		return errors.Wrapf(ErrDBDriverInvalid, "'%s'", c.DBDriver)
	}

	switch c.LogLevel {
	case log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError:
	default:
		return errors.Wrapf(ErrLogLevelInvalid, "'%s'", c.LogLevel)
	}

	return nil
}
