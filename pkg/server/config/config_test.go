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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bookclub/bookclub/pkg/assert"
	"github.com/pkg/errors"
)

func TestValidate(t *testing.T) {
	valid := Config{
		DBDriver: "sqlite",
		DBPath:   "test.db",
		BaseURL:  "http://mock.url",
		Port:     "3000",
		LogLevel: "info",
	}

	testCases := []struct {
		modify      func(c *Config)
		expectedErr error
	}{
		{
			modify:      func(c *Config) {},
			expectedErr: nil,
		},
		{
			modify:      func(c *Config) { c.DBPath = "" },
			expectedErr: ErrDBMissingPath,
		},
		{
			modify:      func(c *Config) { c.BaseURL = "" },
			expectedErr: ErrBaseURLInvalid,
		},
		{
			modify:      func(c *Config) { c.Port = "" },
			expectedErr: ErrPortInvalid,
		},
		{
			modify:      func(c *Config) { c.DBDriver = "mysql" },
			expectedErr: ErrDBDriverInvalid,
		},
		{
			modify:      func(c *Config) { c.DBDriver = "postgres" },
			expectedErr: ErrDBMissingURL,
		},
		{
			modify: func(c *Config) {
				c.DBDriver = "postgres"
				c.DBPath = ""
				c.DatabaseURL = "postgres://localhost/bookclub"
			},
			expectedErr: nil,
		},
		{
			modify:      func(c *Config) { c.LogLevel = "verbose" },
			expectedErr: ErrLogLevelInvalid,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			c := valid
			tc.modify(&c)

			err := validate(c)

			assert.Equal(t, errors.Cause(err), tc.expectedErr, "error mismatch")
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing file"))
	}

	return path
}

func TestNew(t *testing.T) {
	noEnvFile := filepath.Join(t.TempDir(), "missing.env")

	t.Run("defaults", func(t *testing.T) {
		c, err := New(Params{EnvFile: noEnvFile})
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.Equal(t, c.AppEnv, AppEnvProduction, "AppEnv mismatch")
		assert.Equal(t, c.Port, "3001", "Port mismatch")
		assert.Equal(t, c.DBDriver, "sqlite", "DBDriver mismatch")
		assert.Equal(t, c.DBPath, DefaultDBPath, "DBPath mismatch")
		assert.Equal(t, c.LogLevel, "info", "LogLevel mismatch")
		assert.Equal(t, c.IsProd(), true, "IsProd mismatch")
	})

	t.Run("precedence", func(t *testing.T) {
		configFile := writeFile(t, "bookclub.yml", `
port: "4000"
base_url: http://file.example
log_level: warn
disable_registration: true
`)
		t.Setenv("BASE_URL", "http://env.example")

		c, err := New(Params{Port: "5000", ConfigFile: configFile, EnvFile: noEnvFile})
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.Equal(t, c.Port, "5000", "params should win")
		assert.Equal(t, c.BaseURL, "http://env.example", "env should win over the file")
		assert.Equal(t, c.LogLevel, "warn", "file should win over defaults")
		assert.Equal(t, c.DisableRegistration, true, "DisableRegistration mismatch")
	})

	t.Run("config file from env", func(t *testing.T) {
		configFile := writeFile(t, "bookclub.yml", "app_env: TEST\n")
		t.Setenv("CONFIG_FILE", configFile)

		c, err := New(Params{EnvFile: noEnvFile})
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.Equal(t, c.AppEnv, "TEST", "AppEnv mismatch")
	})

	t.Run("env file", func(t *testing.T) {
		envFile := writeFile(t, ".env", "DATABASE_URL=postgres://localhost/bookclub\nDB_DRIVER=postgres\n")
		t.Cleanup(func() {
			os.Unsetenv("DATABASE_URL")
			os.Unsetenv("DB_DRIVER")
		})

		c, err := New(Params{EnvFile: envFile})
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.Equal(t, c.DBDriver, "postgres", "DBDriver mismatch")
		assert.Equal(t, c.DatabaseURL, "postgres://localhost/bookclub", "DatabaseURL mismatch")
		assert.Equal(t, c.DBParams().URL, "postgres://localhost/bookclub", "DBParams mismatch")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := New(Params{ConfigFile: filepath.Join(t.TempDir(), "nope.yml"), EnvFile: noEnvFile})
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := New(Params{BaseURL: "not a url", EnvFile: noEnvFile})

		assert.Equal(t, errors.Cause(err), ErrBaseURLInvalid, "error mismatch")
	})
}
