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

package cmd

import (
	"github.com/bookclub/bookclub/pkg/clock"
	"github.com/bookclub/bookclub/pkg/server/app"
	"github.com/bookclub/bookclub/pkg/server/config"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/mailer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// dbFlags are the database flags shared by the commands that open the
// database
type dbFlags struct {
	driver string
	path   string
	url    string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.driver, "dbDriver", "", "Database driver: sqlite or postgres (env: DB_DRIVER, default: sqlite)")
	cmd.PersistentFlags().StringVar(&f.path, "dbPath", "", "Path to SQLite database file (env: DB_PATH, default: $XDG_DATA_HOME/bookclub/server.db)")
	cmd.PersistentFlags().StringVar(&f.url, "databaseUrl", "", "PostgreSQL connection URL (env: DATABASE_URL)")
}

func (f *dbFlags) params() config.Params {
	return config.Params{
		DBDriver:    f.driver,
		DBPath:      f.path,
		DatabaseURL: f.url,
	}
}

func initDB(cfg config.Config) (*gorm.DB, error) {
	db := database.Open(cfg.DBParams())
	database.InitSchema(db)
	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

func initApp(cfg config.Config, emailBackend mailer.Backend) (*app.App, error) {
	db, err := initDB(cfg)
	if err != nil {
		return nil, err
	}

	a := &app.App{
		DB:                  db,
		Clock:               clock.New(),
		EmailBackend:        emailBackend,
		AppEnv:              cfg.AppEnv,
		BaseURL:             cfg.BaseURL,
		Port:                cfg.Port,
		DisableRegistration: cfg.DisableRegistration,
	}
	if err := a.Validate(); err != nil {
		closeDB(db)
		return nil, errors.Wrap(err, "validating app")
	}

	return a, nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// setupApp loads the configuration and opens the app for an administrative
// command. The caller runs the returned cleanup.
func setupApp(f *dbFlags) (*app.App, func(), error) {
	cfg, err := config.New(f.params())
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading config")
	}

	a, err := initApp(cfg, mailer.NewStdoutBackend())
	if err != nil {
		return nil, nil, err
	}

	return a, func() { closeDB(a.DB) }, nil
}
