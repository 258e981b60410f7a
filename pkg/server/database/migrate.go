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

package database

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/bookclub/bookclub/pkg/server/database/migrations"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"
)

var (
	// MigrationTableName is the name of the table that keeps track of migrations
	MigrationTableName = "migrations"
)

// validateMigrationFilename checks if filename follows format: NNN-description.sql
func validateMigrationFilename(name string) error {
	if !strings.HasSuffix(name, ".sql") {
		return errors.Errorf("invalid migration filename %s: must end with .sql", name)
	}
	name = strings.TrimSuffix(name, ".sql")

	parts := strings.SplitN(name, "-", 2)
	if len(parts) != 2 {
		return errors.Errorf("invalid migration filename %s: must be NNN-description.sql", name)
	}

	version, description := parts[0], parts[1]
	if len(version) != 3 {
		return errors.Errorf("invalid migration filename: version must be 3 digits, got %s", version)
	}
	for _, c := range version {
		if c < '0' || c > '9' {
			return errors.Errorf("invalid migration filename: version must be numeric, got %s", version)
		}
	}
	if description == "" {
		return errors.Errorf("invalid migration filename: description is required")
	}

	return nil
}

// Migrate runs the embedded SQL migrations that are not yet applied
func Migrate(db *gorm.DB, driver string) error {
	return migrateFS(db, Dialect(driver), migrations.Files)
}

func migrateFS(db *gorm.DB, dialect string, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return errors.Wrap(err, "reading migration directory")
	}

	var filenames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := validateMigrationFilename(e.Name()); err != nil {
			return err
		}
		filenames = append(filenames, e.Name())
	}

	log.WithFields(log.Fields{
		"files": filenames,
	}).Debug("Database migration files.")

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting the database handle")
	}

	migrate.SetTable(MigrationTableName)
	source := &migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(fsys)}

	n, err := migrate.Exec(sqlDB, dialect, source, migrate.Up)
	if err != nil {
		return errors.Wrap(err, "applying migrations")
	}

	log.WithFields(log.Fields{
		"applied": n,
	}).Info("Migrate success.")

	return nil
}
