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
	"database/sql"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pgUniqueViolation is the SQLSTATE reported by PostgreSQL for unique constraint violations
const pgUniqueViolation = "23505"

// Params are the parameters for opening a database connection
type Params struct {
	Driver   string
	Path     string
	URL      string
	LogLevel string
}

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) {
	if err := db.AutoMigrate(
		&User{},
		&Book{},
		&Ownership{},
		&Loan{},
		&WaitlistEntry{},
		&Token{},
		&Session{},
	); err != nil {
		panic(err)
	}
}

// getDBLogLevel maps the application log level onto the gorm logger level
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

// slowQueryThreshold is the duration above which gorm reports a query as slow
const slowQueryThreshold = 200 * time.Millisecond

// newDBLogger returns the gorm logger writing to w. Missing records are an
// expected outcome of lookups and are not reported.
func newDBLogger(w io.Writer, level string) logger.Interface {
	return logger.New(stdlog.New(w, "\r\n", stdlog.LstdFlags), logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  getDBLogLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  w == os.Stdout,
	})
}

// SQLiteDSN returns a data source name for the SQLite database file at the
// given path with foreign key enforcement and write-ahead logging turned on
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000&_journal_mode=WAL", path)
}

func newDialector(p Params) (gorm.Dialector, error) {
	switch p.Driver {
	case DriverPostgres:
		sqlDB, err := sql.Open("postgres", p.URL)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres connection")
		}

		return postgres.New(postgres.Config{Conn: sqlDB}), nil
	case DriverSQLite, "":
		// Create directory if it doesn't exist
		dir := filepath.Dir(p.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}

		return sqlite.Open(SQLiteDSN(p.Path)), nil
	default:
		return nil, errors.Errorf("unsupported database driver '%s'", p.Driver)
	}
}

// Open initializes the database connection
func Open(p Params) *gorm.DB {
	dialector, err := newDialector(p)
	if err != nil {
		panic(err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newDBLogger(os.Stdout, p.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		panic(errors.Wrap(err, "opening database conection"))
	}

	return db
}

// Dialect returns the migration dialect name for the given driver
func Dialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}

	return "sqlite3"
}

// IsUniqueViolation reports whether the given error was caused by an insert
// or update that violated a unique or primary key constraint
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
