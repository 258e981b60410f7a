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
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bookclub/bookclub/pkg/assert"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func TestStartMaintenance(t *testing.T) {
	var buf bytes.Buffer
	prev := log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	t.Run("sqlite", func(t *testing.T) {
		db := Open(Params{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")})

		c, err := StartMaintenance(db, DriverSQLite)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		defer c.Stop()

		assert.Equal(t, len(c.Entries()), 2, "entry count mismatch")
	})

	t.Run("postgres", func(t *testing.T) {
		c, err := StartMaintenance(nil, DriverPostgres)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.Equal(t, c == nil, true, "no scheduler expected")
	})
}

func TestCheckpointWAL(t *testing.T) {
	t.Run("wal database", func(t *testing.T) {
		db := Open(Params{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")})
		InitSchema(db)
		insertBook(t, db)

		res, err := checkpointWAL(db)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.NotEqual(t, res.Log, -1, "log size should be reported")
		assert.Equal(t, res.Busy, 0, "busy mismatch")
	})

	t.Run("in-memory database", func(t *testing.T) {
		db := openTestDB(t)

		_, err := checkpointWAL(db)

		assert.Equal(t, err, errNotWAL, "error mismatch")
	})
}

func insertBook(t *testing.T, db *gorm.DB) {
	book := Book{Title: "Dune", Author: "Frank Herbert", Edition: "1"}
	if err := db.Create(&book).Error; err != nil {
		t.Fatal(errors.Wrap(err, "inserting book"))
	}
}

func TestMaintenanceJobs(t *testing.T) {
	var buf bytes.Buffer
	prev := log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	db := Open(Params{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")})

	runWALCheckpoint(db)
	vacuum(db)

	assert.Equal(t, strings.Contains(buf.String(), "VACUUM complete"), true, "vacuum should succeed")
	assert.Equal(t, strings.Contains(buf.String(), "error"), false, "no errors expected")
}
