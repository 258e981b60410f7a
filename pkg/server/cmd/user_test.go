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
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bookclub/bookclub/pkg/assert"
	"github.com/bookclub/bookclub/pkg/server/app"
	"github.com/bookclub/bookclub/pkg/server/buildinfo"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/testutils"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func run(stdin string, args ...string) (string, error) {
	cmd := NewRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

// openDB opens the SQLite database at the path with the schema initialized
func openDB(t *testing.T, path string) *gorm.DB {
	db := database.Open(database.Params{Driver: database.DriverSQLite, Path: path})
	database.InitSchema(db)
	if err := database.Migrate(db, database.DriverSQLite); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	t.Cleanup(func() { closeDB(db) })

	return db
}

func TestVersionCmd(t *testing.T) {
	out, err := run("", "version")
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, out, "bookclub-server-"+buildinfo.Version+"\n", "output mismatch")
}

func TestUserCreateCmd(t *testing.T) {
	t.Run("member", func(t *testing.T) {
		tmpDB := filepath.Join(t.TempDir(), "test.db")

		out, err := run("", "user", "create", "--dbPath", tmpDB,
			"--username", "alice", "--email", "alice@example.com",
			"--firstName", "Alice", "--lastName", "Liddell", "--password", "password123")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		assert.Equal(t, strings.Contains(out, "User created"), true, "output mismatch")

		db := openDB(t, tmpDB)
		var user database.User
		testutils.MustExec(t, db.Where("username = ?", "alice").First(&user), "finding user")
		assert.Equal(t, user.Email, "alice@example.com", "Email mismatch")
		assert.Equal(t, user.Role, database.RoleMember, "Role mismatch")
		assert.Equal(t, user.Enabled, true, "Enabled mismatch")
	})

	t.Run("admin", func(t *testing.T) {
		tmpDB := filepath.Join(t.TempDir(), "test.db")

		_, err := run("", "user", "create", "--dbPath", tmpDB, "--admin",
			"--username", "root", "--email", "root@example.com",
			"--firstName", "Root", "--lastName", "Admin", "--password", "password123")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		db := openDB(t, tmpDB)
		var user database.User
		testutils.MustExec(t, db.Where("username = ?", "root").First(&user), "finding user")
		assert.Equal(t, user.Role, database.RoleAdmin, "Role mismatch")
	})

	t.Run("missing flag", func(t *testing.T) {
		tmpDB := filepath.Join(t.TempDir(), "test.db")

		_, err := run("", "user", "create", "--dbPath", tmpDB, "--username", "alice")
		assert.NotEqual(t, err, nil, "expected an error")
	})

	t.Run("short password", func(t *testing.T) {
		tmpDB := filepath.Join(t.TempDir(), "test.db")

		_, err := run("", "user", "create", "--dbPath", tmpDB,
			"--username", "alice", "--email", "alice@example.com",
			"--firstName", "Alice", "--lastName", "Liddell", "--password", "short")
		assert.Equal(t, app.KindOf(err), app.KindValidation, "error kind mismatch")
	})
}

func TestUserRemoveCmd(t *testing.T) {
	setup := func(t *testing.T) string {
		tmpDB := filepath.Join(t.TempDir(), "test.db")

		db := openDB(t, tmpDB)
		user := testutils.SetupUserData(db, "alice", "password123")
		book := testutils.SetupBook(db, "Dune", "Frank Herbert", "1")
		testutils.SetupOwnership(db, book, user)
		closeDB(db)

		return tmpDB
	}

	t.Run("confirmed", func(t *testing.T) {
		tmpDB := setup(t)

		out, err := run("y\n", "user", "remove", "--dbPath", tmpDB, "--username", "alice")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		assert.Equal(t, strings.Contains(out, "User removed"), true, "output mismatch")

		db := openDB(t, tmpDB)
		var userCount, bookCount int64
		testutils.MustExec(t, db.Model(&database.User{}).Count(&userCount), "counting users")
		testutils.MustExec(t, db.Model(&database.Book{}).Count(&bookCount), "counting books")
		assert.Equal(t, userCount, int64(0), "userCount mismatch")
		assert.Equal(t, bookCount, int64(0), "bookCount mismatch")
	})

	t.Run("aborted", func(t *testing.T) {
		tmpDB := setup(t)

		out, err := run("n\n", "user", "remove", "--dbPath", tmpDB, "--email", "alice@example.com")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		assert.Equal(t, strings.Contains(out, "Aborted by user"), true, "output mismatch")

		db := openDB(t, tmpDB)
		var userCount int64
		testutils.MustExec(t, db.Model(&database.User{}).Count(&userCount), "counting users")
		assert.Equal(t, userCount, int64(1), "userCount mismatch")
	})

	t.Run("skip confirmation", func(t *testing.T) {
		tmpDB := setup(t)

		_, err := run("", "user", "remove", "--dbPath", tmpDB, "--username", "alice", "--yes")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		db := openDB(t, tmpDB)
		var userCount int64
		testutils.MustExec(t, db.Model(&database.User{}).Count(&userCount), "counting users")
		assert.Equal(t, userCount, int64(0), "userCount mismatch")
	})

	t.Run("unknown user", func(t *testing.T) {
		tmpDB := setup(t)

		_, err := run("y\n", "user", "remove", "--dbPath", tmpDB, "--username", "bob")
		assert.Equal(t, errors.Is(err, app.ErrUserNotFound), true, "error mismatch")
	})
}

func TestUserResetPasswordCmd(t *testing.T) {
	tmpDB := filepath.Join(t.TempDir(), "test.db")

	db := openDB(t, tmpDB)
	user := testutils.SetupUserData(db, "alice", "oldpassword123")
	testutils.SetupSession(db, user)
	closeDB(db)

	_, err := run("", "user", "reset-password", "--dbPath", tmpDB, "--username", "alice", "--password", "newpassword123")
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	db2 := openDB(t, tmpDB)
	var updated database.User
	testutils.MustExec(t, db2.Where("username = ?", "alice").First(&updated), "finding user")

	err = bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("newpassword123"))
	assert.Equal(t, err, nil, "new password should match")
	err = bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("oldpassword123"))
	assert.Equal(t, err != nil, true, "old password should not match")

	var sessionCount int64
	testutils.MustExec(t, db2.Model(&database.Session{}).Count(&sessionCount), "counting sessions")
	assert.Equal(t, sessionCount, int64(0), "sessions should be invalidated")
}
