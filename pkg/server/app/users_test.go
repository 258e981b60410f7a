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

package app

import (
	"testing"
	"time"

	"github.com/bookclub/bookclub/pkg/assert"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/mailer"
	"github.com/bookclub/bookclub/pkg/server/testutils"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func validUserParams() UserParams {
	return UserParams{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Password:  "pass1234",
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		a, db, _ := newTestApp(t)

		user, err := a.CreateUser(validUserParams())
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		var userRecord database.User
		testutils.MustExec(t, db.First(&userRecord, user.ID), "finding user")
		assert.Equal(t, userRecord.Username, "alice", "username mismatch")
		assert.Equal(t, userRecord.Role, database.RoleMember, "role mismatch")
		assert.Equal(t, userRecord.Enabled, true, "user should be enabled")

		passwordErr := bcrypt.CompareHashAndPassword([]byte(userRecord.Password), []byte("pass1234"))
		assert.Equal(t, passwordErr, nil, "Password mismatch")
	})

	t.Run("admin", func(t *testing.T) {
		a, db, _ := newTestApp(t)

		p := validUserParams()
		p.Admin = true
		user, err := a.CreateUser(p)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		var userRecord database.User
		testutils.MustExec(t, db.First(&userRecord, user.ID), "finding user")
		assert.Equal(t, userRecord.Role, database.RoleAdmin, "role mismatch")
	})

	t.Run("duplicate", func(t *testing.T) {
		testCases := []struct {
			name     string
			username string
			email    string
		}{
			{"username", "alice", "other@example.com"},
			{"email", "other", "alice@example.com"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				a, db, _ := newTestApp(t)
				testutils.SetupUserData(db, "alice", "somepassword")

				p := validUserParams()
				p.Username = tc.username
				p.Email = tc.email
				_, err := a.CreateUser(p)

				assert.Equal(t, err, ErrDuplicateUser, "error mismatch")
				assert.Equal(t, countRows(t, db, &database.User{}, ""), int64(1), "user count mismatch")
			})
		}
	})

	t.Run("validation", func(t *testing.T) {
		testCases := []struct {
			name   string
			modify func(p *UserParams)
			err    error
		}{
			{"missing username", func(p *UserParams) { p.Username = " " }, ErrIncompleteUserData},
			{"missing email", func(p *UserParams) { p.Email = "" }, ErrIncompleteUserData},
			{"missing first name", func(p *UserParams) { p.FirstName = "" }, ErrIncompleteUserData},
			{"missing last name", func(p *UserParams) { p.LastName = "" }, ErrIncompleteUserData},
			{"missing password", func(p *UserParams) { p.Password = "" }, ErrIncompleteUserData},
			{"short password", func(p *UserParams) { p.Password = "short" }, ErrPasswordTooShort},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				a, db, _ := newTestApp(t)

				p := validUserParams()
				tc.modify(&p)
				_, err := a.CreateUser(p)

				assert.Equal(t, err, tc.err, "error mismatch")
				assert.Equal(t, countRows(t, db, &database.User{}, ""), int64(0), "user count mismatch")
			})
		}
	})
}

func TestRegisterAndConfirm(t *testing.T) {
	a, db, c := newTestApp(t)
	emailBackend := &testutils.MockEmailbackendImplementation{}
	a.EmailBackend = emailBackend

	p := validUserParams()
	p.Admin = true
	user, err := a.Register(p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "registering"))
	}

	assert.Equal(t, user.Enabled, false, "registered user should be disabled")
	assert.Equal(t, user.Role, database.RoleMember, "registration cannot grant admin")

	var tok database.Token
	testutils.MustExec(t, db.Where("user_id = ?", user.ID).First(&tok), "finding token")
	assert.Equal(t, tok.Type, database.TokenTypeEmailConfirmation, "token type mismatch")
	assert.Equal(t, tok.ExpiresAt.Equal(c.Now().Add(ConfirmationTokenTTL)), true, "token expiry mismatch")

	assert.Equalf(t, len(emailBackend.Emails), 1, "email queue count mismatch")
	assert.Equal(t, emailBackend.Emails[0].TemplateType, mailer.EmailTypeConfirmation, "template mismatch")
	assert.DeepEqual(t, emailBackend.Emails[0].To, []string{"alice@example.com"}, "email recipient mismatch")

	_, err = a.Authenticate("alice", "pass1234")
	assert.Equal(t, err, ErrUserDisabled, "disabled users cannot sign in")

	confirmed, err := a.ConfirmEmail(tok.Value)
	if err != nil {
		t.Fatal(errors.Wrap(err, "confirming"))
	}
	assert.Equal(t, confirmed.Enabled, true, "confirmed user should be enabled")
	assert.Equalf(t, len(emailBackend.Emails), 2, "welcome email should be sent")
	assert.Equal(t, emailBackend.Emails[1].TemplateType, mailer.EmailTypeWelcome, "template mismatch")

	if _, err := a.Authenticate("alice@example.com", "pass1234"); err != nil {
		t.Fatal(errors.Wrap(err, "authenticating after confirmation"))
	}

	_, err = a.ConfirmEmail(tok.Value)
	assert.Equal(t, err, ErrInvalidToken, "tokens are single use")
}

func TestRegister(t *testing.T) {
	t.Run("email failure does not fail registration", func(t *testing.T) {
		a, db, _ := newTestApp(t)
		a.EmailBackend = &testutils.MockEmailbackendImplementation{Err: errors.New("smtp down")}

		if _, err := a.Register(validUserParams()); err != nil {
			t.Fatal(errors.Wrap(err, "registering"))
		}
		assert.Equal(t, countRows(t, db, &database.User{}, ""), int64(1), "user count mismatch")
	})

	t.Run("disabled registration", func(t *testing.T) {
		a, db, _ := newTestApp(t)
		a.DisableRegistration = true

		_, err := a.Register(validUserParams())
		assert.Equal(t, err, ErrRegistrationDisabled, "error mismatch")
		assert.Equal(t, countRows(t, db, &database.User{}, ""), int64(0), "user count mismatch")
	})
}

func TestConfirmEmail(t *testing.T) {
	t.Run("expired token", func(t *testing.T) {
		a, db, c := newTestApp(t)

		user, err := a.Register(validUserParams())
		if err != nil {
			t.Fatal(errors.Wrap(err, "registering"))
		}
		var tok database.Token
		testutils.MustExec(t, db.Where("user_id = ?", user.ID).First(&tok), "finding token")

		c.Advance(ConfirmationTokenTTL + time.Second)

		_, err = a.ConfirmEmail(tok.Value)
		assert.Equal(t, err, ErrTokenExpired, "error mismatch")

		var userRecord database.User
		testutils.MustExec(t, db.First(&userRecord, user.ID), "finding user")
		assert.Equal(t, userRecord.Enabled, false, "user should stay disabled")
	})

	t.Run("unknown token", func(t *testing.T) {
		a, _, _ := newTestApp(t)

		_, err := a.ConfirmEmail("nope")
		assert.Equal(t, err, ErrInvalidToken, "error mismatch")
	})
}

func TestUserLookups(t *testing.T) {
	a, db, _ := newTestApp(t)
	alice := testutils.SetupUserData(db, "alice", "pass1234")
	bob := testutils.SetupUserData(db, "bob", "pass1234")

	t.Run("GetUser", func(t *testing.T) {
		got, err := a.GetUser(bob.ID)
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, got.Username, "bob", "username mismatch")

		_, err = a.GetUser(999)
		assert.Equal(t, err, ErrUserNotFound, "error mismatch")
	})

	t.Run("ListUsers", func(t *testing.T) {
		users, err := a.ListUsers()
		if err != nil {
			t.Fatal(err)
		}
		assert.Equalf(t, len(users), 2, "user count mismatch")
		assert.Equal(t, users[0].ID, alice.ID, "order mismatch")
	})

	t.Run("GetUserByUsernameOrEmail", func(t *testing.T) {
		testCases := []struct {
			name     string
			username string
			email    string
			expected int64
			err      error
		}{
			{"username", "bob", "", bob.ID, nil},
			{"email", "", "alice@example.com", alice.ID, nil},
			{"either", "nobody", "bob@example.com", bob.ID, nil},
			{"none matches", "nobody", "", 0, ErrUserNotFound},
			{"no terms", "", "", 0, ErrLookupTermRequired},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				got, err := a.GetUserByUsernameOrEmail(tc.username, tc.email)
				assert.Equal(t, err, tc.err, "error mismatch")
				assert.Equal(t, got.ID, tc.expected, "user mismatch")
			})
		}
	})
}

func TestAuthenticate(t *testing.T) {
	a, db, _ := newTestApp(t)
	testutils.SetupUserData(db, "alice", "pass1234")

	testCases := []struct {
		name     string
		login    string
		password string
		err      error
	}{
		{"username", "alice", "pass1234", nil},
		{"email", "alice@example.com", "pass1234", nil},
		{"wrong password", "alice", "wrong-password", ErrLoginInvalid},
		{"unknown user", "nobody", "pass1234", ErrLoginInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := a.Authenticate(tc.login, tc.password)
			assert.Equal(t, err, tc.err, "error mismatch")
			if tc.err == nil {
				assert.Equal(t, user.Username, "alice", "user mismatch")
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	a, db, c := newTestApp(t)
	alice := testutils.SetupUserData(db, "alice", "pass1234")

	session, err := a.SignIn(&alice)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.NotEqual(t, session.Key, "", "session key should be set")
	assert.Equal(t, session.ExpiresAt.After(c.Now()), true, "session should not be expired")

	var userRecord database.User
	testutils.MustExec(t, db.First(&userRecord, alice.ID), "finding user")
	if userRecord.LastLoginAt == nil {
		t.Fatal("last login should be set")
	}

	user, err := a.FindSessionUser(session.Key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "finding session user"))
	}
	assert.Equal(t, user.ID, alice.ID, "session user mismatch")

	c.Advance(sessionTTL)
	_, err = a.FindSessionUser(session.Key)
	assert.Equal(t, err, ErrLoginRequired, "expired sessions are rejected")

	if err := a.DeleteSession(session.Key); err != nil {
		t.Fatal(errors.Wrap(err, "deleting session"))
	}
	assert.Equal(t, countRows(t, db, &database.Session{}, ""), int64(0), "session count mismatch")
}

func TestUpdateUserPassword(t *testing.T) {
	a, db, _ := newTestApp(t)
	alice := testutils.SetupUserData(db, "alice", "pass1234")
	testutils.SetupSession(db, alice)

	err := a.UpdateUserPassword(alice.ID, "short")
	assert.Equal(t, err, ErrPasswordTooShort, "error mismatch")

	if err := a.UpdateUserPassword(alice.ID, "newpassword"); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	if _, err := a.Authenticate("alice", "newpassword"); err != nil {
		t.Fatal(errors.Wrap(err, "authenticating with the new password"))
	}
	assert.Equal(t, countRows(t, db, &database.Session{}, ""), int64(0), "sessions should be invalidated")

	err = a.UpdateUserPassword(999, "newpassword")
	assert.Equal(t, err, ErrUserNotFound, "error mismatch")
}

func TestDeleteUser(t *testing.T) {
	a, db, _ := newTestApp(t)
	alice := testutils.SetupUserData(db, "alice", "pass1234")
	bob := testutils.SetupUserData(db, "bob", "pass1234")
	chuck := testutils.SetupUserData(db, "chuck", "pass1234")
	dave := testutils.SetupUserData(db, "dave", "pass1234")

	// only alice owns solo, alice and bob own shared
	solo := testutils.SetupBook(db, "Solo", "A", "I")
	shared := testutils.SetupBook(db, "Shared", "B", "I")
	other := testutils.SetupBook(db, "Other", "C", "I")
	testutils.SetupOwnership(db, solo, alice)
	testutils.SetupOwnership(db, shared, alice)
	testutils.SetupOwnership(db, shared, bob)
	testutils.SetupOwnership(db, other, bob)

	testutils.SetupLoan(db, solo, chuck, alice, testToday, 1)
	testutils.SetupLoan(db, other, alice, bob, testToday, 1)
	testutils.SetupLoan(db, shared, dave, bob, testToday, 1)
	testutils.SetupWaitlistEntry(db, solo, alice, dave)
	testutils.SetupWaitlistEntry(db, other, bob, chuck)
	testutils.SetupWaitlistEntry(db, shared, bob, alice)
	testutils.SetupSession(db, alice)
	testutils.SetupSession(db, bob)

	if err := a.DeleteUser(alice.ID); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, countRows(t, db, &database.User{}, "id = ?", alice.ID), int64(0), "user should be deleted")
	assert.Equal(t, countRows(t, db, &database.Book{}, "id = ?", solo.ID), int64(0), "solo book should be deleted")
	assert.Equal(t, countRows(t, db, &database.Book{}, "id IN (?)", []int64{shared.ID, other.ID}), int64(2), "other books should be kept")
	assert.Equal(t, countRows(t, db, &database.Ownership{}, "user_id = ?", alice.ID), int64(0), "ownerships should be deleted")
	assert.Equal(t, countRows(t, db, &database.Loan{}, "borrower_id = ? OR owner_id = ?", alice.ID, alice.ID), int64(0), "loans should be deleted")
	assert.Equal(t, countRows(t, db, &database.Loan{}, ""), int64(1), "dave's loan should be kept")
	assert.Equal(t, countRows(t, db, &database.WaitlistEntry{}, "user_id = ? OR owner_id = ?", alice.ID, alice.ID), int64(0), "waitlist entries should be deleted")
	assert.Equal(t, countRows(t, db, &database.WaitlistEntry{}, ""), int64(1), "chuck's entry should be kept")
	assert.Equal(t, countRows(t, db, &database.Session{}, ""), int64(1), "only bob's session should remain")

	err := a.DeleteUser(alice.ID)
	assert.Equal(t, err, ErrUserNotFound, "error mismatch")
}
