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

// Package testutils provides utilities used in tests
package testutils

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bookclub/bookclub/pkg/server/crypt"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/helpers"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitMemoryDB creates an in-memory SQLite database with the schema initialized
func InitMemoryDB(t *testing.T) *gorm.DB {
	// Use file-based in-memory database with unique UUID per test to avoid sharing
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatalf("failed to generate UUID for test database: %v", err)
	}
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid)
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database handle: %v", err)
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})

	database.InitSchema(db)
	if err := database.Migrate(db, database.DriverSQLite); err != nil {
		t.Fatalf("failed to migrate the test database: %v", err)
	}

	return db
}

// SetupUserData creates and returns a new enabled member with the given
// username and password for testing purposes
func SetupUserData(db *gorm.DB, username, password string) database.User {
	return setupUser(db, username, password, database.RoleMember)
}

// SetupAdminData creates and returns a new enabled admin with the given
// username and password for testing purposes
func SetupAdminData(db *gorm.DB, username, password string) database.User {
	return setupUser(db, username, password, database.RoleAdmin)
}

func setupUser(db *gorm.DB, username, password, role string) database.User {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "Failed to hash password"))
	}

	user := database.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
		Password:  string(hashedPassword),
		Role:      role,
		Enabled:   true,
	}
	if err := db.Create(&user).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare user"))
	}

	return user
}

// SetupBook creates and returns a new book
func SetupBook(db *gorm.DB, title, author, edition string) database.Book {
	book := database.Book{
		Title:   title,
		Author:  author,
		Edition: edition,
	}
	if err := db.Create(&book).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare book"))
	}

	return book
}

// SetupOwnership records that the user owns a copy of the book
func SetupOwnership(db *gorm.DB, book database.Book, user database.User) database.Ownership {
	o := database.Ownership{
		BookID: book.ID,
		UserID: user.ID,
	}
	if err := db.Create(&o).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare ownership"))
	}

	return o
}

// SetupLoan creates a loan of the owner's copy of the book to the borrower
// lasting the given number of weeks from borrowDate
func SetupLoan(db *gorm.DB, book database.Book, borrower, owner database.User, borrowDate time.Time, weeks int) database.Loan {
	l := database.Loan{
		BookID:     book.ID,
		BorrowerID: borrower.ID,
		OwnerID:    owner.ID,
		BorrowDate: borrowDate,
		ReturnDate: borrowDate.AddDate(0, 0, 7*weeks),
	}
	if err := db.Create(&l).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare loan"))
	}

	return l
}

// SetupWaitlistEntry puts the user on the waiting list for the owner's copy
// of the book
func SetupWaitlistEntry(db *gorm.DB, book database.Book, owner, user database.User) database.WaitlistEntry {
	e := database.WaitlistEntry{
		BookID:  book.ID,
		OwnerID: owner.ID,
		UserID:  user.ID,
	}
	if err := db.Create(&e).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare waitlist entry"))
	}

	return e
}

// SetupSession creates and returns a new user session
func SetupSession(db *gorm.DB, user database.User) database.Session {
	key, err := crypt.GetRandomStr(32)
	if err != nil {
		panic(errors.Wrap(err, "Failed to generate session key"))
	}

	session := database.Session{
		Key:        key,
		UserID:     user.ID,
		LastUsedAt: time.Now(),
		ExpiresAt:  time.Now().Add(time.Hour * 24),
	}
	if err := db.Create(&session).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare session"))
	}

	return session
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	hc := http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// SetReqAuthHeader sets the authorization header in the given request for the given user with a specific DB
func SetReqAuthHeader(t *testing.T, db *gorm.DB, req *http.Request, user database.User) {
	session := SetupSession(db, user)

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))
}

// HTTPAuthDo makes an HTTP request with an appropriate authorization header for a user with a specific DB
func HTTPAuthDo(t *testing.T, db *gorm.DB, req *http.Request, user database.User) *http.Response {
	SetReqAuthHeader(t, db, req, user)

	return HTTPDo(t, req)
}

// MakeReq makes an HTTP request and returns a response
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// GetCookieByName returns a cookie with the given name
func GetCookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	var ret *http.Cookie

	for i := 0; i < len(cookies); i++ {
		if cookies[i].Name == name {
			ret = cookies[i]
			break
		}
	}

	return ret
}

// MockEmail is a mock email data
type MockEmail struct {
	TemplateType string
	From         string
	To           []string
	Data         interface{}
}

// MockEmailbackendImplementation is an email backend that records the emails
// instead of sending them
type MockEmailbackendImplementation struct {
	mu     sync.RWMutex
	Emails []MockEmail
	Err    error
}

// Clear clears the mock email queue
func (b *MockEmailbackendImplementation) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Emails = []MockEmail{}
}

// SendEmail is an implementation of Backend.SendEmail.
func (b *MockEmailbackendImplementation) SendEmail(templateType, from string, to []string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	b.Emails = append(b.Emails, MockEmail{
		TemplateType: templateType,
		From:         from,
		To:           to,
		Data:         data,
	})

	return nil
}
