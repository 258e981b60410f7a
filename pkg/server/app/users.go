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
	"strings"
	"time"

	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/bookclub/bookclub/pkg/server/token"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ConfirmationTokenTTL is how long an email confirmation token stays valid
const ConfirmationTokenTTL = 15 * time.Minute

// minPasswordLength is the minimum length of a password
const minPasswordLength = 8

// UserParams are the attributes of a new user
type UserParams struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Admin     bool
}

func (p UserParams) normalize() UserParams {
	return UserParams{
		Username:  strings.TrimSpace(p.Username),
		Email:     strings.TrimSpace(p.Email),
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Password:  p.Password,
		Admin:     p.Admin,
	}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	return nil
}

func validateUserParams(p UserParams) error {
	if p.Username == "" || p.Email == "" || p.FirstName == "" || p.LastName == "" || p.Password == "" {
		return ErrIncompleteUserData
	}

	return validatePassword(p.Password)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}

	return string(hashed), nil
}

func createUser(tx *gorm.DB, p UserParams, enabled bool) (database.User, error) {
	taken, err := exists(tx, &database.User{}, "username = ? OR email = ?", p.Username, p.Email)
	if err != nil {
		return database.User{}, errors.Wrap(err, "checking existing users")
	}
	if taken {
		return database.User{}, ErrDuplicateUser
	}

	hashedPassword, err := hashPassword(p.Password)
	if err != nil {
		return database.User{}, err
	}

	role := database.RoleMember
	if p.Admin {
		role = database.RoleAdmin
	}

	user := database.User{
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Password:  hashedPassword,
		Role:      role,
		Enabled:   enabled,
	}
	if err := tx.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return database.User{}, ErrDuplicateUser
		}
		return database.User{}, errors.Wrap(err, "saving user")
	}

	return user, nil
}

// CreateUser creates an enabled user
func (a *App) CreateUser(params UserParams) (database.User, error) {
	p := params.normalize()
	if err := validateUserParams(p); err != nil {
		return database.User{}, err
	}

	var user database.User
	err := a.transact(func(tx *gorm.DB) error {
		var err error
		user, err = createUser(tx, p, true)
		return err
	})
	if err != nil {
		return database.User{}, err
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User created.")

	return user, nil
}

// Register creates a disabled member and emails a token with which the
// member confirms the address and enables the account
func (a *App) Register(params UserParams) (database.User, error) {
	if a.DisableRegistration {
		return database.User{}, ErrRegistrationDisabled
	}

	p := params.normalize()
	p.Admin = false
	if err := validateUserParams(p); err != nil {
		return database.User{}, err
	}

	var user database.User
	var tok database.Token
	err := a.transact(func(tx *gorm.DB) error {
		var err error
		user, err = createUser(tx, p, false)
		if err != nil {
			return err
		}

		tok, err = token.Create(tx, user.ID, database.TokenTypeEmailConfirmation, a.Clock.Now().Add(ConfirmationTokenTTL))
		if err != nil {
			return errors.Wrap(err, "creating email confirmation token")
		}

		return nil
	})
	if err != nil {
		return database.User{}, err
	}

	if err := a.SendConfirmationEmail(user, tok.Value); err != nil {
		log.WithFields(log.Fields{
			"user_id": user.ID,
		}).ErrorWrap(err, "sending confirmation email")
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
	}).Info("User registered.")

	return user, nil
}

// ConfirmEmail consumes the confirmation token and enables its user
func (a *App) ConfirmEmail(value string) (database.User, error) {
	now := a.Clock.Now()

	var user database.User
	err := a.transact(func(tx *gorm.DB) error {
		tok, err := token.Find(tx, value, database.TokenTypeEmailConfirmation, now)
		if errors.Is(err, token.ErrNotFound) {
			return ErrInvalidToken
		} else if errors.Is(err, token.ErrExpired) {
			return ErrTokenExpired
		} else if err != nil {
			return err
		}

		if err := token.MarkUsed(tx, tok, now); err != nil {
			return err
		}

		user, err = findUser(tx, tok.UserID)
		if err != nil {
			return err
		}
		if err := tx.Model(&user).Update("enabled", true).Error; err != nil {
			return errors.Wrap(err, "enabling user")
		}
		user.Enabled = true

		return nil
	})
	if err != nil {
		return database.User{}, err
	}

	if err := a.SendWelcomeEmail(user); err != nil {
		log.WithFields(log.Fields{
			"user_id": user.ID,
		}).ErrorWrap(err, "sending welcome email")
	}

	return user, nil
}

// GetUser returns the user with the given id
func (a *App) GetUser(userID int64) (database.User, error) {
	return findUser(a.DB, userID)
}

// ListUsers returns every user
func (a *App) ListUsers() ([]database.User, error) {
	var users []database.User
	if err := a.DB.Order("id ASC").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "finding users")
	}

	return users, nil
}

// GetUserByUsernameOrEmail returns the user having the given username or
// the given email. Empty values are ignored.
func (a *App) GetUserByUsernameOrEmail(username, email string) (database.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	conn := a.DB
	switch {
	case username != "" && email != "":
		conn = conn.Where("username = ? OR email = ?", username, email)
	case username != "":
		conn = conn.Where("username = ?", username)
	case email != "":
		conn = conn.Where("email = ?", email)
	default:
		return database.User{}, ErrLookupTermRequired
	}

	var user database.User
	err := conn.Order("id ASC").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrUserNotFound
	} else if err != nil {
		return user, errors.Wrap(err, "finding user")
	}

	return user, nil
}

// DeleteUser removes the user and every trace of the user: waitlist
// entries, loans given or received, owned copies (deleting books left
// without owners), tokens and sessions
func (a *App) DeleteUser(userID int64) error {
	var removedCopies int
	err := a.transact(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&database.WaitlistEntry{}).Error; err != nil {
			return errors.Wrap(err, "deleting waitlist entries")
		}
		if err := tx.Where("borrower_id = ? OR owner_id = ?", user.ID, user.ID).Delete(&database.Loan{}).Error; err != nil {
			return errors.Wrap(err, "deleting loans")
		}

		var ownerships []database.Ownership
		if err := tx.Where("user_id = ?", user.ID).Find(&ownerships).Error; err != nil {
			return errors.Wrap(err, "finding ownerships")
		}
		for _, o := range ownerships {
			if _, err := removeOwnershipTx(tx, o.BookID, o.UserID); err != nil {
				return errors.Wrapf(err, "removing ownership of book %d", o.BookID)
			}
		}
		removedCopies = len(ownerships)

		if err := token.DeleteUserTokens(tx, user.ID); err != nil {
			return err
		}
		if err := a.DeleteUserSessions(tx, user.ID); err != nil {
			return err
		}

		if err := tx.Delete(&user).Error; err != nil {
			return errors.Wrap(err, "deleting user")
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":        userID,
		"removed_copies": removedCopies,
	}).Info("User deleted.")

	return nil
}

// UpdateUserPassword sets a new password for the user and invalidates the
// existing sessions
func (a *App) UpdateUserPassword(userID int64, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return err
	}

	return a.transact(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}

		if err := tx.Model(&user).Update("password", hashedPassword).Error; err != nil {
			return errors.Wrap(err, "updating password")
		}

		return a.DeleteUserSessions(tx, user.ID)
	})
}

// TouchLastLoginAt updates the last login timestamp
func (a *App) TouchLastLoginAt(user database.User, tx *gorm.DB) error {
	t := a.Clock.Now()
	if err := tx.Model(&user).Update("last_login_at", &t).Error; err != nil {
		return errors.Wrap(err, "updating last_login_at")
	}

	return nil
}

// Authenticate authenticates a user by username or email
func (a *App) Authenticate(login, password string) (*database.User, error) {
	var user database.User
	err := a.DB.Where("username = ? OR email = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLoginInvalid
	} else if err != nil {
		return nil, errors.Wrap(err, "finding user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrLoginInvalid
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}

	return &user, nil
}

// SignIn signs in a user
func (a *App) SignIn(user *database.User) (*database.Session, error) {
	err := a.TouchLastLoginAt(*user, a.DB)
	if err != nil {
		log.ErrorWrap(err, "touching login timestamp")
	}

	session, err := a.CreateSession(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "creating session")
	}

	return &session, nil
}
