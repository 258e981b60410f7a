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

// Package token manages single-use tokens issued to users
package token

import (
	"time"

	"github.com/bookclub/bookclub/pkg/server/crypt"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no unused token matches
var ErrNotFound = errors.New("token not found")

// ErrExpired is returned when the token has expired
var ErrExpired = errors.New("token expired")

// Create generates a new token in the database that expires at the given time
func Create(db *gorm.DB, userID int64, kind string, expiresAt time.Time) (database.Token, error) {
	val, err := crypt.GetRandomStr(16)
	if err != nil {
		return database.Token{}, errors.Wrap(err, "generating random bytes")
	}

	token := database.Token{
		UserID:    userID,
		Value:     val,
		Type:      kind,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(&token).Error; err != nil {
		return database.Token{}, errors.Wrap(err, "creating a token")
	}

	return token, nil
}

// Find returns the unused token of the given kind with the given value. It
// returns ErrExpired if the token expired before now.
func Find(db *gorm.DB, value, kind string, now time.Time) (database.Token, error) {
	var tok database.Token
	err := db.Where("value = ? AND type = ? AND used_at IS NULL", value, kind).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tok, ErrNotFound
	} else if err != nil {
		return tok, errors.Wrap(err, "finding token")
	}

	if !tok.ExpiresAt.After(now) {
		return tok, ErrExpired
	}

	return tok, nil
}

// MarkUsed records the time at which the token was consumed
func MarkUsed(db *gorm.DB, tok database.Token, now time.Time) error {
	if err := db.Model(&tok).Update("used_at", now).Error; err != nil {
		return errors.Wrap(err, "marking token used")
	}

	return nil
}

// DeleteUserTokens deletes every token issued to the given user
func DeleteUserTokens(db *gorm.DB, userID int64) error {
	if err := db.Where("user_id = ?", userID).Delete(&database.Token{}).Error; err != nil {
		return errors.Wrap(err, "deleting tokens")
	}

	return nil
}
